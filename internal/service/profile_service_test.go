package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/warmloop/warmloop/internal/gologin"
	"github.com/warmloop/warmloop/internal/models"
)

func TestProfileServiceAttachProxy(t *testing.T) {
	repos, encryptor := setupTest(t)
	ctx := context.Background()

	encrypted, err := encryptor.Encrypt("proxy-secret")
	if err != nil {
		t.Fatalf("failed to encrypt: %v", err)
	}
	proxy := &models.Proxy{
		Host:              "10.0.0.1",
		Port:              1080,
		Username:          "user",
		PasswordEncrypted: encrypted,
		Protocol:          models.ProxyProtocolSOCKS5,
		IsActive:          true,
	}
	if err := repos.Proxy.Upsert(ctx, proxy); err != nil {
		t.Fatalf("failed to upsert proxy: %v", err)
	}

	var updateBody gologin.Profile
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/browser/prof-1" {
			t.Errorf("path = %q, want /browser/prof-1", r.URL.Path)
		}
		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode(gologin.Profile{"id": "prof-1", "name": "warm", "os": "win"})
		case http.MethodPut:
			if err := json.NewDecoder(r.Body).Decode(&updateBody); err != nil {
				t.Errorf("failed to decode update body: %v", err)
			}
			json.NewEncoder(w).Encode(updateBody)
		default:
			t.Errorf("unexpected method %s", r.Method)
		}
	}))
	defer srv.Close()

	svc := NewProfileService(gologin.NewClient(srv.URL, "token"), repos, encryptor, nil)

	updated, err := svc.AttachProxy(ctx, "prof-1", proxy.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	block, ok := updateBody["proxy"].(map[string]any)
	if !ok {
		t.Fatalf("update body has no proxy block: %v", updateBody)
	}
	if block["host"] != "10.0.0.1" {
		t.Errorf("proxy host = %v, want 10.0.0.1", block["host"])
	}
	if block["password"] != "proxy-secret" {
		t.Errorf("proxy password = %v, want decrypted secret", block["password"])
	}
	if block["mode"] != "socks5" {
		t.Errorf("proxy mode = %v, want socks5", block["mode"])
	}
	if updateBody["os"] != "win" {
		t.Error("existing profile fields should be preserved")
	}
	if updated["id"] != "prof-1" {
		t.Errorf("updated id = %v, want prof-1", updated["id"])
	}
}

func TestProfileServiceAttachProxyUnknownProxy(t *testing.T) {
	repos, encryptor := setupTest(t)

	svc := NewProfileService(gologin.NewClient("http://127.0.0.1:0", "token"), repos, encryptor, nil)

	_, err := svc.AttachProxy(context.Background(), "prof-1", "missing")
	if err != ErrProxyNotFound {
		t.Fatalf("err = %v, want ErrProxyNotFound", err)
	}
}
