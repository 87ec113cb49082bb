package crypto

import (
	"strings"
	"testing"
)

func testKey() []byte {
	return []byte("0123456789abcdef0123456789abcdef")
}

func TestNewEncryptor(t *testing.T) {
	t.Run("rejects short key", func(t *testing.T) {
		_, err := NewEncryptor([]byte("too-short"))
		if err != ErrInvalidKey {
			t.Errorf("err = %v, want ErrInvalidKey", err)
		}
	})

	t.Run("accepts 32-byte key", func(t *testing.T) {
		if _, err := NewEncryptor(testKey()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestEncryptDecrypt(t *testing.T) {
	enc, err := NewEncryptor(testKey())
	if err != nil {
		t.Fatal(err)
	}

	t.Run("round trip", func(t *testing.T) {
		ciphertext, err := enc.Encrypt("hunter2")
		if err != nil {
			t.Fatalf("encrypt: %v", err)
		}
		if ciphertext == "hunter2" {
			t.Error("ciphertext equals plaintext")
		}

		plaintext, err := enc.Decrypt(ciphertext)
		if err != nil {
			t.Fatalf("decrypt: %v", err)
		}
		if plaintext != "hunter2" {
			t.Errorf("plaintext = %q, want %q", plaintext, "hunter2")
		}
	})

	t.Run("empty string passes through", func(t *testing.T) {
		ciphertext, err := enc.Encrypt("")
		if err != nil || ciphertext != "" {
			t.Errorf("Encrypt(\"\") = %q, %v", ciphertext, err)
		}
		plaintext, err := enc.Decrypt("")
		if err != nil || plaintext != "" {
			t.Errorf("Decrypt(\"\") = %q, %v", plaintext, err)
		}
	})

	t.Run("nonces differ between calls", func(t *testing.T) {
		a, _ := enc.Encrypt("same input")
		b, _ := enc.Encrypt("same input")
		if a == b {
			t.Error("two encryptions produced identical ciphertext")
		}
	})

	t.Run("rejects garbage", func(t *testing.T) {
		if _, err := enc.Decrypt("not base64!!!"); err == nil {
			t.Error("expected error for invalid base64")
		}
		if _, err := enc.Decrypt("QQ=="); err != ErrInvalidCipher {
			t.Errorf("err = %v, want ErrInvalidCipher", err)
		}
	})

	t.Run("rejects tampered ciphertext", func(t *testing.T) {
		ciphertext, _ := enc.Encrypt("secret")
		tampered := strings.Replace(ciphertext, ciphertext[4:5], "A", 1)
		if tampered == ciphertext {
			tampered = strings.Replace(ciphertext, ciphertext[4:5], "B", 1)
		}
		if _, err := enc.Decrypt(tampered); err == nil {
			t.Error("expected error for tampered ciphertext")
		}
	})
}
