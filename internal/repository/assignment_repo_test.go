package repository

import (
	"context"
	"errors"
	"testing"
)

func TestAssignmentRepository_InTx_CommitsOnSuccess(t *testing.T) {
	repos, db := setupTestRepos(t)
	ctx := context.Background()

	insertTestAccount(t, db, "acc-1", "a@example.com")
	insertTestProxy(t, db, "prx-1", "10.0.0.1", 4000, 0, true)

	err := repos.Assignment.InTx(ctx, func(store AllocationStore) error {
		account, err := store.GetAccount(ctx, "acc-1")
		if err != nil {
			return err
		}
		if account == nil {
			t.Fatal("expected account inside tx")
		}
		_, err = store.CreateAssignment(ctx, "acc-1", "prx-1")
		return err
	})
	if err != nil {
		t.Fatalf("InTx failed: %v", err)
	}

	count, err := repos.Assignment.CountByProxy(ctx, "prx-1")
	if err != nil {
		t.Fatalf("failed to count assignments: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestAssignmentRepository_InTx_RollsBackOnError(t *testing.T) {
	repos, db := setupTestRepos(t)
	ctx := context.Background()

	insertTestAccount(t, db, "acc-1", "a@example.com")
	insertTestAccount(t, db, "acc-2", "b@example.com")
	insertTestProxy(t, db, "prx-1", "10.0.0.1", 4000, 0, true)
	insertTestAssignment(t, db, "asg-1", "acc-1", "prx-1")

	boom := errors.New("boom")
	err := repos.Assignment.InTx(ctx, func(store AllocationStore) error {
		if err := store.ClearForAccounts(ctx, []string{"acc-1"}); err != nil {
			return err
		}
		if _, err := store.CreateAssignment(ctx, "acc-2", "prx-1"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("InTx error = %v, want boom", err)
	}

	// The clear and the create both rolled back.
	views, err := repos.Assignment.ListViews(ctx)
	if err != nil {
		t.Fatalf("failed to list views: %v", err)
	}
	if len(views) != 1 || views[0].AccountID != "acc-1" {
		t.Errorf("expected only acc-1's original assignment, got %d views", len(views))
	}
}

func TestAssignmentRepository_InTx_ClearForAccounts(t *testing.T) {
	repos, db := setupTestRepos(t)
	ctx := context.Background()

	insertTestAccount(t, db, "acc-1", "a@example.com")
	insertTestAccount(t, db, "acc-2", "b@example.com")
	insertTestProxy(t, db, "prx-1", "10.0.0.1", 4000, 0, true)
	insertTestAssignment(t, db, "asg-1", "acc-1", "prx-1")
	insertTestAssignment(t, db, "asg-2", "acc-2", "prx-1")

	err := repos.Assignment.InTx(ctx, func(store AllocationStore) error {
		return store.ClearForAccounts(ctx, []string{"acc-1"})
	})
	if err != nil {
		t.Fatalf("InTx failed: %v", err)
	}

	views, err := repos.Assignment.ListViews(ctx)
	if err != nil {
		t.Fatalf("failed to list views: %v", err)
	}
	if len(views) != 1 || views[0].AccountID != "acc-2" {
		t.Errorf("expected only acc-2 to remain, got %+v", views)
	}
}

func TestAssignmentRepository_ListViews(t *testing.T) {
	repos, db := setupTestRepos(t)
	ctx := context.Background()

	insertTestAccount(t, db, "acc-1", "b@example.com")
	insertTestAccount(t, db, "acc-2", "a@example.com")
	insertTestProxy(t, db, "prx-1", "10.0.0.1", 4000, 0, true)
	insertTestAssignment(t, db, "asg-1", "acc-1", "prx-1")
	insertTestAssignment(t, db, "asg-2", "acc-2", "prx-1")

	views, err := repos.Assignment.ListViews(ctx)
	if err != nil {
		t.Fatalf("failed to list views: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("expected 2 views, got %d", len(views))
	}
	// Ordered by email.
	if views[0].Email != "a@example.com" || views[1].Email != "b@example.com" {
		t.Errorf("order = [%s %s], want [a@... b@...]", views[0].Email, views[1].Email)
	}
	if views[0].ProxyHost != "10.0.0.1" || views[0].ProxyPort != 4000 {
		t.Errorf("proxy endpoint = %s:%d, want 10.0.0.1:4000", views[0].ProxyHost, views[0].ProxyPort)
	}
}

func TestAssignmentRepository_FindByProxy(t *testing.T) {
	repos, db := setupTestRepos(t)
	ctx := context.Background()

	insertTestAccount(t, db, "acc-1", "a@example.com")
	insertTestProxy(t, db, "prx-1", "10.0.0.1", 4000, 0, true)
	insertTestProxy(t, db, "prx-2", "10.0.0.2", 4000, 1, true)
	insertTestAssignment(t, db, "asg-1", "acc-1", "prx-1")

	found, err := repos.Assignment.FindByProxy(ctx, "prx-1")
	if err != nil {
		t.Fatalf("failed to find assignment: %v", err)
	}
	if found == nil || found.AccountID != "acc-1" {
		t.Errorf("expected assignment for acc-1, got %+v", found)
	}

	none, err := repos.Assignment.FindByProxy(ctx, "prx-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if none != nil {
		t.Error("expected nil for unassigned proxy")
	}
}

func TestAssignmentRepository_ClearForAccount(t *testing.T) {
	repos, db := setupTestRepos(t)
	ctx := context.Background()

	insertTestAccount(t, db, "acc-1", "a@example.com")
	insertTestProxy(t, db, "prx-1", "10.0.0.1", 4000, 0, true)
	insertTestAssignment(t, db, "asg-1", "acc-1", "prx-1")

	cleared, err := repos.Assignment.ClearForAccount(ctx, "acc-1")
	if err != nil {
		t.Fatalf("failed to clear assignment: %v", err)
	}
	if !cleared {
		t.Error("expected clear to report a removed row")
	}

	// Clearing again is a no-op, not an error.
	cleared, err = repos.Assignment.ClearForAccount(ctx, "acc-1")
	if err != nil {
		t.Fatalf("unexpected error on repeat clear: %v", err)
	}
	if cleared {
		t.Error("expected repeat clear to report false")
	}
}

func TestAssignmentRepository_AccountUniqueConstraint(t *testing.T) {
	repos, db := setupTestRepos(t)
	ctx := context.Background()

	insertTestAccount(t, db, "acc-1", "a@example.com")
	insertTestProxy(t, db, "prx-1", "10.0.0.1", 4000, 0, true)
	insertTestProxy(t, db, "prx-2", "10.0.0.2", 4000, 1, true)
	insertTestAssignment(t, db, "asg-1", "acc-1", "prx-1")

	err := repos.Assignment.InTx(ctx, func(store AllocationStore) error {
		_, err := store.CreateAssignment(ctx, "acc-1", "prx-2")
		return err
	})
	if err == nil {
		t.Error("expected second assignment for the same account to be rejected")
	}
}
