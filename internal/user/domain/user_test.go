package domain

import (
	"testing"
	"time"
)

func TestValidate(t *testing.T) {
	u := &User{Email: "a@example.com", UserName: "a"}
	if err := u.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if err := (&User{UserName: "a"}).Validate(); err == nil {
		t.Error("Validate accepted empty email")
	}
	if err := (&User{Email: "a@example.com"}).Validate(); err == nil {
		t.Error("Validate accepted empty user name")
	}
}

func TestSetPasswordHash_InMemoryOnly(t *testing.T) {
	u := &User{}
	if u.HasPassword() {
		t.Fatal("new user should have no password")
	}
	u.SetPasswordHash("hash1")
	if !u.HasPassword() {
		t.Fatal("HasPassword = false after SetPasswordHash")
	}
	if u.PasswordHash != "hash1" {
		t.Errorf("PasswordHash = %q, want %q", u.PasswordHash, "hash1")
	}
}

func TestLockoutStateMachine(t *testing.T) {
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	u := &User{LockoutEnabled: true}

	// Two failures below the threshold: still active.
	if locked := u.RecordFailedAccess(now, 3, 15*time.Minute); locked {
		t.Fatal("locked after 1 failure, want active")
	}
	if locked := u.RecordFailedAccess(now, 3, 15*time.Minute); locked {
		t.Fatal("locked after 2 failures, want active")
	}
	if u.IsLockedOut(now) {
		t.Fatal("IsLockedOut = true below threshold")
	}

	// Third failure crosses the threshold.
	if locked := u.RecordFailedAccess(now, 3, 15*time.Minute); !locked {
		t.Fatal("not locked after 3 failures")
	}
	if !u.IsLockedOut(now) {
		t.Fatal("IsLockedOut = false after lockout triggered")
	}
	if u.AccessFailedCount != 0 {
		t.Errorf("AccessFailedCount = %d after lockout, want 0", u.AccessFailedCount)
	}

	// Lockout expires on its own.
	after := now.Add(16 * time.Minute)
	if u.IsLockedOut(after) {
		t.Fatal("IsLockedOut = true after expiry")
	}

	// Admin reset returns to Active immediately.
	u.RecordFailedAccess(now, 1, 15*time.Minute)
	u.ResetAccessFailures()
	if u.IsLockedOut(now) {
		t.Fatal("IsLockedOut = true after reset")
	}
}

func TestLockoutDisabled(t *testing.T) {
	u := &User{LockoutEnabled: false}
	for i := 0; i < 10; i++ {
		if locked := u.RecordFailedAccess(time.Now(), 3, time.Minute); locked {
			t.Fatal("lockout triggered with LockoutEnabled = false")
		}
	}
	if u.AccessFailedCount != 0 {
		t.Errorf("AccessFailedCount = %d with lockout disabled, want 0", u.AccessFailedCount)
	}
}
