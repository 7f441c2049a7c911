package storage

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestWrap_Nil(t *testing.T) {
	if err := Wrap("user", "GetByID", nil); err != nil {
		t.Errorf("Wrap(nil) should be nil, got %v", err)
	}
}

func TestWrap_Classification(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Kind
	}{
		{"deadline exceeded", context.DeadlineExceeded, KindTimeout},
		{"query canceled", &pgconn.PgError{Code: "57014"}, KindTimeout},
		{"bad conn", driver.ErrBadConn, KindConnection},
		{"plain error", errors.New("syntax error"), KindBackend},
		{"constraint violation", &pgconn.PgError{Code: "23505"}, KindBackend},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Wrap("user", "GetByID", tc.err)
			var opErr *OpError
			if !errors.As(err, &opErr) {
				t.Fatalf("Wrap should return *OpError, got %T", err)
			}
			if opErr.Kind != tc.want {
				t.Errorf("kind want %v, got %v", tc.want, opErr.Kind)
			}
			if opErr.Repo != "user" || opErr.Op != "GetByID" {
				t.Errorf("repo/op want user.GetByID, got %s.%s", opErr.Repo, opErr.Op)
			}
			if !errors.Is(err, tc.err) {
				t.Error("OpError should unwrap to the cause")
			}
		})
	}
}

func TestKindHelpers(t *testing.T) {
	timeout := Wrap("user", "GetByID", context.DeadlineExceeded)
	if !IsTimeout(timeout) {
		t.Error("IsTimeout should match a timeout OpError")
	}
	if IsConnection(timeout) {
		t.Error("IsConnection should not match a timeout OpError")
	}
	conn := Wrap("user", "Create", driver.ErrBadConn)
	if !IsConnection(conn) {
		t.Error("IsConnection should match a connection OpError")
	}
	if IsTimeout(errors.New("plain")) {
		t.Error("IsTimeout should not match a bare error")
	}
}

func TestIsUniqueViolation(t *testing.T) {
	dup := Wrap("user", "Create", &pgconn.PgError{Code: "23505", ConstraintName: "users_email_lower_idx"})
	if !IsUniqueViolation(dup) {
		t.Error("IsUniqueViolation should match code 23505 through OpError")
	}
	if IsUniqueViolation(Wrap("user", "Create", &pgconn.PgError{Code: "57014"})) {
		t.Error("IsUniqueViolation should not match other codes")
	}
	if IsUniqueViolation(nil) {
		t.Error("IsUniqueViolation(nil) should be false")
	}
}

func TestOpError_Message(t *testing.T) {
	err := Wrap("claim", "Add", errors.New("boom"))
	want := "claim.Add: backend error: boom"
	if err.Error() != want {
		t.Errorf("Error() want %q, got %q", want, err.Error())
	}
}
