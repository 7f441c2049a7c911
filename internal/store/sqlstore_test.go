package store_test

import (
	"context"
	"errors"
	"testing"

	roledomain "identity-store/internal/role/domain"
	"identity-store/internal/store"
	"identity-store/internal/store/storetest"
	userdomain "identity-store/internal/user/domain"
)

func newTestStore(t *testing.T) (*store.SQLStore, store.Repos) {
	t.Helper()
	repos, runTx := storetest.New()
	return store.NewWithRepos(repos, runTx), repos
}

func newUser(userName, email string) *userdomain.User {
	return &userdomain.User{UserName: userName, Email: email, LockoutEnabled: true}
}

func mustCreate(t *testing.T, s *store.SQLStore, u *userdomain.User) {
	t.Helper()
	if err := s.Create(context.Background(), u); err != nil {
		t.Fatalf("Create: %v", err)
	}
}

func TestCreate_AssignsFreshID(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	a := newUser("alice", "alice@example.com")
	a.ID = "caller-assigned"
	mustCreate(t, s, a)
	if a.ID == "" || a.ID == "caller-assigned" {
		t.Errorf("Create should overwrite caller-assigned id, got %q", a.ID)
	}
	if a.CreatedAt.IsZero() {
		t.Error("Create should set CreatedAt")
	}

	b := newUser("bob", "bob@example.com")
	mustCreate(t, s, b)
	if a.ID == b.ID {
		t.Error("ids should be distinct")
	}

	got, err := s.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got == nil || got.UserName != "alice" {
		t.Errorf("GetByID returned %+v", got)
	}
}

func TestCreate_DuplicateEmail(t *testing.T) {
	s, _ := newTestStore(t)
	mustCreate(t, s, newUser("alice", "alice@example.com"))

	err := s.Create(context.Background(), newUser("alice2", "Alice@Example.com"))
	if !errors.Is(err, store.ErrDuplicateUser) {
		t.Errorf("want ErrDuplicateUser, got %v", err)
	}
}

func TestCreate_Validation(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	if err := s.Create(ctx, nil); !errors.Is(err, store.ErrNilUser) {
		t.Errorf("nil user: want ErrNilUser, got %v", err)
	}
	if err := s.Create(ctx, &userdomain.User{UserName: "alice"}); err == nil {
		t.Error("missing email should fail validation")
	}
}

func TestLookups_CaseInsensitive(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	mustCreate(t, s, newUser("Alice", "Alice@Example.com"))

	byName, err := s.GetByUserName(ctx, "aLiCe")
	if err != nil {
		t.Fatalf("GetByUserName: %v", err)
	}
	if byName == nil {
		t.Fatal("GetByUserName should match case-insensitively")
	}

	byEmail, err := s.FindByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	if byEmail == nil {
		t.Fatal("FindByEmail should match case-insensitively")
	}

	missing, err := s.FindByEmail(ctx, "nobody@example.com")
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	if missing != nil {
		t.Errorf("missing email should return nil, got %+v", missing)
	}
}

func TestCredentialSetters_InMemoryUntilUpdate(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	u := newUser("alice", "alice@example.com")
	u.PasswordHash = "old-hash"
	u.SecurityStamp = "old-stamp"
	mustCreate(t, s, u)

	if err := s.SetPasswordHash(u, "new-hash"); err != nil {
		t.Fatalf("SetPasswordHash: %v", err)
	}
	if err := s.SetSecurityStamp(u, "new-stamp"); err != nil {
		t.Fatalf("SetSecurityStamp: %v", err)
	}
	if hash, _ := s.GetPasswordHash(u); hash != "new-hash" {
		t.Errorf("GetPasswordHash should read the record, got %q", hash)
	}

	stored, _ := s.GetByID(ctx, u.ID)
	if stored.PasswordHash != "old-hash" || stored.SecurityStamp != "old-stamp" {
		t.Error("setters should not reach storage before Update")
	}

	if err := s.Update(ctx, u); err != nil {
		t.Fatalf("Update: %v", err)
	}
	stored, _ = s.GetByID(ctx, u.ID)
	if stored.PasswordHash != "new-hash" || stored.SecurityStamp != "new-stamp" {
		t.Error("Update should persist the mutated record")
	}
}

func TestUpdate_Validation(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	if err := s.Update(ctx, nil); !errors.Is(err, store.ErrNilUser) {
		t.Errorf("nil user: want ErrNilUser, got %v", err)
	}
	if err := s.Update(ctx, newUser("alice", "alice@example.com")); !errors.Is(err, store.ErrEmptyArgument) {
		t.Errorf("missing id: want ErrEmptyArgument, got %v", err)
	}
}

func TestHasPassword(t *testing.T) {
	s, _ := newTestStore(t)
	u := newUser("alice", "alice@example.com")
	if has, _ := s.HasPassword(u); has {
		t.Error("user without hash should report no password")
	}
	u.PasswordHash = "hash"
	if has, _ := s.HasPassword(u); !has {
		t.Error("user with hash should report a password")
	}
}

func seedRole(t *testing.T, repos store.Repos, id, name string) {
	t.Helper()
	if err := repos.Roles.Create(context.Background(), &roledomain.Role{ID: id, Name: name}); err != nil {
		t.Fatalf("seed role: %v", err)
	}
}

func TestCreateInRole(t *testing.T) {
	s, repos := newTestStore(t)
	ctx := context.Background()
	seedRole(t, repos, "role-1", "member")

	u := newUser("alice", "alice@example.com")
	if err := s.CreateInRole(ctx, u, "member"); err != nil {
		t.Fatalf("CreateInRole: %v", err)
	}
	in, err := s.IsInRole(ctx, u, "member")
	if err != nil {
		t.Fatalf("IsInRole: %v", err)
	}
	if !in {
		t.Error("user should be in role after CreateInRole")
	}
}

func TestCreateInRole_UnknownRole(t *testing.T) {
	s, _ := newTestStore(t)
	u := newUser("alice", "alice@example.com")
	err := s.CreateInRole(context.Background(), u, "ghost")
	if !errors.Is(err, store.ErrRoleNotFound) {
		t.Errorf("want ErrRoleNotFound, got %v", err)
	}
}

func TestRoles(t *testing.T) {
	s, repos := newTestStore(t)
	ctx := context.Background()
	seedRole(t, repos, "role-1", "admin")
	seedRole(t, repos, "role-2", "member")

	u := newUser("alice", "alice@example.com")
	mustCreate(t, s, u)

	if err := s.AddToRole(ctx, u, "admin"); err != nil {
		t.Fatalf("AddToRole: %v", err)
	}
	if err := s.AddToRole(ctx, u, "ghost"); !errors.Is(err, store.ErrRoleNotFound) {
		t.Errorf("unknown role: want ErrRoleNotFound, got %v", err)
	}

	names, err := s.GetRoles(ctx, u)
	if err != nil {
		t.Fatalf("GetRoles: %v", err)
	}
	if len(names) != 1 || names[0] != "admin" {
		t.Errorf("GetRoles want [admin], got %v", names)
	}

	if in, _ := s.IsInRole(ctx, u, "member"); in {
		t.Error("user should not be in member")
	}

	if err := s.RemoveFromRole(ctx, u, "ghost"); !errors.Is(err, store.ErrRoleNotFound) {
		t.Errorf("remove unknown role: want ErrRoleNotFound, got %v", err)
	}
	if err := s.RemoveFromRole(ctx, u, "admin"); err != nil {
		t.Fatalf("RemoveFromRole: %v", err)
	}
	if in, _ := s.IsInRole(ctx, u, "admin"); in {
		t.Error("user should no longer be in admin")
	}
}

func TestClaims(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	u := newUser("alice", "alice@example.com")
	mustCreate(t, s, u)

	if err := s.AddClaim(ctx, u, "dept", "eng"); err != nil {
		t.Fatalf("AddClaim: %v", err)
	}
	if err := s.AddClaim(ctx, u, "", "x"); err == nil {
		t.Error("empty claim type should fail validation")
	}

	claims, err := s.GetClaims(ctx, u)
	if err != nil {
		t.Fatalf("GetClaims: %v", err)
	}
	if len(claims) != 1 || claims[0].Type != "dept" || claims[0].Value != "eng" {
		t.Errorf("GetClaims returned %+v", claims)
	}

	if err := s.RemoveClaim(ctx, u, "dept", "eng"); err != nil {
		t.Fatalf("RemoveClaim: %v", err)
	}
	claims, _ = s.GetClaims(ctx, u)
	if len(claims) != 0 {
		t.Errorf("claims should be empty after remove, got %+v", claims)
	}
}

func TestLogins(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	u := newUser("alice", "alice@example.com")
	mustCreate(t, s, u)

	if err := s.AddLogin(ctx, u, "github", "gh-123"); err != nil {
		t.Fatalf("AddLogin: %v", err)
	}

	found, err := s.FindByLogin(ctx, "github", "gh-123")
	if err != nil {
		t.Fatalf("FindByLogin: %v", err)
	}
	if found == nil || found.ID != u.ID {
		t.Errorf("FindByLogin returned %+v", found)
	}

	missing, err := s.FindByLogin(ctx, "github", "gh-999")
	if err != nil {
		t.Fatalf("FindByLogin: %v", err)
	}
	if missing != nil {
		t.Errorf("unlinked pair should return nil, got %+v", missing)
	}

	logins, err := s.GetLogins(ctx, u)
	if err != nil {
		t.Fatalf("GetLogins: %v", err)
	}
	if len(logins) != 1 || logins[0].ID == "" {
		t.Errorf("GetLogins returned %+v", logins)
	}

	if err := s.RemoveLogin(ctx, u, "github", "gh-123"); err != nil {
		t.Fatalf("RemoveLogin: %v", err)
	}
	logins, _ = s.GetLogins(ctx, u)
	if len(logins) != 0 {
		t.Errorf("logins should be empty after remove, got %+v", logins)
	}
}

func TestDelete_RemovesAssociations(t *testing.T) {
	s, repos := newTestStore(t)
	ctx := context.Background()
	seedRole(t, repos, "role-1", "member")

	u := newUser("alice", "alice@example.com")
	if err := s.CreateInRole(ctx, u, "member"); err != nil {
		t.Fatalf("CreateInRole: %v", err)
	}
	if err := s.AddClaim(ctx, u, "dept", "eng"); err != nil {
		t.Fatalf("AddClaim: %v", err)
	}
	if err := s.AddLogin(ctx, u, "github", "gh-123"); err != nil {
		t.Fatalf("AddLogin: %v", err)
	}

	if err := s.Delete(ctx, u); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if got, _ := s.GetByID(ctx, u.ID); got != nil {
		t.Error("user row should be gone")
	}
	if names, _ := s.GetRoles(ctx, u); len(names) != 0 {
		t.Errorf("role assignments should be gone, got %v", names)
	}
	if claims, _ := s.GetClaims(ctx, u); len(claims) != 0 {
		t.Errorf("claims should be gone, got %+v", claims)
	}
	if found, _ := s.FindByLogin(ctx, "github", "gh-123"); found != nil {
		t.Error("external login should be gone")
	}
}

func TestUnsupportedCapabilities(t *testing.T) {
	s, _ := newTestStore(t)
	u := newUser("alice", "alice@example.com")

	if err := s.SetTwoFactorEnabled(u, true); !errors.Is(err, store.ErrNotSupported) {
		t.Errorf("SetTwoFactorEnabled: want ErrNotSupported, got %v", err)
	}
	if _, err := s.GetTwoFactorEnabled(u); !errors.Is(err, store.ErrNotSupported) {
		t.Errorf("GetTwoFactorEnabled: want ErrNotSupported, got %v", err)
	}
	if err := s.SetPhoneNumber(u, "555"); !errors.Is(err, store.ErrNotSupported) {
		t.Errorf("SetPhoneNumber: want ErrNotSupported, got %v", err)
	}
	if _, err := s.GetPhoneNumber(u); !errors.Is(err, store.ErrNotSupported) {
		t.Errorf("GetPhoneNumber: want ErrNotSupported, got %v", err)
	}
}
