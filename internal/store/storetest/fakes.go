// Package storetest provides in-memory repository fakes for unit tests.
// The fakes mirror the Postgres repositories' observable behavior: lookups
// return (nil, nil) on missing rows, name and email compare
// case-insensitively, and duplicate inserts fail with a unique-violation
// error. Do not use outside tests.
package storetest

import (
	"context"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5/pgconn"

	claimdomain "identity-store/internal/claim/domain"
	extdomain "identity-store/internal/extlogin/domain"
	roledomain "identity-store/internal/role/domain"
	"identity-store/internal/store"
	userdomain "identity-store/internal/user/domain"
)

// New returns fake repositories sharing one in-memory dataset, plus a
// pass-through transaction runner over the same data. Rollback is not
// simulated; tests asserting transactional behavior use a failing fake
// instead.
func New() (store.Repos, store.TxRunner) {
	users := &FakeUserRepo{byID: map[string]*userdomain.User{}}
	roles := &FakeRoleRepo{byID: map[string]string{}}
	r := store.Repos{
		Users:       users,
		Roles:       roles,
		Memberships: &FakeMembershipRepo{roles: roles, members: map[string]map[string]bool{}},
		Claims:      &FakeClaimRepo{},
		Logins:      &FakeLoginRepo{users: users},
	}
	runTx := func(ctx context.Context, fn func(ctx context.Context, r store.Repos) error) error {
		return fn(ctx, r)
	}
	return r, runTx
}

func uniqueViolation(constraint string) error {
	return &pgconn.PgError{Code: "23505", ConstraintName: constraint}
}

// FakeUserRepo is an in-memory user repository. Gets return copies, so
// mutating a returned record does not change the stored one until Update.
type FakeUserRepo struct {
	mu   sync.Mutex
	byID map[string]*userdomain.User
}

func (f *FakeUserRepo) GetByID(ctx context.Context, id string) (*userdomain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (f *FakeUserRepo) GetByUserName(ctx context.Context, userName string) (*userdomain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if strings.EqualFold(u.UserName, userName) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *FakeUserRepo) GetByEmail(ctx context.Context, email string) (*userdomain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *FakeUserRepo) Create(ctx context.Context, u *userdomain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if strings.EqualFold(existing.UserName, u.UserName) {
			return uniqueViolation("users_user_name_lower_idx")
		}
		if strings.EqualFold(existing.Email, u.Email) {
			return uniqueViolation("users_email_lower_idx")
		}
	}
	cp := *u
	f.byID[u.ID] = &cp
	return nil
}

func (f *FakeUserRepo) Update(ctx context.Context, u *userdomain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.byID[u.ID]
	if !ok {
		return nil
	}
	for id, existing := range f.byID {
		if id == u.ID {
			continue
		}
		if strings.EqualFold(existing.UserName, u.UserName) || strings.EqualFold(existing.Email, u.Email) {
			return uniqueViolation("users_email_lower_idx")
		}
	}
	cp := *u
	cp.CreatedAt = stored.CreatedAt
	f.byID[u.ID] = &cp
	return nil
}

func (f *FakeUserRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byID, id)
	return nil
}

// FakeRoleRepo is an in-memory role repository.
type FakeRoleRepo struct {
	mu   sync.Mutex
	byID map[string]string
}

func (f *FakeRoleRepo) Create(ctx context.Context, r *roledomain.Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, name := range f.byID {
		if name == r.Name {
			return uniqueViolation("roles_name_key")
		}
	}
	f.byID[r.ID] = r.Name
	return nil
}

func (f *FakeRoleRepo) GetIDByName(ctx context.Context, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, n := range f.byID {
		if n == name {
			return id, nil
		}
	}
	return "", nil
}

func (f *FakeRoleRepo) GetNameByID(ctx context.Context, id string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byID[id], nil
}

// FakeMembershipRepo is an in-memory user-role junction.
type FakeMembershipRepo struct {
	mu      sync.Mutex
	roles   *FakeRoleRepo
	members map[string]map[string]bool
}

func (f *FakeMembershipRepo) Add(ctx context.Context, userID, roleID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.members[userID] == nil {
		f.members[userID] = map[string]bool{}
	}
	f.members[userID][roleID] = true
	return nil
}

func (f *FakeMembershipRepo) ListRoleNamesByUser(ctx context.Context, userID string) ([]string, error) {
	f.mu.Lock()
	roleIDs := make([]string, 0, len(f.members[userID]))
	for roleID := range f.members[userID] {
		roleIDs = append(roleIDs, roleID)
	}
	f.mu.Unlock()

	var names []string
	for _, roleID := range roleIDs {
		name, err := f.roles.GetNameByID(ctx, roleID)
		if err != nil {
			return nil, err
		}
		if name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

func (f *FakeMembershipRepo) Remove(ctx context.Context, userID, roleID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.members[userID], roleID)
	return nil
}

func (f *FakeMembershipRepo) DeleteAllByUser(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.members, userID)
	return nil
}

// FakeClaimRepo is an in-memory claim repository.
type FakeClaimRepo struct {
	mu     sync.Mutex
	claims []claimdomain.Claim
}

func (f *FakeClaimRepo) Add(ctx context.Context, c *claimdomain.Claim) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.claims = append(f.claims, *c)
	return nil
}

func (f *FakeClaimRepo) ListByUser(ctx context.Context, userID string) ([]*claimdomain.Claim, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*claimdomain.Claim
	for i := range f.claims {
		if f.claims[i].UserID == userID {
			cp := f.claims[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *FakeClaimRepo) Remove(ctx context.Context, c *claimdomain.Claim) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.claims[:0]
	for _, existing := range f.claims {
		if existing.UserID == c.UserID && existing.Type == c.Type && existing.Value == c.Value {
			continue
		}
		kept = append(kept, existing)
	}
	f.claims = kept
	return nil
}

func (f *FakeClaimRepo) DeleteAllByUser(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.claims[:0]
	for _, existing := range f.claims {
		if existing.UserID != userID {
			kept = append(kept, existing)
		}
	}
	f.claims = kept
	return nil
}

// FakeLoginRepo is an in-memory external-login repository.
type FakeLoginRepo struct {
	mu     sync.Mutex
	users  *FakeUserRepo
	logins []extdomain.ExternalLogin
}

func (f *FakeLoginRepo) Add(ctx context.Context, l *extdomain.ExternalLogin) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.logins {
		if existing.LoginProvider == l.LoginProvider && existing.ProviderKey == l.ProviderKey {
			return uniqueViolation("external_logins_provider_key_idx")
		}
	}
	f.logins = append(f.logins, *l)
	return nil
}

func (f *FakeLoginRepo) Remove(ctx context.Context, l *extdomain.ExternalLogin) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.logins[:0]
	for _, existing := range f.logins {
		if existing.UserID == l.UserID && existing.LoginProvider == l.LoginProvider && existing.ProviderKey == l.ProviderKey {
			continue
		}
		kept = append(kept, existing)
	}
	f.logins = kept
	return nil
}

func (f *FakeLoginRepo) ListByUser(ctx context.Context, userID string) ([]*extdomain.ExternalLogin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*extdomain.ExternalLogin
	for i := range f.logins {
		if f.logins[i].UserID == userID {
			cp := f.logins[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *FakeLoginRepo) DeleteAllByUser(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.logins[:0]
	for _, existing := range f.logins {
		if existing.UserID != userID {
			kept = append(kept, existing)
		}
	}
	f.logins = kept
	return nil
}

func (f *FakeLoginRepo) FindUserByProviderKey(ctx context.Context, provider, key string) (*userdomain.User, error) {
	f.mu.Lock()
	var userID string
	for _, existing := range f.logins {
		if existing.LoginProvider == provider && existing.ProviderKey == key {
			userID = existing.UserID
			break
		}
	}
	f.mu.Unlock()
	if userID == "" {
		return nil, nil
	}
	return f.users.GetByID(ctx, userID)
}
