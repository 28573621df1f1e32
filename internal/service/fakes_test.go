package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/careerforge/identity-service/internal/domain"
	"github.com/careerforge/identity-service/internal/repository"
)

// In-memory repository fakes. All of them are safe for concurrent use so
// the coordinator tests can hammer them from many goroutines.

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User // keyed by id
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*domain.User)}
}

func (f *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == user.Email {
			return fmt.Errorf("duplicate: %w", repository.ErrDuplicateEmail)
		}
	}
	if user.ID == "" {
		user.ID = fmt.Sprintf("user-%d", len(f.users)+1)
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	clone := *user
	f.users[user.ID] = &clone
	return nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, fmt.Errorf("not found: %w", repository.ErrNotFound)
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, fmt.Errorf("not found: %w", repository.ErrNotFound)
}

type fakeOrgRepo struct {
	mu   sync.Mutex
	orgs map[string]*domain.Organization
}

func newFakeOrgRepo() *fakeOrgRepo {
	return &fakeOrgRepo{orgs: make(map[string]*domain.Organization)}
}

func (f *fakeOrgRepo) Create(_ context.Context, org *domain.Organization) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if org.ID == "" {
		org.ID = fmt.Sprintf("org-%d", len(f.orgs)+1)
	}
	if org.CreatedAt.IsZero() {
		org.CreatedAt = time.Now()
	}
	clone := *org
	f.orgs[org.ID] = &clone
	return nil
}

func (f *fakeOrgRepo) GetByID(_ context.Context, id string) (*domain.Organization, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if o, ok := f.orgs[id]; ok {
		clone := *o
		return &clone, nil
	}
	return nil, fmt.Errorf("not found: %w", repository.ErrNotFound)
}

type fakeMembershipRepo struct {
	mu   sync.Mutex
	rows map[string]*domain.Membership // keyed by userID/orgID
}

func newFakeMembershipRepo() *fakeMembershipRepo {
	return &fakeMembershipRepo{rows: make(map[string]*domain.Membership)}
}

func membershipKey(userID, orgID string) string {
	return userID + "/" + orgID
}

func (f *fakeMembershipRepo) Upsert(_ context.Context, m *domain.Membership) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *m
	f.rows[membershipKey(m.UserID, m.OrgID)] = &clone
	return nil
}

func (f *fakeMembershipRepo) Get(_ context.Context, userID, orgID string) (*domain.Membership, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := f.rows[membershipKey(userID, orgID)]; ok {
		clone := *m
		return &clone, nil
	}
	return nil, fmt.Errorf("not found: %w", repository.ErrNotFound)
}

func (f *fakeMembershipRepo) ListByUser(_ context.Context, userID string) ([]*domain.Membership, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Membership
	for _, m := range f.rows {
		if m.UserID == userID {
			clone := *m
			out = append(out, &clone)
		}
	}
	return out, nil
}

type fakeSessionRepo struct {
	mu   sync.Mutex
	rows map[string]*domain.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{rows: make(map[string]*domain.Session)}
}

func (f *fakeSessionRepo) Create(_ context.Context, s *domain.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[s.ID]; ok {
		return fmt.Errorf("duplicate: %w", repository.ErrDuplicateSession)
	}
	clone := *s
	f.rows[s.ID] = &clone
	return nil
}

func (f *fakeSessionRepo) Get(_ context.Context, id string) (*domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.rows[id]; ok {
		clone := *s
		return &clone, nil
	}
	return nil, fmt.Errorf("not found: %w", repository.ErrNotFound)
}

func (f *fakeSessionRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows, id)
	return nil
}

type fakeAccountRepo struct {
	mu    sync.Mutex
	rows  map[string]*domain.ExternalAccount
	saves int
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{rows: make(map[string]*domain.ExternalAccount)}
}

func accountKey(userID, orgID string) string {
	return userID + "/" + orgID
}

func (f *fakeAccountRepo) Save(_ context.Context, a *domain.ExternalAccount) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *a
	f.rows[accountKey(a.UserID, a.OrgID)] = &clone
	f.saves++
	return nil
}

func (f *fakeAccountRepo) Get(_ context.Context, userID, orgID string) (*domain.ExternalAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.rows[accountKey(userID, orgID)]; ok {
		clone := *a
		return &clone, nil
	}
	return nil, fmt.Errorf("not found: %w", repository.ErrNotFound)
}

func (f *fakeAccountRepo) Delete(_ context.Context, userID, orgID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows, accountKey(userID, orgID))
	return nil
}

// put stores an account directly, bypassing Save bookkeeping
func (f *fakeAccountRepo) put(a *domain.ExternalAccount) {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *a
	f.rows[accountKey(a.UserID, a.OrgID)] = &clone
}

func (f *fakeAccountRepo) saveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saves
}

type fakeStateRepo struct {
	mu   sync.Mutex
	rows map[string]*domain.OAuthState
}

func newFakeStateRepo() *fakeStateRepo {
	return &fakeStateRepo{rows: make(map[string]*domain.OAuthState)}
}

func (f *fakeStateRepo) Create(_ context.Context, s *domain.OAuthState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[s.State]; ok {
		return fmt.Errorf("duplicate: %w", repository.ErrDuplicateState)
	}
	clone := *s
	f.rows[s.State] = &clone
	return nil
}

func (f *fakeStateRepo) Consume(_ context.Context, state string) (*domain.OAuthState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.rows[state]
	if !ok {
		return nil, fmt.Errorf("not found: %w", repository.ErrNotFound)
	}
	delete(f.rows, state)
	clone := *s
	return &clone, nil
}

func (f *fakeStateRepo) DeleteExpired(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var removed int64
	now := time.Now()
	for k, s := range f.rows {
		if now.After(s.ExpiresAt) {
			delete(f.rows, k)
			removed++
		}
	}
	return removed, nil
}

// fakeProvider counts token-endpoint invocations and can be programmed to
// fail refreshes.
type fakeProvider struct {
	exchangeCalls atomic.Int64
	refreshCalls  atomic.Int64
	refreshErr    error
	lifetime      time.Duration
	mu            sync.Mutex
	serial        int
}

func newFakeProvider(lifetime time.Duration) *fakeProvider {
	return &fakeProvider{lifetime: lifetime}
}

func (p *fakeProvider) AuthorizationURL(state string) string {
	return "https://provider.example.com/oauth/authorize?state=" + state
}

func (p *fakeProvider) Exchange(_ context.Context, code string) (*domain.TokenPair, error) {
	p.exchangeCalls.Add(1)
	return &domain.TokenPair{
		AccessToken:  "access-for-" + code,
		RefreshToken: "refresh-for-" + code,
		ExpiresAt:    time.Now().Add(p.lifetime),
		Scopes:       "read write",
	}, nil
}

func (p *fakeProvider) Refresh(_ context.Context, refreshToken string) (*domain.TokenPair, error) {
	p.refreshCalls.Add(1)
	if p.refreshErr != nil {
		return nil, p.refreshErr
	}
	p.mu.Lock()
	p.serial++
	serial := p.serial
	p.mu.Unlock()
	return &domain.TokenPair{
		AccessToken:  fmt.Sprintf("refreshed-access-%d", serial),
		RefreshToken: refreshToken,
		ExpiresAt:    time.Now().Add(p.lifetime),
		Scopes:       "read write",
	}, nil
}
