package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DCloudHub/station-onboarding/internal/domain"
)

type memAdminStore struct {
	mu    sync.Mutex
	users map[string]*domain.AdminUser
}

func newMemAdminStore() *memAdminStore {
	return &memAdminStore{users: make(map[string]*domain.AdminUser)}
}

func (m *memAdminStore) GetAdmin(_ context.Context, username string) (*domain.AdminUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[username]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return u, nil
}

func (m *memAdminStore) CreateAdmin(_ context.Context, u *domain.AdminUser) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.Username]; ok {
		return domain.ErrDuplicate
	}
	m.users[u.Username] = u
	return nil
}

func newTestAdmin(t *testing.T) (*AdminService, *memAdminStore) {
	t.Helper()
	store := newMemAdminStore()
	svc := NewAdminService(store, time.Hour, newTestLogger())
	require.NoError(t, svc.Bootstrap(context.Background(), "admin", "hunter2secret"))
	return svc, store
}

func TestAdminBootstrapIdempotent(t *testing.T) {
	svc, store := newTestAdmin(t)

	first := store.users["admin"].PasswordHash
	require.NoError(t, svc.Bootstrap(context.Background(), "admin", "different"))
	assert.Equal(t, first, store.users["admin"].PasswordHash,
		"a second bootstrap must not overwrite the stored hash")

	// Empty credentials are skipped entirely.
	require.NoError(t, svc.Bootstrap(context.Background(), "", ""))
	assert.Len(t, store.users, 1)
}

func TestAdminLoginAndAuthenticate(t *testing.T) {
	svc, _ := newTestAdmin(t)

	token, err := svc.Login(context.Background(), "admin", "hunter2secret")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	username, err := svc.Authenticate(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", username)
}

func TestAdminLoginFailuresIndistinguishable(t *testing.T) {
	svc, _ := newTestAdmin(t)

	_, err1 := svc.Login(context.Background(), "admin", "wrong")
	_, err2 := svc.Login(context.Background(), "nobody", "hunter2secret")

	assert.ErrorIs(t, err1, domain.ErrAuthInvalid)
	assert.ErrorIs(t, err2, domain.ErrAuthInvalid)
	assert.Equal(t, err1.Error(), err2.Error())
}

func TestAdminTokenExpiry(t *testing.T) {
	svc, _ := newTestAdmin(t)
	token, err := svc.Login(context.Background(), "admin", "hunter2secret")
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	_, err = svc.Authenticate(token)
	assert.ErrorIs(t, err, domain.ErrTokenExpired)

	// A second lookup of the same token now reports it as unknown.
	_, err = svc.Authenticate(token)
	assert.ErrorIs(t, err, domain.ErrAuthInvalid)
}

func TestAdminLogout(t *testing.T) {
	svc, _ := newTestAdmin(t)
	token, err := svc.Login(context.Background(), "admin", "hunter2secret")
	require.NoError(t, err)

	svc.Logout(token)
	_, err = svc.Authenticate(token)
	assert.ErrorIs(t, err, domain.ErrAuthInvalid)

	svc.Logout("never-issued") // no-op
}

func TestAdminSweepTokens(t *testing.T) {
	svc, _ := newTestAdmin(t)
	t1, err := svc.Login(context.Background(), "admin", "hunter2secret")
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	t2, err := svc.Login(context.Background(), "admin", "hunter2secret")
	require.NoError(t, err)

	assert.Equal(t, 1, svc.SweepTokens())

	_, err = svc.Authenticate(t1)
	assert.ErrorIs(t, err, domain.ErrAuthInvalid)
	_, err = svc.Authenticate(t2)
	assert.NoError(t, err)
}
