package usecase

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/DCloudHub/station-onboarding/internal/domain"
	"github.com/DCloudHub/station-onboarding/internal/security"
)

// AdminService authenticates dashboard operators and manages their bearer
// tokens. Tokens live in memory; restarting the server logs everyone out.
type AdminService struct {
	mu     sync.Mutex
	store  domain.AdminStore
	tokens map[string]tokenEntry
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time
}

type tokenEntry struct {
	username  string
	expiresAt time.Time
}

// NewAdminService creates the admin auth service.
func NewAdminService(store domain.AdminStore, ttl time.Duration, logger *slog.Logger) *AdminService {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &AdminService{
		store:  store,
		tokens: make(map[string]tokenEntry),
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

// Bootstrap creates the account if it does not exist yet. Called once at
// startup with the configured credentials; a no-op when the account exists
// or when no bootstrap password is configured.
func (a *AdminService) Bootstrap(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return nil
	}
	if _, err := a.store.GetAdmin(ctx, username); err == nil {
		return nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return domain.WrapOp("AdminService.Bootstrap", err)
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return domain.WrapOp("AdminService.Bootstrap", err)
	}
	if err := a.store.CreateAdmin(ctx, &domain.AdminUser{
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    a.now(),
	}); err != nil {
		return domain.WrapOp("AdminService.Bootstrap", err)
	}
	a.logger.Info("admin account bootstrapped", "username", username)
	return nil
}

// Login verifies credentials and issues a bearer token. Unknown users and
// wrong passwords are indistinguishable to the caller.
func (a *AdminService) Login(ctx context.Context, username, password string) (string, error) {
	user, err := a.store.GetAdmin(ctx, username)
	if err != nil {
		return "", domain.NewDomainError("AdminService.Login", domain.ErrAuthInvalid, "")
	}

	ok, err := security.VerifyPassword(user.PasswordHash, password)
	if err != nil || !ok {
		a.logger.Warn("admin login rejected", "username", username)
		return "", domain.NewDomainError("AdminService.Login", domain.ErrAuthInvalid, "")
	}

	token, err := newToken()
	if err != nil {
		return "", domain.WrapOp("AdminService.Login", err)
	}

	a.mu.Lock()
	a.tokens[token] = tokenEntry{username: username, expiresAt: a.now().Add(a.ttl)}
	a.mu.Unlock()

	a.logger.Info("admin logged in", "username", username)
	return token, nil
}

// Authenticate resolves a bearer token to its username.
func (a *AdminService) Authenticate(token string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	entry, ok := a.tokens[token]
	if !ok {
		return "", domain.NewDomainError("AdminService.Authenticate", domain.ErrAuthInvalid, "")
	}
	if a.now().After(entry.expiresAt) {
		delete(a.tokens, token)
		return "", domain.NewDomainError("AdminService.Authenticate", domain.ErrTokenExpired, "")
	}
	return entry.username, nil
}

// Logout invalidates a token. Unknown tokens are a no-op.
func (a *AdminService) Logout(token string) {
	a.mu.Lock()
	delete(a.tokens, token)
	a.mu.Unlock()
}

// SweepTokens drops expired tokens and returns how many were removed.
func (a *AdminService) SweepTokens() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	removed := 0
	now := a.now()
	for token, entry := range a.tokens {
		if now.After(entry.expiresAt) {
			delete(a.tokens, token)
			removed++
		}
	}
	return removed
}

func newToken() (string, error) {
	var b [32]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}
