package core

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// StatsCacheKey is where the requisition dashboard numbers are cached.
const StatsCacheKey = "stats:requisitions"

// Defaults used when ServiceOptions leaves a field zero.
const (
	DefaultPreviewTTL = 30 * time.Minute
	DefaultStatsTTL   = 5 * time.Minute
)

// ServiceOptions tunes the service. Zero values select defaults.
type ServiceOptions struct {
	MaxConcurrentImports int
	ImportWait           time.Duration
	MaxFileSize          int64
	PreviewTTL           time.Duration
	StatsTTL             time.Duration
}

// Service provides the business operations over a Store.
type Service struct {
	store    Store
	cache    Cache
	limiter  *ImportLimiter
	previews *previewStore
	opts     ServiceOptions

	now func() time.Time
}

// NewService creates a Service. cache may be nil to disable caching.
func NewService(store Store, cache Cache, opts ServiceOptions) *Service {
	if opts.PreviewTTL <= 0 {
		opts.PreviewTTL = DefaultPreviewTTL
	}
	if opts.StatsTTL <= 0 {
		opts.StatsTTL = DefaultStatsTTL
	}

	return &Service{
		store:    store,
		cache:    cache,
		limiter:  NewImportLimiter(opts.MaxConcurrentImports, opts.ImportWait),
		previews: newPreviewStore(),
		opts:     opts,
		now:      time.Now,
	}
}

// Limiter exposes the import limiter for shutdown draining.
func (s *Service) Limiter() *ImportLimiter {
	return s.limiter
}

// Ping checks the store connection.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// CurrentUser returns the user attached to ctx.
func (s *Service) CurrentUser(ctx context.Context) (*User, error) {
	u := UserFromContext(ctx)
	if u == nil {
		return nil, ErrUnauthenticated
	}
	return u, nil
}

// Authenticate resolves a bearer token to its user.
func (s *Service) Authenticate(ctx context.Context, token string) (User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return User{}, ErrUnauthenticated
	}

	u, err := s.store.UserByToken(ctx, token)
	if errors.Is(err, ErrNotFound) {
		return User{}, ErrUnauthenticated
	}
	if err != nil {
		return User{}, fmt.Errorf("authenticate: %w", err)
	}
	return u, nil
}

// CreateUser registers a user with a freshly generated API token. The token
// is only returned here.
func (s *Service) CreateUser(ctx context.Context, email, fullName string) (User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return User{}, invalidField("email", "a valid email is required", email)
	}

	token, err := newToken()
	if err != nil {
		return User{}, fmt.Errorf("generate token: %w", err)
	}

	u := User{
		ID:        uuid.New(),
		Email:     email,
		FullName:  strings.TrimSpace(fullName),
		APIToken:  token,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return User{}, fmt.Errorf("create user: %w", err)
	}

	slog.Info("user created", "user_id", u.ID, "email", u.Email)
	return u, nil
}

func newToken() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// invalidateStats drops the cached dashboard numbers after a write.
func (s *Service) invalidateStats(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, StatsCacheKey); err != nil {
		slog.Warn("stats cache invalidation failed", "error", err)
	}
}
