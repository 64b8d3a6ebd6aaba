package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"cartify/internal/domain"
	"cartify/internal/repository/blob"
	"go.uber.org/zap"
)

type blobStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

type authenticator interface {
	Login(ctx context.Context, email, password string) (domain.User, error)
}

// Service holds the logged in user. It is the token source of the remote
// client, so it must not call back into anything that needs a token.
type Service struct {
	store  blobStore
	auth   authenticator
	logger *zap.Logger

	mu   sync.RWMutex
	user *domain.User
}

func New(store blobStore, auth authenticator, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, auth: auth, logger: logger}
}

// Load restores a previously persisted user. A missing blob, a store read
// failure or a corrupt blob leaves the session logged out; failures are
// only logged.
func (s *Service) Load(ctx context.Context) {
	raw, err := s.store.Get(ctx, blob.KeyUser)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn("session: user blob unreadable, starting logged out", zap.Error(err))
		}
		return
	}
	var u domain.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil || u.Token == "" {
		s.logger.Warn("session: ignoring unreadable user blob", zap.Error(err))
		return
	}
	s.mu.Lock()
	s.user = &u
	s.mu.Unlock()
}

func (s *Service) Login(ctx context.Context, email, password string) (domain.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return domain.User{}, fmt.Errorf("%w: email and password required", domain.ErrValidation)
	}
	u, err := s.auth.Login(ctx, email, password)
	if err != nil {
		return domain.User{}, err
	}

	s.mu.Lock()
	s.user = &u
	s.mu.Unlock()

	data, err := json.Marshal(u)
	if err == nil {
		err = s.store.Set(ctx, blob.KeyUser, string(data))
	}
	if err != nil {
		s.logger.Warn("session: persist user failed", zap.String("user_id", u.ID), zap.Error(err))
	}
	return u, nil
}

func (s *Service) Logout(ctx context.Context) {
	s.mu.Lock()
	s.user = nil
	s.mu.Unlock()
	if err := s.store.Remove(ctx, blob.KeyUser); err != nil {
		s.logger.Warn("session: remove user failed", zap.Error(err))
	}
}

// Current returns the logged in user, if any.
func (s *Service) Current() (domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return domain.User{}, false
	}
	return *s.user, true
}

// Token returns the bearer token of the current user or "".
func (s *Service) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return ""
	}
	return s.user.Token
}
