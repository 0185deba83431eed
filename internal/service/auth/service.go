// Package auth logs operators in against the configured accounts.
package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jwalitptl/clinic-api/internal/config"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/pkg/auth"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/logger"
	"github.com/jwalitptl/clinic-api/pkg/security"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountLocked      = errors.New("account is locked, please try again later")
)

const (
	maxLoginAttempts = 5
	lockoutDuration  = 15 * time.Minute
)

type attempts struct {
	failures int
	last     time.Time
}

type Service struct {
	operators map[string]string
	passwords *security.Passwords
	tokens    *auth.TokenService
	logger    *logger.Logger
	now       func() time.Time

	mu       sync.Mutex
	failures map[string]*attempts
}

func NewService(operators []config.Operator, passwords *security.Passwords, tokens *auth.TokenService, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	byName := make(map[string]string, len(operators))
	for _, op := range operators {
		byName[op.Username] = op.PasswordHash
	}
	return &Service{
		operators: byName,
		passwords: passwords,
		tokens:    tokens,
		logger:    log.With("auth"),
		now:       time.Now,
		failures:  make(map[string]*attempts),
	}
}

// locked must be called with mu held.
func (s *Service) locked(username string) bool {
	a, ok := s.failures[username]
	if !ok || a.failures < maxLoginAttempts {
		return false
	}
	if s.now().Sub(a.last) >= lockoutDuration {
		delete(s.failures, username)
		return false
	}
	return true
}

// Login checks the password and issues an access token. Five failures in a
// row lock the username for fifteen minutes.
func (s *Service) Login(ctx context.Context, username, password string) (*model.TokenResponse, error) {
	s.mu.Lock()
	if s.locked(username) {
		s.mu.Unlock()
		s.logger.Warn("Login rejected for locked account", "username", username)
		return nil, apperrors.Unauthorized(ErrAccountLocked)
	}
	s.mu.Unlock()

	hash, known := s.operators[username]
	if !known || !s.passwords.Verify(hash, password) {
		s.mu.Lock()
		a, ok := s.failures[username]
		if !ok {
			a = &attempts{}
			s.failures[username] = a
		}
		a.failures++
		a.last = s.now()
		s.mu.Unlock()

		s.logger.Warn("Login failed", "username", username)
		return nil, apperrors.Unauthorized(ErrInvalidCredentials)
	}

	s.mu.Lock()
	delete(s.failures, username)
	s.mu.Unlock()

	token, err := s.tokens.Generate(username)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	s.logger.Info("Operator logged in", "username", username)
	return &model.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.tokens.TTL().Seconds()),
	}, nil
}

func (s *Service) ValidateToken(_ context.Context, token string) (*auth.Claims, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return nil, apperrors.Unauthorized(err)
	}
	return claims, nil
}
