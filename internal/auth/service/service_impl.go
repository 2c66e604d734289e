package service

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/smallbiznis/tailorbook/internal/auth/domain"
	"github.com/smallbiznis/tailorbook/internal/auth/password"
	"github.com/smallbiznis/tailorbook/internal/clock"
	"github.com/smallbiznis/tailorbook/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Cfg      config.Config
	Log      *zap.Logger
	Clock    clock.Clock
	Sessions domain.SessionRepository
}

type Service struct {
	enabled      bool
	username     string
	passwordHash string
	ttl          time.Duration

	clock    clock.Clock
	sessions domain.SessionRepository
	log      *zap.Logger
}

func New(p Params) (domain.Service, error) {
	authCfg := p.Cfg.Auth
	if authCfg.Enabled && authCfg.PasswordHash == "" && authCfg.Password == "" {
		return nil, errors.New("auth enabled without AUTH_PASSWORD_HASH or AUTH_PASSWORD")
	}
	ttl := authCfg.SessionTTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}

	log := p.Log.Named("auth.service")
	passwordHash := authCfg.PasswordHash
	if authCfg.Enabled && passwordHash == "" {
		log.Warn("shared credential configured in plain text, prefer AUTH_PASSWORD_HASH")
		hashed, err := password.Hash(authCfg.Password)
		if err != nil {
			return nil, err
		}
		passwordHash = hashed
	}

	return &Service{
		enabled:      authCfg.Enabled,
		username:     strings.TrimSpace(authCfg.Username),
		passwordHash: passwordHash,
		ttl:          ttl,
		clock:        p.Clock,
		sessions:     p.Sessions,
		log:          log,
	}, nil
}

func (s *Service) Enabled() bool {
	return s.enabled
}

func (s *Service) Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResult, error) {
	if !s.enabled {
		return nil, domain.ErrAuthDisabled
	}
	if !s.checkCredentials(strings.TrimSpace(req.Username), req.Password) {
		s.log.Info("login rejected")
		return nil, domain.ErrInvalidCredentials
	}

	rawToken := uuid.NewString()
	now := s.clock.Now()
	session := domain.Session{
		TokenHash: hashToken(rawToken),
		Username:  s.username,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.sessions.Save(ctx, session, s.ttl); err != nil {
		return nil, err
	}

	s.log.Info("login accepted", zap.Time("expires_at", session.ExpiresAt))
	return &domain.LoginResult{RawToken: rawToken, ExpiresAt: session.ExpiresAt}, nil
}

func (s *Service) Logout(ctx context.Context, rawToken string) error {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return nil
	}
	return s.sessions.Delete(ctx, hashToken(rawToken))
}

func (s *Service) Authenticate(ctx context.Context, rawToken string) (*domain.Session, error) {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return nil, domain.ErrInvalidSession
	}

	hash := hashToken(rawToken)
	session, err := s.sessions.Find(ctx, hash)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, domain.ErrSessionNotFound
	}
	if session.Expired(s.clock.Now()) {
		_ = s.sessions.Delete(ctx, hash)
		return nil, domain.ErrSessionExpired
	}
	return session, nil
}

func (s *Service) checkCredentials(username, secret string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1
	passOK := password.Verify(secret, s.passwordHash)
	return userOK && passOK
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
