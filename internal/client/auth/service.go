// Package auth управляет bearer токеном клиента: сохранение, проверка срока
// действия и извлечение сведений о пользователе из JWT claims.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/iudanet/layoutsync/internal/client/storage"
)

// Ошибки авторизации
var (
	// ErrNoToken indicates that no token is stored or supplied
	ErrNoToken = errors.New("no token")

	// ErrTokenExpired indicates that the token exp claim is in the past
	ErrTokenExpired = errors.New("token expired")

	// ErrNotJWT indicates that the token is opaque and carries no claims
	ErrNotJWT = errors.New("token is not a JWT")
)

// Service хранит токен в storage.AuthStorage
type Service struct {
	store  storage.AuthStorage
	logger *slog.Logger
	now    func() time.Time
}

// NewService создает сервис авторизации
func NewService(store storage.AuthStorage, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Describe возвращает данные авторизации для токена без сохранения.
// Непрозрачный (не JWT) токен допустим: сведения о пользователе тогда пусты.
func (s *Service) Describe(server, token string) (*storage.AuthData, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrNoToken
	}

	auth := &storage.AuthData{Server: server, Token: token}

	claims, err := ParseClaims(token)
	switch {
	case err == nil:
		if claims.Expired(s.now()) {
			return nil, fmt.Errorf("%w at %s", ErrTokenExpired, claims.ExpiresAt.Format(time.RFC3339))
		}
		auth.UserID = claims.UserID
		auth.DisplayName = claims.DisplayName
		if !claims.ExpiresAt.IsZero() {
			auth.ExpiresAt = claims.ExpiresAt.Unix()
		}
	case isNotJWT(err):
		s.logger.Debug("Token is opaque, user details unknown")
	default:
		return nil, err
	}

	return auth, nil
}

// Login проверяет токен и сохраняет его
func (s *Service) Login(ctx context.Context, server, token string) (*storage.AuthData, error) {
	auth, err := s.Describe(server, token)
	if err != nil {
		return nil, err
	}

	if err := s.store.SaveAuth(ctx, auth); err != nil {
		return nil, fmt.Errorf("failed to save token: %w", err)
	}

	s.logger.Info("Token saved", "user_id", auth.UserID, "server", server)
	return auth, nil
}

// Current возвращает сохраненный токен, если он есть и не истек
func (s *Service) Current(ctx context.Context) (*storage.AuthData, error) {
	auth, err := s.store.GetAuth(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrAuthNotFound) {
			return nil, ErrNoToken
		}
		return nil, fmt.Errorf("failed to load token: %w", err)
	}
	if auth.Token == "" {
		return nil, ErrNoToken
	}
	if auth.ExpiresAt != 0 && s.now().After(time.Unix(auth.ExpiresAt, 0)) {
		return auth, ErrTokenExpired
	}
	return auth, nil
}

// Logout удаляет сохраненный токен
func (s *Service) Logout(ctx context.Context) error {
	if err := s.store.DeleteAuth(ctx); err != nil {
		if errors.Is(err, storage.ErrAuthNotFound) {
			return ErrNoToken
		}
		return fmt.Errorf("failed to delete local auth data: %w", err)
	}
	return nil
}
