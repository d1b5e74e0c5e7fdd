package auth

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/layoutsync/internal/client/storage"
	"github.com/iudanet/layoutsync/internal/client/storage/boltdb"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func newTestService(t *testing.T) (*Service, *boltdb.Storage) {
	t.Helper()
	store, err := boltdb.New(context.Background(), filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	svc := NewService(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.now = func() time.Time { return fixedNow }
	return svc, store
}

func TestParseClaims(t *testing.T) {
	exp := fixedNow.Add(time.Hour).Truncate(time.Second)

	tests := []struct {
		name     string
		claims   jwt.MapClaims
		wantID   string
		wantName string
		wantExp  time.Time
	}{
		{
			name:     "sub and name",
			claims:   jwt.MapClaims{"sub": "u-1", "name": "Alice", "exp": exp.Unix()},
			wantID:   "u-1",
			wantName: "Alice",
			wantExp:  exp,
		},
		{
			name:     "user_id and username",
			claims:   jwt.MapClaims{"user_id": "u-2", "username": "bob"},
			wantID:   "u-2",
			wantName: "bob",
		},
		{
			name:   "empty claims",
			claims: jwt.MapClaims{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseClaims(signToken(t, tt.claims))
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, got.UserID)
			assert.Equal(t, tt.wantName, got.DisplayName)
			assert.True(t, tt.wantExp.Equal(got.ExpiresAt), "exp %v != %v", got.ExpiresAt, tt.wantExp)
		})
	}
}

func TestParseClaims_Opaque(t *testing.T) {
	_, err := ParseClaims("dev-token")
	assert.ErrorIs(t, err, ErrNotJWT)
}

func TestService_LoginAndCurrent(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	token := signToken(t, jwt.MapClaims{"sub": "u-1", "name": "Alice", "exp": fixedNow.Add(time.Hour).Unix()})
	saved, err := svc.Login(ctx, "ws://localhost:8000", token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", saved.UserID)
	assert.Equal(t, "Alice", saved.DisplayName)

	current, err := svc.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, token, current.Token)
	assert.Equal(t, "ws://localhost:8000", current.Server)
}

func TestService_LoginOpaqueToken(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	saved, err := svc.Login(ctx, "ws://localhost:8000", "  dev-token \n")
	require.NoError(t, err)
	assert.Equal(t, "dev-token", saved.Token)
	assert.Empty(t, saved.UserID)
	assert.Zero(t, saved.ExpiresAt)

	current, err := svc.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "dev-token", current.Token)
}

func TestService_LoginRejectsExpired(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	token := signToken(t, jwt.MapClaims{"sub": "u-1", "exp": fixedNow.Add(-time.Minute).Unix()})
	_, err := svc.Login(ctx, "ws://localhost:8000", token)
	assert.ErrorIs(t, err, ErrTokenExpired)

	_, err = svc.Current(ctx)
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestService_LoginEmpty(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Login(context.Background(), "ws://localhost:8000", "   ")
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestService_CurrentExpired(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	require.NoError(t, store.SaveAuth(ctx, &storage.AuthData{
		Server:    "ws://localhost:8000",
		Token:     "stale",
		ExpiresAt: fixedNow.Add(-time.Hour).Unix(),
	}))

	auth, err := svc.Current(ctx)
	assert.ErrorIs(t, err, ErrTokenExpired)
	require.NotNil(t, auth)
	assert.Equal(t, "stale", auth.Token)
}

func TestService_Logout(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.Login(ctx, "ws://localhost:8000", "dev-token")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx))

	_, err = svc.Current(ctx)
	assert.ErrorIs(t, err, ErrNoToken)
}
