package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/layoutsync/internal/client/auth"
	"github.com/iudanet/layoutsync/internal/client/collab"
	"github.com/iudanet/layoutsync/internal/client/iocli"
	"github.com/iudanet/layoutsync/internal/client/storage"
	"github.com/iudanet/layoutsync/internal/client/transport"
)

// syncBuffer собирает вывод; printer может писать из других горутин
type syncBuffer struct {
	b  strings.Builder
	mu sync.Mutex
}

func (s *syncBuffer) write(str string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.b.WriteString(str)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

// newTestIO возвращает IOMock, который отдает inputs по очереди, затем io.EOF
func newTestIO(inputs ...string) (*iocli.IOMock, *syncBuffer) {
	out := &syncBuffer{}
	var mu sync.Mutex
	next := func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		if len(inputs) == 0 {
			return "", io.EOF
		}
		line := inputs[0]
		inputs = inputs[1:]
		return line, nil
	}
	return &iocli.IOMock{
		PrintlnFunc: func(a ...any) { out.write(fmt.Sprintln(a...)) },
		PrintfFunc:  func(format string, a ...any) { out.write(fmt.Sprintf(format, a...)) },
		ReadInputFunc: func(prompt string) (string, error) {
			return next()
		},
		ReadPasswordFunc: func(prompt string) (string, error) {
			return next()
		},
		WriteFunc: func(p []byte) (int, error) {
			out.write(string(p))
			return len(p), nil
		},
	}, out
}

func writeTokenFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "token.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// TestExplicitToken_FromEnvVar проверяет чтение токена из переменной окружения
func TestExplicitToken_FromEnvVar(t *testing.T) {
	t.Setenv(TokenEnv, "env-token")
	c := New(Options{}, Deps{})

	token, err := c.explicitToken()

	require.NoError(t, err)
	assert.Equal(t, "env-token", token)
}

// TestExplicitToken_FromFile проверяет чтение токена из файла
func TestExplicitToken_FromFile(t *testing.T) {
	t.Setenv(TokenEnv, "")
	c := New(Options{Tokens: Tokens{FromFile: writeTokenFile(t, "file-token\n")}}, Deps{})

	token, err := c.explicitToken()

	require.NoError(t, err)
	assert.Equal(t, "file-token", token)
}

func TestExplicitToken_EmptyFile(t *testing.T) {
	t.Setenv(TokenEnv, "")
	c := New(Options{Tokens: Tokens{FromFile: writeTokenFile(t, "  \n")}}, Deps{})

	_, err := c.explicitToken()
	assert.ErrorContains(t, err, "token file is empty")
}

func TestExplicitToken_MissingFile(t *testing.T) {
	t.Setenv(TokenEnv, "")
	c := New(Options{Tokens: Tokens{FromFile: filepath.Join(t.TempDir(), "nope")}}, Deps{})

	_, err := c.explicitToken()
	assert.ErrorContains(t, err, "failed to read token file")
}

// TestExplicitToken_Priority env > file > флаг
func TestExplicitToken_Priority(t *testing.T) {
	t.Setenv(TokenEnv, "")
	opts := Options{Tokens: Tokens{FromFile: writeTokenFile(t, "file-token"), FromArgs: "arg-token"}}
	c := New(opts, Deps{})

	token, err := c.explicitToken()
	require.NoError(t, err)
	assert.Equal(t, "file-token", token)

	t.Setenv(TokenEnv, "env-token")
	token, err = c.explicitToken()
	require.NoError(t, err)
	assert.Equal(t, "env-token", token)

	t.Setenv(TokenEnv, "")
	c.opts.Tokens.FromFile = ""
	token, err = c.explicitToken()
	require.NoError(t, err)
	assert.Equal(t, "arg-token", token)
}

func TestRun_UnknownCommand(t *testing.T) {
	out, _ := newTestIO()
	c := New(Options{}, Deps{IO: out})

	assert.ErrorIs(t, c.Run(context.Background(), "frobnicate", nil), ErrUnknownCommand)
	assert.ErrorContains(t, c.Run(context.Background(), "edit", nil), "missing project id")
}

func TestLogin_WithExplicitToken(t *testing.T) {
	t.Setenv(TokenEnv, "")
	out, buf := newTestIO()
	authMock := &auth.AuthenticatorMock{
		LoginFunc: func(ctx context.Context, server, token string) (*storage.AuthData, error) {
			return &storage.AuthData{Server: server, Token: token, UserID: "u-1", DisplayName: "Alice"}, nil
		},
	}
	c := New(Options{Server: "ws://plans", Tokens: Tokens{FromArgs: "tok"}}, Deps{IO: out, Auth: authMock})

	require.NoError(t, c.Run(context.Background(), "login", nil))

	require.Len(t, authMock.LoginCalls(), 1)
	assert.Equal(t, "ws://plans", authMock.LoginCalls()[0].Server)
	assert.Equal(t, "tok", authMock.LoginCalls()[0].Token)
	assert.Contains(t, buf.String(), "✓ Token saved!")
	assert.Contains(t, buf.String(), "User: Alice (u-1)")
	assert.Empty(t, out.ReadPasswordCalls())
}

func TestLogin_PromptsForToken(t *testing.T) {
	t.Setenv(TokenEnv, "")
	out, buf := newTestIO("typed-token")
	authMock := &auth.AuthenticatorMock{
		LoginFunc: func(ctx context.Context, server, token string) (*storage.AuthData, error) {
			return &storage.AuthData{Server: server, Token: token}, nil
		},
	}
	c := New(Options{Server: "ws://plans"}, Deps{IO: out, Auth: authMock})

	require.NoError(t, c.Run(context.Background(), "login", nil))

	require.Len(t, out.ReadPasswordCalls(), 1)
	assert.Equal(t, "typed-token", authMock.LoginCalls()[0].Token)
	assert.Contains(t, buf.String(), "token is not a JWT")
}

func TestLogin_Error(t *testing.T) {
	t.Setenv(TokenEnv, "")
	out, _ := newTestIO()
	authMock := &auth.AuthenticatorMock{
		LoginFunc: func(ctx context.Context, server, token string) (*storage.AuthData, error) {
			return nil, auth.ErrTokenExpired
		},
	}
	c := New(Options{Tokens: Tokens{FromArgs: "old"}}, Deps{IO: out, Auth: authMock})

	err := c.Run(context.Background(), "login", nil)
	assert.ErrorIs(t, err, auth.ErrTokenExpired)
}

func TestLogout(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		want    string
		wantErr bool
	}{
		{name: "deleted", want: "✓ Logout successful!"},
		{name: "nothing saved", err: auth.ErrNoToken, want: "No saved token."},
		{name: "storage failure", err: errors.New("disk"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, buf := newTestIO()
			authMock := &auth.AuthenticatorMock{
				LogoutFunc: func(ctx context.Context) error { return tt.err },
			}
			c := New(Options{}, Deps{IO: out, Auth: authMock})

			err := c.Run(context.Background(), "logout", nil)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

func TestStatus(t *testing.T) {
	past := time.Now().Add(-time.Hour).Unix()
	future := time.Now().Add(time.Hour).Unix()

	tests := []struct {
		name string
		data *storage.AuthData
		err  error
		want []string
	}{
		{
			name: "no token",
			err:  auth.ErrNoToken,
			want: []string{"Status: No saved token"},
		},
		{
			name: "valid",
			data: &storage.AuthData{Server: "ws://plans", UserID: "u-1", ExpiresAt: future},
			want: []string{"Status: Token saved", "Server: ws://plans", "Time remaining:"},
		},
		{
			name: "expired",
			data: &storage.AuthData{Server: "ws://plans", ExpiresAt: past},
			err:  auth.ErrTokenExpired,
			want: []string{"Token has expired"},
		},
		{
			name: "opaque",
			data: &storage.AuthData{Server: "ws://plans"},
			want: []string{"never (no exp claim)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, buf := newTestIO()
			authMock := &auth.AuthenticatorMock{
				CurrentFunc: func(ctx context.Context) (*storage.AuthData, error) { return tt.data, tt.err },
			}
			c := New(Options{}, Deps{IO: out, Auth: authMock})

			require.NoError(t, c.Run(context.Background(), "status", nil))
			for _, w := range tt.want {
				assert.Contains(t, buf.String(), w)
			}
		})
	}
}

func TestResolveSession(t *testing.T) {
	t.Run("explicit token skips storage", func(t *testing.T) {
		t.Setenv(TokenEnv, "env-token")
		authMock := &auth.AuthenticatorMock{
			DescribeFunc: func(server, token string) (*storage.AuthData, error) {
				return &storage.AuthData{Server: server, Token: token}, nil
			},
		}
		c := New(Options{Server: "ws://plans"}, Deps{Auth: authMock})

		got, err := c.resolveSession(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "env-token", got.Token)
		assert.Empty(t, authMock.CurrentCalls())
	})

	t.Run("stored token", func(t *testing.T) {
		t.Setenv(TokenEnv, "")
		stored := &storage.AuthData{Server: "ws://saved", Token: "saved"}
		authMock := &auth.AuthenticatorMock{
			CurrentFunc: func(ctx context.Context) (*storage.AuthData, error) { return stored, nil },
		}
		c := New(Options{}, Deps{Auth: authMock})

		got, err := c.resolveSession(context.Background())
		require.NoError(t, err)
		assert.Equal(t, stored, got)
		assert.Equal(t, "ws://saved", c.serverFor(got))
	})

	t.Run("stored token expired", func(t *testing.T) {
		t.Setenv(TokenEnv, "")
		authMock := &auth.AuthenticatorMock{
			CurrentFunc: func(ctx context.Context) (*storage.AuthData, error) {
				return &storage.AuthData{Token: "old"}, auth.ErrTokenExpired
			},
		}
		c := New(Options{}, Deps{Auth: authMock})

		_, err := c.resolveSession(context.Background())
		assert.ErrorContains(t, err, "layoutsync login")
	})

	t.Run("prompt fallback", func(t *testing.T) {
		t.Setenv(TokenEnv, "")
		out, _ := newTestIO("typed")
		authMock := &auth.AuthenticatorMock{
			CurrentFunc: func(ctx context.Context) (*storage.AuthData, error) { return nil, auth.ErrNoToken },
			DescribeFunc: func(server, token string) (*storage.AuthData, error) {
				return &storage.AuthData{Server: server, Token: token}, nil
			},
		}
		c := New(Options{}, Deps{IO: out, Auth: authMock})

		got, err := c.resolveSession(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "typed", got.Token)
	})

	t.Run("empty prompt", func(t *testing.T) {
		t.Setenv(TokenEnv, "")
		out, _ := newTestIO("")
		authMock := &auth.AuthenticatorMock{
			CurrentFunc: func(ctx context.Context) (*storage.AuthData, error) { return nil, auth.ErrNoToken },
		}
		c := New(Options{}, Deps{IO: out, Auth: authMock})

		_, err := c.resolveSession(context.Background())
		assert.ErrorContains(t, err, "token cannot be empty")
	})
}

func TestEdit_DialsProjectWithToken(t *testing.T) {
	t.Setenv(TokenEnv, "env-token")
	out, buf := newTestIO("status", "quit")
	authMock := &auth.AuthenticatorMock{
		DescribeFunc: func(server, token string) (*storage.AuthData, error) {
			return &storage.AuthData{Server: server, Token: token, DisplayName: "Alice"}, nil
		},
	}
	dialed := make(chan struct{})
	var once sync.Once
	dialer := &transport.DialerMock{
		DialFunc: func(ctx context.Context, url string) (transport.Conn, error) {
			once.Do(func() { close(dialed) })
			return nil, errors.New("connection refused")
		},
	}
	// первая команда читается только после попытки подключения
	read := out.ReadInputFunc
	out.ReadInputFunc = func(prompt string) (string, error) {
		select {
		case <-dialed:
		case <-time.After(5 * time.Second):
		}
		return read(prompt)
	}
	cfg := collab.DefaultConfig()
	cfg.PresenceInterval = 0
	cfg.Transport.InitialBackoff = time.Hour
	c := New(Options{Server: "ws://plans", Collab: cfg}, Deps{IO: out, Auth: authMock, Dialer: dialer})

	require.NoError(t, c.Run(context.Background(), "edit", []string{"p1"}))

	require.NotEmpty(t, dialer.DialCalls())
	assert.Contains(t, dialer.DialCalls()[0].URL, "p1")
	assert.Contains(t, buf.String(), "=== Project p1 ===")
	assert.Contains(t, buf.String(), "Project: p1")
}

func TestEdit_InvalidProjectID(t *testing.T) {
	t.Setenv(TokenEnv, "env-token")
	out, _ := newTestIO()
	authMock := &auth.AuthenticatorMock{
		DescribeFunc: func(server, token string) (*storage.AuthData, error) {
			return &storage.AuthData{Server: server, Token: token}, nil
		},
	}
	c := New(Options{Collab: collab.DefaultConfig()}, Deps{IO: out, Auth: authMock})

	err := c.Run(context.Background(), "edit", []string{"../etc"})
	assert.ErrorContains(t, err, "failed to create session")
}
