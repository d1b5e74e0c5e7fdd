package transport

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

//go:generate moq -out conn_mock.go . Conn Dialer

// Conn одно живое соединение; один кадр - одно сообщение
type Conn interface {
	// ReadMessage блокируется до следующего кадра с данными
	ReadMessage() ([]byte, error)

	// WriteMessage отправляет один текстовый кадр
	WriteMessage(data []byte) error

	// Close закрывает соединение; повторный вызов безопасен
	Close() error
}

// Dialer открывает соединение по URL
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// WebsocketDialer реализует Dialer поверх gorilla/websocket
type WebsocketDialer struct {
	dialer       *websocket.Dialer
	writeTimeout time.Duration
}

// NewWebsocketDialer creates a dialer with the given per-write deadline.
func NewWebsocketDialer(handshakeTimeout, writeTimeout time.Duration) *WebsocketDialer {
	d := *websocket.DefaultDialer
	d.HandshakeTimeout = handshakeTimeout
	return &WebsocketDialer{
		dialer:       &d,
		writeTimeout: writeTimeout,
	}
}

// Dial открывает websocket соединение
func (d *WebsocketDialer) Dial(ctx context.Context, rawURL string) (Conn, error) {
	c, resp, err := d.dialer.DialContext(ctx, rawURL, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("failed to dial (status %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("failed to dial: %w", err)
	}
	return &wsConn{conn: c, writeTimeout: d.writeTimeout}, nil
}

type wsConn struct {
	conn         *websocket.Conn
	writeTimeout time.Duration
}

func (c *wsConn) ReadMessage() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	return data, err
}

func (c *wsConn) WriteMessage(data []byte) error {
	if c.writeTimeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
			return err
		}
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *wsConn) Close() error {
	// вежливо сообщаем серверу о закрытии; ошибки игнорируем
	_ = c.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	return c.conn.Close()
}

// BuildURL собирает адрес сессии: {host}/ws/projects/{projectID}?token={token}.
// host может быть с http(s) схемой - она заменяется на ws(s).
func BuildURL(host, projectID, token string) (string, error) {
	if projectID == "" {
		return "", fmt.Errorf("project id is required")
	}
	u, err := url.Parse(strings.TrimRight(host, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid host %q: %w", host, err)
	}

	switch u.Scheme {
	case "ws", "wss":
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q in host %q", u.Scheme, host)
	}
	if u.Host == "" {
		return "", fmt.Errorf("host is empty in %q", host)
	}

	u = u.JoinPath("ws", "projects", projectID)
	q := url.Values{}
	q.Set("token", token)
	u.RawQuery = q.Encode()

	return u.String(), nil
}
