package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims сведения о пользователе, извлеченные из bearer токена
type Claims struct {
	ExpiresAt   time.Time
	UserID      string
	DisplayName string
}

// Expired reports whether the token has an exp claim in the past.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// ParseClaims читает claims JWT без проверки подписи: ключа у клиента нет,
// подпись проверяет сервер при подключении. Нужны только id, имя и срок действия.
func ParseClaims(token string) (Claims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrNotJWT, err)
	}

	var out Claims
	if sub, err := claims.GetSubject(); err == nil && sub != "" {
		out.UserID = sub
	} else {
		out.UserID = stringClaim(claims, "user_id", "userId", "uid")
	}
	out.DisplayName = stringClaim(claims, "name", "display_name", "displayName", "username", "preferred_username")

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return Claims{}, fmt.Errorf("invalid exp claim: %w", err)
	}
	if exp != nil {
		out.ExpiresAt = exp.Time
	}

	return out, nil
}

func stringClaim(claims jwt.MapClaims, keys ...string) string {
	for _, k := range keys {
		if v, ok := claims[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// isNotJWT reports whether err came from a token that is not a JWT at all
func isNotJWT(err error) bool {
	return errors.Is(err, ErrNotJWT)
}
