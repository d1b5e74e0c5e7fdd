package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Cursor позиция указателя участника.
// X/Y нормализованы в диапазон 0..1, ScreenX/ScreenY - сырые пиксели (если известны).
type Cursor struct {
	ScreenX *float64 `json:"screenX,omitempty"`
	ScreenY *float64 `json:"screenY,omitempty"`
	X       float64  `json:"x"`
	Y       float64  `json:"y"`
}

// Clamped returns the cursor with X and Y clamped into 0..1 for overlay placement.
func (c Cursor) Clamped() Cursor {
	out := c
	out.X = clamp01(c.X)
	out.Y = clamp01(c.Y)
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Participant представляет участника сессии
type Participant struct {
	LastSeen    time.Time `json:"lastSeen"`
	Cursor      *Cursor   `json:"cursor,omitempty"`
	UserID      string    `json:"userId"`
	DisplayName string    `json:"displayName"`
}

// DefaultDisplayName возвращает имя по умолчанию вида "User-<первые 6 символов id>"
func DefaultDisplayName(userID string) string {
	short := []rune(userID)
	if len(short) > 6 {
		short = short[:6]
	}
	return "User-" + string(short)
}

// UnmarshalJSON accepts both the camelCase keys and the server's
// snake_case roster keys (user_id, username).
func (p *Participant) UnmarshalJSON(data []byte) error {
	var in struct {
		LastSeen    *time.Time `json:"lastSeen"`
		Cursor      *Cursor    `json:"cursor"`
		UserID      string     `json:"userId"`
		UserIDSnake string     `json:"user_id"`
		DisplayName string     `json:"displayName"`
		Username    string     `json:"username"`
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("failed to decode participant: %w", err)
	}

	out := Participant{
		UserID:      in.UserID,
		DisplayName: in.DisplayName,
		Cursor:      in.Cursor,
	}
	if out.UserID == "" {
		out.UserID = in.UserIDSnake
	}
	if out.DisplayName == "" {
		out.DisplayName = in.Username
	}
	if in.LastSeen != nil {
		out.LastSeen = *in.LastSeen
	}

	*p = out
	return nil
}
