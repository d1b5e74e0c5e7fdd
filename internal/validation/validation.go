package validation

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"
)

// ProjectIDPattern определяет допустимый формат project id
// Только латинские буквы, цифры, дефис и нижнее подчеркивание: id попадает в путь URL
var ProjectIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

const (
	// MaxProjectIDLen максимальная длина project id
	MaxProjectIDLen = 64
	// MaxRoomNameLen максимальная длина имени комнаты в символах
	MaxRoomNameLen = 64
)

// ValidateProjectID проверяет идентификатор проекта перед подключением
func ValidateProjectID(id string) error {
	if id == "" {
		return fmt.Errorf("project id cannot be empty")
	}

	if len(id) > MaxProjectIDLen {
		return fmt.Errorf("project id must not exceed %d characters", MaxProjectIDLen)
	}

	if !ProjectIDPattern.MatchString(id) {
		return fmt.Errorf("project id can only contain letters (a-z, A-Z), numbers (0-9), dashes (-) and underscores (_)")
	}

	return nil
}

// ValidateRoomName проверяет имя комнаты, введенное пользователем.
// Имя является ключом комнаты, поэтому пустое или из одних пробелов недопустимо.
func ValidateRoomName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("room name cannot be empty")
	}

	if utf8.RuneCountInString(name) > MaxRoomNameLen {
		return fmt.Errorf("room name must not exceed %d characters", MaxRoomNameLen)
	}

	if strings.ContainsAny(name, "\n\r\t") {
		return fmt.Errorf("room name cannot contain control characters")
	}

	return nil
}

// ValidateSize проверяет размер комнаты
func ValidateSize(size float64) error {
	if math.IsNaN(size) || math.IsInf(size, 0) {
		return fmt.Errorf("size must be a finite number")
	}

	if size <= 0 {
		return fmt.Errorf("size must be positive")
	}

	return nil
}
