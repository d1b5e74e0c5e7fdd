package iocli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ergochat/readline"
)

// lineEditor часть *readline.Instance, которой пользуется Readline
type lineEditor interface {
	Readline() (string, error)
	SetPrompt(prompt string)
	ReadPassword(prompt string) ([]byte, error)
	Write(p []byte) (int, error)
	Close() error
}

// ReadlineConfig настройки интерактивного терминала
type ReadlineConfig struct {
	// HistoryFile файл истории команд; пустая строка отключает историю
	HistoryFile string
	// Commands имена команд для автодополнения по Tab
	Commands []string
}

// Readline интерактивный IO с историей и автодополнением.
// Вывод идет через readline, поэтому асинхронные события сессии
// не ломают строку, которую пользователь набирает.
type Readline struct {
	rl lineEditor
}

var _ IO = (*Readline)(nil)

// NewReadline открывает терминал. Close обязателен: readline переводит терминал в raw режим.
func NewReadline(cfg ReadlineConfig) (*Readline, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            "> ",
		HistoryFile:       cfg.HistoryFile,
		AutoComplete:      commandCompleter(cfg.Commands),
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open terminal: %w", err)
	}
	return &Readline{rl: rl}, nil
}

func (r *Readline) Println(a ...any) {
	_, _ = fmt.Fprintln(r.rl, a...)
}

func (r *Readline) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(r.rl, format, a...)
}

func (r *Readline) Write(p []byte) (int, error) {
	return r.rl.Write(p)
}

// ReadInput читает строку. Ctrl+C на пустой строке завершает ввод как EOF,
// на непустой - сбрасывает строку.
func (r *Readline) ReadInput(prompt string) (string, error) {
	r.rl.SetPrompt(prompt)
	for {
		line, err := r.rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if line == "" {
				return "", io.EOF
			}
			continue
		}
		if err != nil {
			return "", err
		}
		return line, nil
	}
}

func (r *Readline) ReadPassword(prompt string) (string, error) {
	b, err := r.rl.ReadPassword(prompt)
	if err != nil {
		if errors.Is(err, readline.ErrInterrupt) {
			return "", io.EOF
		}
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(b), nil
}

// commandCompleter дополняет первое слово строки именем команды
type commandCompleter []string

// Do реализует readline.AutoCompleter: возвращает недостающие суффиксы
// и длину уже набранного префикса.
func (c commandCompleter) Do(line []rune, pos int) ([][]rune, int) {
	typed := string(line[:pos])
	if strings.ContainsAny(typed, " \t") {
		return nil, 0
	}
	var out [][]rune
	for _, cmd := range c {
		if strings.HasPrefix(cmd, typed) {
			out = append(out, []rune(cmd[len(typed):]+" "))
		}
	}
	return out, len([]rune(typed))
}

// Close возвращает терминал в обычный режим
func (r *Readline) Close() error {
	return r.rl.Close()
}
