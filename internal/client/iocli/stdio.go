package iocli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

// Stdio читает строки из in и пишет в out.
// Один bufio.Reader на весь сеанс: иначе REPL терял бы уже буферизованный ввод.
type Stdio struct {
	in     *bufio.Reader
	out    io.Writer
	fd     int
	isTerm func(fd int) bool
	mu     sync.Mutex
}

// NewStdio создает IO поверх os.Stdin/os.Stdout
func NewStdio() IO {
	return &Stdio{
		in:     bufio.NewReader(os.Stdin),
		out:    os.Stdout,
		fd:     int(os.Stdin.Fd()),
		isTerm: term.IsTerminal,
	}
}

// NewStream создает IO поверх произвольных потоков (скрипты, тесты).
// ReadPassword в этом режиме читает обычную строку.
func NewStream(in io.Reader, out io.Writer) IO {
	return &Stdio{
		in:     bufio.NewReader(in),
		out:    out,
		fd:     -1,
		isTerm: func(int) bool { return false },
	}
}

func (s *Stdio) Println(a ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = fmt.Fprintln(s.out, a...)
}

func (s *Stdio) Printf(format string, a ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = fmt.Fprintf(s.out, format, a...)
}

// Write позволяет передавать Stdio как io.Writer (например, в slog handler)
func (s *Stdio) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.out.Write(p)
}

// ReadInput печатает prompt и возвращает строку без пробелов по краям.
// Последняя строка без перевода строки не теряется.
func (s *Stdio) ReadInput(prompt string) (string, error) {
	s.Printf("%s", prompt)
	input, err := s.in.ReadString('\n')
	if err != nil {
		if err == io.EOF && input != "" {
			return strings.TrimSpace(input), nil
		}
		return "", err
	}
	return strings.TrimSpace(input), nil
}

// ReadPassword читает секрет без эха, если stdin является терминалом
func (s *Stdio) ReadPassword(prompt string) (string, error) {
	if !s.isTerm(s.fd) {
		return s.ReadInput(prompt)
	}

	s.Printf("%s", prompt)
	pwBytes, err := term.ReadPassword(s.fd)
	s.Println("")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(pwBytes)), nil
}
