package iocli

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/ergochat/readline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedLine struct {
	err  error
	line string
}

type fakeEditor struct {
	out     strings.Builder
	prompts []string
	lines   []scriptedLine
	secret  []byte
	closed  bool
}

func (f *fakeEditor) Readline() (string, error) {
	if len(f.lines) == 0 {
		return "", io.EOF
	}
	next := f.lines[0]
	f.lines = f.lines[1:]
	return next.line, next.err
}

func (f *fakeEditor) SetPrompt(prompt string) { f.prompts = append(f.prompts, prompt) }

func (f *fakeEditor) ReadPassword(prompt string) ([]byte, error) {
	f.prompts = append(f.prompts, prompt)
	if f.secret == nil {
		return nil, readline.ErrInterrupt
	}
	return f.secret, nil
}

func (f *fakeEditor) Write(p []byte) (int, error) { return f.out.Write(p) }

func (f *fakeEditor) Close() error {
	f.closed = true
	return nil
}

func TestReadline_Output(t *testing.T) {
	fe := &fakeEditor{}
	r := &Readline{rl: fe}

	r.Println("rooms:", 2)
	r.Printf("%s=%d\n", "x", 5)
	_, err := r.Write([]byte("raw"))
	require.NoError(t, err)

	assert.Equal(t, "rooms: 2\nx=5\nraw", fe.out.String())
}

func TestReadline_ReadInput(t *testing.T) {
	fe := &fakeEditor{lines: []scriptedLine{
		{line: "half typed", err: readline.ErrInterrupt},
		{line: "add Hall 2 0 0"},
		{line: "", err: readline.ErrInterrupt},
	}}
	r := &Readline{rl: fe}

	// Ctrl+C на непустой строке только сбрасывает ее
	line, err := r.ReadInput("> ")
	require.NoError(t, err)
	assert.Equal(t, "add Hall 2 0 0", line)
	assert.Equal(t, []string{"> "}, fe.prompts)

	_, err = r.ReadInput("> ")
	assert.ErrorIs(t, err, io.EOF)
}

func TestReadline_ReadInputError(t *testing.T) {
	boom := errors.New("tty gone")
	r := &Readline{rl: &fakeEditor{lines: []scriptedLine{{err: boom}}}}

	_, err := r.ReadInput("> ")
	assert.ErrorIs(t, err, boom)
}

func TestReadline_ReadPassword(t *testing.T) {
	fe := &fakeEditor{secret: []byte("s3cret")}
	r := &Readline{rl: fe}

	got, err := r.ReadPassword("Token: ")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", got)

	fe.secret = nil
	_, err = r.ReadPassword("Token: ")
	assert.ErrorIs(t, err, io.EOF)

	require.NoError(t, r.Close())
	assert.True(t, fe.closed)
}

func TestCommandCompleter(t *testing.T) {
	c := commandCompleter{"undo", "unload", "redo"}

	got, n := c.Do([]rune("un"), 2)
	assert.Equal(t, 2, n)
	assert.Equal(t, [][]rune{[]rune("do "), []rune("load ")}, got)

	got, _ = c.Do([]rune("x"), 1)
	assert.Empty(t, got)

	// аргументы не дополняются
	got, _ = c.Do([]rune("undo u"), 6)
	assert.Empty(t, got)
}
