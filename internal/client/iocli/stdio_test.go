package iocli

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Проверяем что NewStdio возвращает валидный объект
func TestNewStdio(t *testing.T) {
	stdio := NewStdio()
	assert.NotNil(t, stdio)
}

func TestPrintlnAndPrintf(t *testing.T) {
	var out bytes.Buffer
	s := NewStream(strings.NewReader(""), &out)

	s.Println("hello", "world")
	s.Printf("test %d %s", 1, "abc")
	_, err := s.Write([]byte("!"))
	require.NoError(t, err)

	assert.Equal(t, "hello world\ntest 1 abc!", out.String())
}

// Несколько ReadInput подряд не теряют буферизованный ввод
func TestReadInput_Sequential(t *testing.T) {
	var out bytes.Buffer
	s := NewStream(strings.NewReader("add Kitchen 3 0 0\n  undo  \nquit"), &out)

	first, err := s.ReadInput("> ")
	require.NoError(t, err)
	assert.Equal(t, "add Kitchen 3 0 0", first)

	second, err := s.ReadInput("> ")
	require.NoError(t, err)
	assert.Equal(t, "undo", second)

	// последняя строка без \n
	third, err := s.ReadInput("> ")
	require.NoError(t, err)
	assert.Equal(t, "quit", third)

	_, err = s.ReadInput("> ")
	assert.ErrorIs(t, err, io.EOF)

	assert.Equal(t, "> > > > ", out.String())
}

// Без терминала ReadPassword читает обычную строку
func TestReadPassword_NotTerminal(t *testing.T) {
	var out bytes.Buffer
	s := NewStream(strings.NewReader("secret-token\n"), &out)

	got, err := s.ReadPassword("Token: ")
	require.NoError(t, err)
	assert.Equal(t, "secret-token", got)
	assert.Equal(t, "Token: ", out.String())
}
