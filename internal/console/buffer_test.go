package console

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInlineBufferStartsWithSentinel(t *testing.T) {
	b := NewInlineBuffer(testLog())
	assert.Equal(t, "\n", b.Read())
	assert.False(t, b.FileBacked())
}

func TestInlineBufferAppendReadErase(t *testing.T) {
	b := NewInlineBuffer(testLog())
	b.Append("hello\n")
	b.Append("world")
	assert.Equal(t, "\nhello\nworld", b.Read())

	b.Erase()
	assert.Equal(t, "\n", b.Read())
}

func TestInlineBufferShrinksAtLineBoundary(t *testing.T) {
	b := NewInlineBuffer(testLog())

	line := strings.Repeat("x", 99) + "\n"
	for i := 0; i < 2*maxInlineBufferBytes/len(line); i++ {
		b.Append(line)
	}

	got := b.Read()
	assert.LessOrEqual(t, len(got), maxInlineBufferBytes)
	// the retained tail still begins at a line terminator so scans see a
	// complete leading line
	assert.True(t, strings.HasPrefix(got, "\n"))
	assert.True(t, strings.HasSuffix(got, line))
}

func TestInlineBufferShrinkUnterminatedLineKeepsSentinel(t *testing.T) {
	b := NewInlineBuffer(testLog())
	b.Append(strings.Repeat("y", maxInlineBufferBytes+1024))

	got := b.Read()
	assert.LessOrEqual(t, len(got), maxInlineBufferBytes+1)
	assert.True(t, strings.HasPrefix(got, "\n"))
}

func TestFileBufferAppendReadErase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "handle-1")
	b := NewFileBuffer(testLog(), path)
	require.True(t, b.FileBacked())

	assert.Equal(t, "", b.Read())

	b.Append("first\n")
	b.Append("second\n")
	assert.Equal(t, "first\nsecond\n", b.Read())

	b.Erase()
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	assert.Equal(t, "", b.Read())
}

func TestTrimLeadingLines(t *testing.T) {
	tests := []struct {
		name     string
		maxLines int
		text     string
		want     string
	}{
		{"no limit", 0, "a\nb\nc\n", "a\nb\nc\n"},
		{"under limit", 5, "a\nb\n", "a\nb\n"},
		{"at limit", 2, "a\nb\n", "a\nb\n"},
		{"over limit", 2, "a\nb\nc\nd\n", "c\nd\n"},
		{"partial line exempt", 1, "a\nb\nprompt> ", "b\nprompt> "},
		{"no terminator", 1, "just a fragment", "just a fragment"},
		{"single line kept", 1, "a\n", "a\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TrimLeadingLines(tt.maxLines, tt.text))
		})
	}
}

func TestTrimLeadingLinesLargeBurst(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 2000; i++ {
		sb.WriteString("line\n")
	}
	got := TrimLeadingLines(500, sb.String())
	assert.Equal(t, 500, strings.Count(got, "\n"))
}
