package console

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyOutputTerminatedChunkIsNeverPrompt(t *testing.T) {
	c := ClassifyOutput("Password: \n")
	assert.False(t, c.HasPrompt())
	assert.Equal(t, []string{"Password: \n"}, c.Output)
}

func TestClassifyOutputDetectsTrailingPrompt(t *testing.T) {
	c := ClassifyOutput("Password: ")
	assert.True(t, c.HasPrompt())
	assert.Equal(t, "Password: ", c.Prompt)
	assert.Empty(t, c.Output)
}

func TestClassifyOutputSplitsOutputBeforePrompt(t *testing.T) {
	c := ClassifyOutput("Cloning into 'repo'...\nPassword for 'https://github.com': ")
	assert.Equal(t, []string{"Cloning into 'repo'...\n"}, c.Output)
	assert.Equal(t, "Password for 'https://github.com': ", c.Prompt)
}

func TestClassifyOutputSplitsAtFormFeed(t *testing.T) {
	c := ClassifyOutput("page one\fPassword: ")
	assert.Equal(t, []string{"page one\f"}, c.Output)
	assert.Equal(t, "Password: ", c.Prompt)
}

func TestClassifyOutputControlCharsAreRedrawNoise(t *testing.T) {
	// carriage-return rewrites and backspace erasures are progress
	// indicators, never prompts
	for _, chunk := range []string{
		"downloading  45%\rdownloading  46% ",
		"spinner |\b/ ",
	} {
		c := ClassifyOutput(chunk)
		assert.False(t, c.HasPrompt(), "chunk %q", chunk)
		assert.Equal(t, []string{chunk}, c.Output)
	}
}

func TestClassifyOutputNormalizesCRLF(t *testing.T) {
	c := ClassifyOutput("one\r\ntwo\r\n")
	assert.False(t, c.HasPrompt())
	assert.Equal(t, []string{"one\ntwo\n"}, c.Output)
}

func TestClassifyOutputPlainTextIsOutput(t *testing.T) {
	c := ClassifyOutput("abc123")
	assert.False(t, c.HasPrompt())
	assert.Equal(t, []string{"abc123"}, c.Output)
}

func TestMatchesPromptShape(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"Password: ", true},
		{"continue? [y/N] ", true},
		{"> ", true},
		{">", false},          // no trailing space
		{"abc123", false},     // no boundary, no trailing space
		{"abc123 ", false},    // no boundary character before the space
		{"", false},
		{"bash-5.1$ ", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MatchesPromptShape(tt.text), "text %q", tt.text)
	}
}
