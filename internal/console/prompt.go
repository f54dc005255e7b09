package console

import (
	"regexp"
	"strings"
)

var (
	// Carriage returns and backspaces in an unterminated line mean an
	// in-progress redraw (progress bars, spinners), not a prompt. The
	// backspace byte is spelled \x08; inside an RE2 character class \b
	// is not an escape for it.
	controlCharsPattern = regexp.MustCompile(`[\r\x08]`)

	// A prompt is optional content, one non-word boundary character, then
	// trailing spaces, e.g. "Password: " or "> ".
	promptPattern = regexp.MustCompile(`^(.*)[\W_]( +)$`)
)

// Classification is the result of scanning one chunk of child output.
// Output segments are emitted in order as ordinary output; Prompt, when
// set, is the trailing unterminated line that looks like an interactive
// prompt.
type Classification struct {
	Output []string
	Prompt string
}

// HasPrompt reports whether the chunk ended in a prompt candidate that
// passed both classification tests.
func (c Classification) HasPrompt() bool {
	return c.Prompt != ""
}

// ClassifyOutput normalizes line endings and decides whether the chunk's
// trailing unterminated segment is an interactive prompt.
//
// The heuristic is deliberately conservative: any chunk ending in a line
// terminator is pure output (a prompt is by definition unterminated), and a
// candidate only counts as a prompt if it is free of redraw control
// characters and matches the prompt shape. False negatives are acceptable;
// interrupting legitimate multi-line output mid-stream is not.
func ClassifyOutput(chunk string) Classification {
	posix := normalizeLineEndings(chunk)

	if strings.HasSuffix(posix, "\n") {
		return Classification{Output: []string{posix}}
	}

	var c Classification
	candidate := posix
	if i := strings.LastIndexAny(posix, "\n\f"); i != -1 {
		c.Output = append(c.Output, posix[:i+1])
		candidate = posix[i+1:]
	}

	if candidate == "" {
		return c
	}
	if controlCharsPattern.MatchString(candidate) ||
		!promptPattern.MatchString(candidate) {
		c.Output = append(c.Output, candidate)
		return c
	}

	c.Prompt = candidate
	return c
}

// MatchesPromptShape reports whether text matches the prompt shape pattern.
func MatchesPromptShape(text string) bool {
	return promptPattern.MatchString(text)
}

func normalizeLineEndings(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}
