package console

import (
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Inline buffers are bounded; once over the cap the oldest lines are dropped.
const maxInlineBufferBytes = 100 * 1024

// OutputBuffer retains everything a console process has emitted since the
// last erase. Modal sessions keep the bytes inline; terminal sessions append
// to a per-handle log file so long-running output never stays resident.
// The storage mode is fixed at construction.
//
// Appends never fail observably: a write error is logged and the data is
// dropped, because losing history must not take down the owning session.
type OutputBuffer struct {
	log  *logrus.Entry
	path string // log file path; empty means inline

	mu     sync.Mutex
	inline strings.Builder
}

// NewInlineBuffer creates a buffer that keeps output in memory.
func NewInlineBuffer(log *logrus.Entry) *OutputBuffer {
	b := &OutputBuffer{log: log}
	// A leading line terminator marks the first real line as complete when
	// the buffer is scanned for trailing partial-line content.
	b.inline.WriteByte('\n')
	return b
}

// NewFileBuffer creates a buffer that appends to the log file at path.
func NewFileBuffer(log *logrus.Entry, path string) *OutputBuffer {
	return &OutputBuffer{log: log, path: path}
}

// FileBacked reports whether output goes to a per-handle log file.
func (b *OutputBuffer) FileBacked() bool {
	return b.path != ""
}

// Append adds output to the buffer. Errors are logged, never returned.
func (b *OutputBuffer) Append(s string) {
	if s == "" {
		return
	}

	if b.path == "" {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.inline.WriteString(s)
		if b.inline.Len() > maxInlineBufferBytes {
			b.shrinkInline()
		}
		return
	}

	f, err := os.OpenFile(b.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		b.log.WithError(err).Warn("open output log for append")
		return
	}
	defer f.Close()
	if _, err := f.WriteString(s); err != nil {
		b.log.WithError(err).Warn("append to output log")
	}
}

// shrinkInline drops the oldest lines so the retained tail still begins at a
// line terminator. Caller holds b.mu.
func (b *OutputBuffer) shrinkInline() {
	s := b.inline.String()
	cut := strings.IndexByte(s[len(s)-maxInlineBufferBytes:], '\n')
	if cut == -1 {
		// one enormous unterminated line; keep the tail behind a fresh
		// sentinel so scans still see a complete leading line
		s = "\n" + s[len(s)-maxInlineBufferBytes:]
	} else {
		s = s[len(s)-maxInlineBufferBytes+cut:]
	}
	b.inline.Reset()
	b.inline.WriteString(s)
}

// Read returns the full retained buffer. On a log read failure it returns
// the empty string; the caller sees an empty replay, not an error.
func (b *OutputBuffer) Read() string {
	if b.path == "" {
		b.mu.Lock()
		defer b.mu.Unlock()
		return b.inline.String()
	}

	data, err := os.ReadFile(b.path)
	if err != nil {
		if !os.IsNotExist(err) {
			b.log.WithError(err).Warn("read output log")
		}
		return ""
	}
	return string(data)
}

// Erase clears the retained output. File-backed buffers remove the log file.
func (b *OutputBuffer) Erase() {
	if b.path == "" {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.inline.Reset()
		b.inline.WriteByte('\n')
		return
	}

	if err := os.Remove(b.path); err != nil && !os.IsNotExist(err) {
		b.log.WithError(err).Warn("remove output log")
	}
}

// TrimLeadingLines trims whole lines from the front of text so that at most
// maxLines complete trailing lines remain. An unterminated trailing partial
// line is preserved verbatim; it may still resolve into a prompt. Used to
// keep a single large write burst from overwhelming the client.
func TrimLeadingLines(maxLines int, text string) string {
	if maxLines < 1 {
		return text
	}

	// Everything after the last terminator is a partial line and exempt.
	i := strings.LastIndexByte(text, '\n')
	if i == -1 {
		return text
	}

	n := 0
	for i >= 0 {
		j := strings.LastIndexByte(text[:i], '\n')
		n++
		if n == maxLines {
			return text[j+1:]
		}
		i = j
	}
	return text
}
