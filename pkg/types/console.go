package types

// CreateSessionRequest is the request body for creating a console session.
// Exactly one of Command or Program may be set; leaving both empty requests
// a plain terminal (interactive shell).
type CreateSessionRequest struct {
	Command string   `json:"command,omitempty"`
	Program string   `json:"program,omitempty"`
	Args    []string `json:"args,omitempty"`

	Caption string `json:"caption,omitempty"`
	Title   string `json:"title,omitempty"`

	WorkingDir     string            `json:"workingDir,omitempty"`
	Env            map[string]string `json:"envs,omitempty"`
	Pty            bool              `json:"pty"`
	SmartTerminal  bool              `json:"smartTerminal,omitempty"`
	Cols           int               `json:"cols,omitempty"` // default 80
	Rows           int               `json:"rows,omitempty"` // default 25
	MaxOutputLines int               `json:"maxOutputLines,omitempty"`
}

// ReattachTerminalRequest is the request body for creating or reattaching a
// terminal session. A non-empty Handle with AllowRestart set reattaches to a
// still-running session instead of spawning a new one.
type ReattachTerminalRequest struct {
	Handle       string `json:"handle,omitempty"`
	AllowRestart bool   `json:"allowRestart,omitempty"`

	Caption    string            `json:"caption,omitempty"`
	Title      string            `json:"title,omitempty"`
	WorkingDir string            `json:"workingDir,omitempty"`
	Env        map[string]string `json:"envs,omitempty"`
	Cols       int               `json:"cols,omitempty"`
	Rows       int               `json:"rows,omitempty"`
}

// SessionInfo is the client-visible state of one console session.
type SessionInfo struct {
	Handle        string `json:"handle"`
	Caption       string `json:"caption,omitempty"`
	Title         string `json:"title,omitempty"`
	Started       bool   `json:"started"`
	ExitCode      *int   `json:"exitCode,omitempty"`
	HasChildProcs bool   `json:"hasChildProcs"`
	SmartTerminal bool   `json:"smartTerminal,omitempty"`
}

// WriteStdinRequest is the request body for queuing session input.
// When Interrupt is set Text is ignored and a pty interrupt is queued
// instead; interrupt input bypasses transport decryption.
type WriteStdinRequest struct {
	Text      string `json:"text,omitempty"`
	EchoInput bool   `json:"echoInput"`
	Interrupt bool   `json:"interrupt,omitempty"`
}

// ResizeRequest is the request body for changing terminal dimensions.
type ResizeRequest struct {
	Cols int `json:"cols"`
	Rows int `json:"rows"`
}

// SetTextRequest carries a caption or title update.
type SetTextRequest struct {
	Text string `json:"text"`
}

// BufferResponse carries the replayed output buffer for a session.
type BufferResponse struct {
	Handle string `json:"handle"`
	Buffer string `json:"buffer"`
}

// Event names streamed over the /events websocket.
const (
	EventOutput   = "outputProduced"
	EventPrompt   = "promptDetected"
	EventExit     = "processExited"
	EventSubprocs = "childProcessPresenceChanged"
)

// Event is one envelope on the /events websocket stream.
type Event struct {
	Type     string `json:"type"`
	Handle   string `json:"handle"`
	Output   string `json:"output,omitempty"`
	Error    bool   `json:"error,omitempty"`
	Prompt   string `json:"prompt,omitempty"`
	ExitCode *int   `json:"exitCode,omitempty"`
	Subprocs *bool  `json:"subprocs,omitempty"`
}
