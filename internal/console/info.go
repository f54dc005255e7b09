package console

// NoTerminal is the terminal sequence of modal sessions; their output stays
// inline in the index instead of a per-handle log file.
const NoTerminal = 0

// Metadata is the persisted state of one session. It round-trips through
// the registry index; live process state (the input queue, the child
// itself) is deliberately not part of it.
type Metadata struct {
	Handle           string `json:"handle"`
	Caption          string `json:"caption,omitempty"`
	Title            string `json:"title,omitempty"`
	TerminalSequence int    `json:"terminalSequence,omitempty"`
	AllowRestart     bool   `json:"allowRestart,omitempty"`
	Started          bool   `json:"started"`
	ExitCode         *int   `json:"exitCode,omitempty"`
	HasChildProcs    bool   `json:"hasChildProcs,omitempty"`
	SmartTerminal    bool   `json:"smartTerminal,omitempty"`
	MaxOutputLines   int    `json:"maxOutputLines,omitempty"`
}

// DefaultMaxOutputLines bounds how many trailing complete lines of a single
// output burst are forwarded to the client.
const DefaultMaxOutputLines = 500
