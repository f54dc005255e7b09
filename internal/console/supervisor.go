package console

// Options controls how a child process is spawned.
type Options struct {
	WorkingDir string
	Env        map[string]string

	// Pty requests a pseudo-terminal with the given initial dimensions.
	// Sessions without a pty never receive resize or interrupt operations.
	Pty  bool
	Cols int
	Rows int

	// SmartTerminal marks a pass-through session: the remote side renders
	// output and owns prompt semantics, so prompt detection is skipped and
	// the pty handles input echo natively.
	SmartTerminal bool

	// TerminateChildren extends termination to the child's process group.
	TerminateChildren bool

	// RedirectStderr interleaves stderr into the stdout stream. Forced on
	// for every session so prompt detection sees stderr prompts.
	RedirectStderr bool
}

// ProcessOperations is the control surface for a live child process, handed
// to the tick and output callbacks by the process supervisor.
type ProcessOperations interface {
	WriteToStdin(text string) error
	PtyInterrupt() error
	PtySetSize(cols, rows int) error
	Terminate() error
}

// Callbacks are invoked by the supervisor's driver loop. OnContinue runs
// once per poll cycle while the process is alive; returning false tells the
// driver to terminate the child. OnOutput receives stdout chunks with
// stderr pre-merged.
type Callbacks struct {
	OnContinue    func(ops ProcessOperations) bool
	OnOutput      func(ops ProcessOperations, chunk string)
	OnExit        func(exitCode int)
	OnHasSubprocs func(has bool)
}

// Supervisor is the process-spawning collaborator. It forks/execs the child,
// provides the pseudo-terminal when requested, and drives the callbacks.
type Supervisor interface {
	RunCommand(command string, opts Options, cb Callbacks) error
	RunProgram(program string, args []string, opts Options, cb Callbacks) error
	RunTerminal(opts Options, cb Callbacks) error
}
