package console

import (
	"fmt"
	"sync"

	"github.com/olebedev/emitter"
	"github.com/sirupsen/logrus"

	"github.com/openconsole/openconsole/internal/metrics"
	"github.com/openconsole/openconsole/pkg/types"
)

// Input is one queued instruction for a session: either a text payload or a
// pty interrupt. Interrupts and text share one FIFO queue; an interrupt is
// delivered only after all earlier-queued input.
type Input struct {
	Text      string `json:"text"`
	EchoInput bool   `json:"echoInput"`
	Interrupt bool   `json:"interrupt"`
}

// Empty reports whether the input carries nothing to deliver. A prompt
// handler answering with an empty input means the user cancelled.
func (in Input) Empty() bool {
	return !in.Interrupt && in.Text == ""
}

// PromptHandler gets first refusal on a detected prompt. Returning
// handled=false routes the prompt to the normal prompt event path.
type PromptHandler func(handle, prompt string) (Input, bool)

// ExitFunc is notified when the session's process exits.
type ExitFunc func(handle string, exitCode int)

// Session owns one child process: its input queue, output buffer, prompt
// handling hook, pending resize/interrupt requests, and persistence
// metadata.
//
// The supervisor's driver goroutine calls OnContinue/OnOutput/OnExit while
// RPC handlers concurrently enqueue input and set flags, so all mutable
// state is guarded by mu.
type Session struct {
	log    *logrus.Entry
	sup    Supervisor
	events *emitter.Emitter

	// spawn spec: exactly one of command, program(+args), or neither
	// (pure terminal) is set
	command string
	program string
	args    []string
	opts    Options

	buffer *OutputBuffer

	mu               sync.Mutex
	meta             Metadata
	starting         bool
	inputQueue       []Input
	interrupt        bool
	newCols, newRows int
	childProcsSent   bool
	promptHandler    PromptHandler
	exitFuncs        []ExitFunc
}

// NewCommandSession builds a session that runs a shell command line.
func NewCommandSession(log *logrus.Entry, sup Supervisor, events *emitter.Emitter,
	command string, opts Options, meta Metadata, buffer *OutputBuffer) *Session {
	s := newSession(log, sup, events, opts, meta, buffer)
	s.command = command
	return s
}

// NewProgramSession builds a session that runs a program with arguments.
func NewProgramSession(log *logrus.Entry, sup Supervisor, events *emitter.Emitter,
	program string, args []string, opts Options, meta Metadata, buffer *OutputBuffer) *Session {
	s := newSession(log, sup, events, opts, meta, buffer)
	s.program = program
	s.args = args
	return s
}

// NewTerminalSession builds a session that runs the user's shell. Restored
// sessions also take this shape; their spawn spec is not persisted.
func NewTerminalSession(log *logrus.Entry, sup Supervisor, events *emitter.Emitter,
	opts Options, meta Metadata, buffer *OutputBuffer) *Session {
	return newSession(log, sup, events, opts, meta, buffer)
}

func newSession(log *logrus.Entry, sup Supervisor, events *emitter.Emitter,
	opts Options, meta Metadata, buffer *OutputBuffer) *Session {
	// stderr is always interleaved into stdout so prompt detection sees
	// prompts written to either stream
	opts.RedirectStderr = true
	opts.SmartTerminal = meta.SmartTerminal
	if opts.Cols <= 0 {
		opts.Cols = 80
	}
	if opts.Rows <= 0 {
		opts.Rows = 25
	}
	if meta.MaxOutputLines <= 0 {
		meta.MaxOutputLines = DefaultMaxOutputLines
	}

	return &Session{
		log:     log.WithField("handle", meta.Handle),
		sup:     sup,
		events:  events,
		opts:    opts,
		meta:    meta,
		buffer:  buffer,
		newCols: -1,
		newRows: -1,
	}
}

// Handle returns the session's stable opaque identifier.
func (s *Session) Handle() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.meta.Handle
}

// Metadata returns a snapshot of the persistable session state.
func (s *Session) Metadata() Metadata {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.meta
	if s.meta.ExitCode != nil {
		code := *s.meta.ExitCode
		m.ExitCode = &code
	}
	return m
}

// IsStarted reports whether the session has been started.
func (s *Session) IsStarted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.meta.Started
}

// Options returns the spawn options the session was built with.
func (s *Session) Options() Options {
	return s.opts
}

// SetPromptHandler installs the pluggable prompt handler consulted before a
// prompt event is emitted.
func (s *Session) SetPromptHandler(h PromptHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.promptHandler = h
}

// SubscribeExit registers fn to run when the process exits.
func (s *Session) SubscribeExit(fn ExitFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exitFuncs = append(s.exitFuncs, fn)
}

// Start spawns the child process. Already-started sessions are a no-op
// success; the spawn mode follows which spec field is populated. A start
// already in flight on another goroutine also counts as started, so
// concurrent callers never spawn a second child.
func (s *Session) Start() error {
	s.mu.Lock()
	if s.meta.Started || s.starting {
		s.mu.Unlock()
		return nil
	}
	s.starting = true
	s.mu.Unlock()

	cb := Callbacks{
		OnContinue: s.OnContinue,
		OnOutput:   s.OnOutput,
		OnExit:     s.OnExit,
	}
	if s.opts.Pty {
		cb.OnHasSubprocs = s.OnHasSubprocs
	}

	var err error
	switch {
	case s.command != "":
		err = s.sup.RunCommand(s.command, s.opts, cb)
	case s.program != "":
		err = s.sup.RunProgram(s.program, s.args, s.opts, cb)
	default:
		err = s.sup.RunTerminal(s.opts, cb)
	}
	s.mu.Lock()
	s.starting = false
	if err == nil {
		s.meta.Started = true
	}
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("spawn session %s: %w", s.Handle(), err)
	}
	return nil
}

// EnqueueInput appends input to the session's FIFO queue. It is drained on
// the next driver tick.
func (s *Session) EnqueueInput(in Input) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inputQueue = append(s.inputQueue, in)
}

// Interrupt requests termination of the child. Advisory: observed at the
// next tick, never pre-empting output already in flight.
func (s *Session) Interrupt() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interrupt = true
}

// Resize records a pending dimension change, applied once on the next tick.
func (s *Session) Resize(cols, rows int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.newCols = cols
	s.newRows = rows
}

// SetCaption updates the user-facing tab caption.
func (s *Session) SetCaption(caption string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meta.Caption = caption
}

// SetTitle updates the window title reported by the process.
func (s *Session) SetTitle(title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meta.Title = title
}

// BufferedOutput returns the retained output for replay. Smart terminals
// own their own rendering, so their inline replay is always empty.
func (s *Session) BufferedOutput() string {
	if s.opts.SmartTerminal && !s.buffer.FileBacked() {
		return ""
	}
	return s.buffer.Read()
}

// EraseBuffer clears the retained output.
func (s *Session) EraseBuffer() {
	s.buffer.Erase()
}

// DeleteLogFile removes the session's persisted output.
func (s *Session) DeleteLogFile() {
	if s.buffer.FileBacked() {
		s.buffer.Erase()
	}
}

// OnContinue runs once per poll cycle. It short-circuits on a requested
// interrupt, drains the input queue in order, then applies at most one
// pending resize. Returning false tells the driver to terminate the child.
func (s *Session) OnContinue(ops ProcessOperations) bool {
	s.mu.Lock()
	if s.interrupt {
		s.mu.Unlock()
		return false
	}
	queue := s.inputQueue
	s.inputQueue = nil
	cols, rows := s.newCols, s.newRows
	s.newCols, s.newRows = -1, -1
	s.mu.Unlock()

	for _, in := range queue {
		if in.Interrupt {
			if err := ops.PtyInterrupt(); err != nil {
				s.log.WithError(err).Error("pty interrupt")
			}
			if in.EchoInput {
				s.buffer.Append("^C")
			}
			continue
		}

		if err := ops.WriteToStdin(in.Text); err != nil {
			s.log.WithError(err).Error("write to stdin")
		}

		// a pty echoes natively for smart terminals; everyone else gets
		// the text echoed back, or a bare terminator for hidden input
		if !s.opts.SmartTerminal {
			if in.EchoInput {
				s.buffer.Append(in.Text)
			} else {
				s.buffer.Append("\n")
			}
		}
	}

	if cols != -1 && rows != -1 {
		if err := ops.PtySetSize(cols, rows); err != nil {
			s.log.WithError(err).Error("pty set size")
		}
	}

	return true
}

// OnOutput handles one chunk of child output, stderr pre-merged. Smart
// terminals pass every chunk through unmodified; everyone else goes through
// prompt detection.
func (s *Session) OnOutput(ops ProcessOperations, chunk string) {
	if s.opts.SmartTerminal {
		s.emitOutput(chunk, false)
		return
	}

	c := ClassifyOutput(chunk)
	for _, out := range c.Output {
		s.emitOutput(out, false)
	}
	if c.HasPrompt() {
		s.handlePrompt(ops, c.Prompt)
	}
}

func (s *Session) emitOutput(output string, isError bool) {
	s.buffer.Append(output)
	metrics.OutputBytesTotal.Add(float64(len(output)))

	// cap what a single burst can push at the client
	trimmed := TrimLeadingLines(s.meta.MaxOutputLines, output)
	s.emit(types.EventOutput, types.Event{
		Type:   types.EventOutput,
		Handle: s.Handle(),
		Output: trimmed,
		Error:  isError,
	})
}

func (s *Session) handlePrompt(ops ProcessOperations, prompt string) {
	metrics.PromptsDetectedTotal.Inc()

	s.mu.Lock()
	handler := s.promptHandler
	handle := s.meta.Handle
	s.mu.Unlock()

	if handler != nil {
		if input, handled := handler(handle, prompt); handled {
			if !input.Empty() {
				s.EnqueueInput(input)
			} else {
				// empty response means the user cancelled
				if err := ops.Terminate(); err != nil {
					s.log.WithError(err).Error("terminate on cancelled prompt")
				}
			}
			return
		}
	}

	s.emit(types.EventPrompt, types.Event{
		Type:   types.EventPrompt,
		Handle: handle,
		Prompt: prompt,
	})
}

// OnExit records the exit code and notifies subscribers.
func (s *Session) OnExit(exitCode int) {
	s.mu.Lock()
	code := exitCode
	s.meta.ExitCode = &code
	handle := s.meta.Handle
	exitFuncs := s.exitFuncs
	s.mu.Unlock()

	status := "success"
	if exitCode != 0 {
		status = "failure"
	}
	metrics.SessionExitsTotal.WithLabelValues(status).Inc()

	s.emit(types.EventExit, types.Event{
		Type:     types.EventExit,
		Handle:   handle,
		ExitCode: &code,
	})

	for _, fn := range exitFuncs {
		fn(handle, exitCode)
	}
}

// OnHasSubprocs reports child-process presence. An event goes out only when
// the value changes, except the very first report, which is always sent so
// a reattached client never sees a stale default.
func (s *Session) OnHasSubprocs(has bool) {
	s.mu.Lock()
	changed := has != s.meta.HasChildProcs || !s.childProcsSent
	s.meta.HasChildProcs = has
	s.childProcsSent = true
	handle := s.meta.Handle
	s.mu.Unlock()

	if !changed {
		return
	}
	s.emit(types.EventSubprocs, types.Event{
		Type:     types.EventSubprocs,
		Handle:   handle,
		Subprocs: &has,
	})
}

// OnSuspend flushes suspend-critical state before serialization. Both
// buffer modes are already settled at this point: file-backed appends go
// straight to disk and inline buffers are not persisted.
func (s *Session) OnSuspend() {
	s.log.Debug("session suspending")
}

func (s *Session) emit(topic string, ev types.Event) {
	if s.events != nil {
		s.events.Emit(topic, ev)
	}
}
