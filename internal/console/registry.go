package console

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/olebedev/emitter"
	"github.com/sirupsen/logrus"

	"github.com/openconsole/openconsole/internal/metrics"
	"github.com/openconsole/openconsole/internal/store"
)

const (
	consoleDir = "console"
	indexFile  = "INDEX"
)

// ErrInvalidHandle is returned when an operation references an unknown
// session handle.
var ErrInvalidHandle = errors.New("invalid session handle")

// SpawnSpec selects how a session's child is spawned: a shell command line,
// a program with arguments, or neither for a plain terminal. Command and
// program are mutually exclusive.
type SpawnSpec struct {
	Command string
	Program string
	Args    []string
}

// RegistryOptions carries the registry's optional collaborators.
type RegistryOptions struct {
	MaxOutputLines int
	Journal        *store.Journal
	Passwords      *PasswordManager
}

// Registry is the process-wide map from handle to session. It owns session
// creation, reattachment, reaping, and bulk (de)serialization to the index
// file. All map mutation persists the index; persistence failures are
// logged, never surfaced to the caller.
type Registry struct {
	log     *logrus.Entry
	sup     Supervisor
	files   *store.Files
	events  *emitter.Emitter
	journal *store.Journal
	pw      *PasswordManager

	maxOutputLines int

	mu              sync.RWMutex
	procs           map[string]*Session
	nextTerminalSeq int
}

// NewRegistry builds a registry persisting under files' console directory.
func NewRegistry(log *logrus.Logger, sup Supervisor, files *store.Files,
	events *emitter.Emitter, opts RegistryOptions) (*Registry, error) {
	if err := files.EnsureDir(consoleDir); err != nil {
		return nil, err
	}
	maxLines := opts.MaxOutputLines
	if maxLines <= 0 {
		maxLines = DefaultMaxOutputLines
	}
	return &Registry{
		log:             log.WithField("component", "registry"),
		sup:             sup,
		files:           files,
		events:          events,
		journal:         opts.Journal,
		pw:              opts.Passwords,
		maxOutputLines:  maxLines,
		procs:           make(map[string]*Session),
		nextTerminalSeq: 1,
	}, nil
}

// Create builds and registers a new session, returning its handle. Child
// termination always cascades to descendants.
func (r *Registry) Create(spec SpawnSpec, opts Options, meta Metadata) (*Session, error) {
	if spec.Command != "" && spec.Program != "" {
		return nil, fmt.Errorf("session spec: command and program are mutually exclusive")
	}

	opts.TerminateChildren = true
	if meta.Handle == "" {
		meta.Handle = uuid.New().String()
	}
	if meta.MaxOutputLines <= 0 {
		meta.MaxOutputLines = r.maxOutputLines
	}

	// only freshly created terminals draw a sequence number; restored
	// sessions keep whatever was persisted
	if spec.Command == "" && spec.Program == "" && meta.TerminalSequence == NoTerminal {
		r.mu.Lock()
		meta.TerminalSequence = r.nextTerminalSeq
		r.nextTerminalSeq++
		r.mu.Unlock()
	}

	s := r.buildSession(spec, opts, meta)
	r.register(s)
	r.Save()
	return s, nil
}

// CreateOrReattachTerminal returns a live session matching the persisted
// info when reattachment is allowed, nudging its dimensions so the remote
// side redraws; otherwise it creates a fresh terminal session (reusing the
// previous handle when one was carried).
func (r *Registry) CreateOrReattachTerminal(opts Options, meta Metadata) (*Session, error) {
	opts.Pty = true

	if meta.AllowRestart && meta.Handle != "" {
		r.mu.RLock()
		existing := r.procs[meta.Handle]
		r.mu.RUnlock()

		if existing != nil && existing.IsStarted() && existing.Metadata().ExitCode == nil {
			// jiggle the pty size to force the application to repaint;
			// the client follows up with a resize to the real dimensions
			existing.Resize(25, 5)
			return existing, nil
		}

		// new process under the previously used handle
		return r.Create(SpawnSpec{}, opts, meta)
	}

	meta.Handle = ""
	return r.Create(SpawnSpec{}, opts, meta)
}

func (r *Registry) buildSession(spec SpawnSpec, opts Options, meta Metadata) *Session {
	buffer := r.bufferFor(meta)
	log := r.log.Logger.WithField("component", "session")

	switch {
	case spec.Command != "":
		return NewCommandSession(log, r.sup, r.events, spec.Command, opts, meta, buffer)
	case spec.Program != "":
		return NewProgramSession(log, r.sup, r.events, spec.Program, spec.Args, opts, meta, buffer)
	default:
		return NewTerminalSession(log, r.sup, r.events, opts, meta, buffer)
	}
}

// bufferFor selects buffer storage once at construction: sessions with a
// terminal sequence log to a per-handle file, everyone else stays inline.
func (r *Registry) bufferFor(meta Metadata) *OutputBuffer {
	log := r.log.Logger.WithField("handle", meta.Handle)
	if meta.TerminalSequence == NoTerminal {
		return NewInlineBuffer(log)
	}
	return NewFileBuffer(log, r.files.Path(consoleDir, meta.Handle))
}

func (r *Registry) register(s *Session) {
	handle := s.Handle()

	if r.pw != nil && !s.Options().SmartTerminal {
		r.pw.Attach(s, true)
	}

	s.SubscribeExit(func(handle string, exitCode int) {
		if r.journal != nil {
			if err := r.journal.SessionExited(handle, exitCode); err != nil {
				r.log.WithError(err).Warn("journal exit")
			}
		}
		r.Save()
	})

	r.mu.Lock()
	r.procs[handle] = s
	n := len(r.procs)
	r.mu.Unlock()

	metrics.SessionsActive.Set(float64(n))

	if r.journal != nil {
		if err := r.journal.SessionCreated(handle, s.Metadata().Caption); err != nil {
			r.log.WithError(err).Warn("journal create")
		}
	}
}

func (r *Registry) get(handle string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.procs[handle]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidHandle, handle)
	}
	return s, nil
}

// Get returns the session for handle, or ErrInvalidHandle.
func (r *Registry) Get(handle string) (*Session, error) {
	return r.get(handle)
}

// Start spawns the session's child process.
func (r *Registry) Start(handle string) error {
	s, err := r.get(handle)
	if err != nil {
		return err
	}
	if err := s.Start(); err != nil {
		return err
	}
	r.Save()
	return nil
}

// Interrupt requests termination of the session's child.
func (r *Registry) Interrupt(handle string) error {
	s, err := r.get(handle)
	if err != nil {
		return err
	}
	s.Interrupt()
	return nil
}

// Resize records a pending dimension change for the session.
func (r *Registry) Resize(handle string, cols, rows int) error {
	s, err := r.get(handle)
	if err != nil {
		return err
	}
	if !s.Options().Pty {
		return fmt.Errorf("session %s has no pty", handle)
	}
	s.Resize(cols, rows)
	return nil
}

// SetCaption updates the session's caption and persists the index.
func (r *Registry) SetCaption(handle, caption string) error {
	s, err := r.get(handle)
	if err != nil {
		return err
	}
	s.SetCaption(caption)
	r.Save()
	return nil
}

// SetTitle updates the session's title.
func (r *Registry) SetTitle(handle, title string) error {
	s, err := r.get(handle)
	if err != nil {
		return err
	}
	s.SetTitle(title)
	return nil
}

// WriteStdin queues input for the session.
func (r *Registry) WriteStdin(handle string, in Input) error {
	s, err := r.get(handle)
	if err != nil {
		return err
	}
	if in.Interrupt && !s.Options().Pty {
		return fmt.Errorf("session %s has no pty", handle)
	}
	s.EnqueueInput(in)
	return nil
}

// EraseBuffer clears the session's retained output.
func (r *Registry) EraseBuffer(handle string) error {
	s, err := r.get(handle)
	if err != nil {
		return err
	}
	s.EraseBuffer()
	return nil
}

// GetBuffer returns the session's retained output for replay.
func (r *Registry) GetBuffer(handle string) (string, error) {
	s, err := r.get(handle)
	if err != nil {
		return "", err
	}
	return s.BufferedOutput(), nil
}

// Reap deletes the session's persisted output and removes it from the
// registry, persisting the updated index.
func (r *Registry) Reap(handle string) error {
	s, err := r.get(handle)
	if err != nil {
		return err
	}
	s.DeleteLogFile()

	r.mu.Lock()
	delete(r.procs, handle)
	n := len(r.procs)
	r.mu.Unlock()

	metrics.SessionsActive.Set(float64(n))

	if r.journal != nil {
		if err := r.journal.SessionReaped(handle); err != nil {
			r.log.WithError(err).Warn("journal reap")
		}
	}
	r.Save()
	return nil
}

// List returns metadata snapshots for all registered sessions, ordered by
// handle.
func (r *Registry) List() []Metadata {
	sessions := r.snapshot()
	metas := make([]Metadata, 0, len(sessions))
	for _, s := range sessions {
		metas = append(metas, s.Metadata())
	}
	return metas
}

func (r *Registry) snapshot() []*Session {
	r.mu.RLock()
	sessions := make([]*Session, 0, len(r.procs))
	for _, s := range r.procs {
		sessions = append(sessions, s)
	}
	r.mu.RUnlock()

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].Handle() < sessions[j].Handle()
	})
	return sessions
}

// SerializeAll renders every session's metadata as an ordered JSON array.
// When suspending, each session first flushes suspend-critical state. Bulk
// output is not serialized; file-backed logs stay on disk and inline
// buffers are dropped.
func (r *Registry) SerializeAll(suspending bool) ([]byte, error) {
	sessions := r.snapshot()
	metas := make([]Metadata, 0, len(sessions))
	for _, s := range sessions {
		if suspending {
			s.OnSuspend()
		}
		metas = append(metas, s.Metadata())
	}

	data, err := json.Marshal(metas)
	if err != nil {
		return nil, fmt.Errorf("serialize sessions: %w", err)
	}
	return data, nil
}

// DeserializeAll rebuilds sessions from persisted metadata. A malformed
// document is logged as a warning and treated as empty state.
func (r *Registry) DeserializeAll(data []byte) {
	if len(data) == 0 {
		return
	}

	var metas []Metadata
	if err := json.Unmarshal(data, &metas); err != nil {
		r.log.WithError(err).Warn("invalid session index, starting empty")
		return
	}

	for _, meta := range metas {
		if meta.Handle == "" {
			continue
		}
		if meta.MaxOutputLines <= 0 {
			meta.MaxOutputLines = r.maxOutputLines
		}

		// the spawn spec is not persisted; restored sessions take the
		// terminal shape and surface any liveness failure when next
		// observed
		s := r.buildSession(SpawnSpec{}, Options{Pty: true}, meta)
		r.register(s)

		r.mu.Lock()
		if meta.TerminalSequence >= r.nextTerminalSeq {
			r.nextTerminalSeq = meta.TerminalSequence + 1
		}
		r.mu.Unlock()
	}
}

// Load restores the registry from the index file, then removes any output
// log whose handle no longer corresponds to a loaded session. Per-file
// cleanup failures are logged and skipped.
func (r *Registry) Load() {
	data, err := r.files.Read(consoleDir, indexFile)
	if err != nil {
		if r.files.Exists(consoleDir, indexFile) {
			r.log.WithError(err).Error("read session index")
		}
		return
	}

	r.DeserializeAll(data)

	entries, err := r.files.List(consoleDir)
	if err != nil {
		r.log.WithError(err).Error("list console dir")
		return
	}
	for _, entry := range entries {
		if entry.Name() == indexFile || entry.IsDir() {
			continue
		}
		if _, err := r.get(entry.Name()); err == nil {
			continue
		}
		if err := r.files.Remove(consoleDir, entry.Name()); err != nil {
			r.log.WithError(err).WithField("file", entry.Name()).
				Warn("remove orphaned output log")
		}
	}
}

// Save persists the index. Failures are logged, never propagated; losing a
// persistence write must not abort the operation that triggered it.
func (r *Registry) Save() {
	data, err := r.SerializeAll(false)
	if err != nil {
		r.log.WithError(err).Error("serialize session index")
		return
	}
	if err := r.files.Write(data, consoleDir, indexFile); err != nil {
		r.log.WithError(err).Error("write session index")
	}
}

// Suspend serializes all session state for a host-wide pause and persists
// it, without waiting on in-flight child activity.
func (r *Registry) Suspend() {
	data, err := r.SerializeAll(true)
	if err != nil {
		r.log.WithError(err).Error("serialize session index")
		return
	}
	if err := r.files.Write(data, consoleDir, indexFile); err != nil {
		r.log.WithError(err).Error("write session index")
	}
}
