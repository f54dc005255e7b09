package console

import (
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/olebedev/emitter"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/openconsole/openconsole/pkg/types"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testLog() *logrus.Entry {
	return testLogger().WithField("test", true)
}

// fakeOps records process operations in arrival order so tests can assert
// FIFO delivery across input kinds.
type fakeOps struct {
	mu  sync.Mutex
	ops []string
}

func (f *fakeOps) record(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, op)
}

func (f *fakeOps) WriteToStdin(text string) error {
	f.record("write:" + text)
	return nil
}

func (f *fakeOps) PtyInterrupt() error {
	f.record("interrupt")
	return nil
}

func (f *fakeOps) PtySetSize(cols, rows int) error {
	f.record(fmt.Sprintf("resize:%dx%d", cols, rows))
	return nil
}

func (f *fakeOps) Terminate() error {
	f.record("terminate")
	return nil
}

func (f *fakeOps) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.ops...)
}

type spawnCall struct {
	mode    string
	command string
	program string
	args    []string
	opts    Options
	cb      Callbacks
}

// fakeSupervisor records spawn requests and hands the callbacks back to the
// test, which drives them directly instead of running a real child. A
// non-nil stall channel parks every spawn until the test closes it.
type fakeSupervisor struct {
	stall chan struct{}

	mu    sync.Mutex
	calls []spawnCall
}

func (f *fakeSupervisor) record(call spawnCall) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
	if f.stall != nil {
		<-f.stall
	}
}

func (f *fakeSupervisor) RunCommand(command string, opts Options, cb Callbacks) error {
	f.record(spawnCall{mode: "command", command: command, opts: opts, cb: cb})
	return nil
}

func (f *fakeSupervisor) RunProgram(program string, args []string, opts Options, cb Callbacks) error {
	f.record(spawnCall{mode: "program", program: program, args: args, opts: opts, cb: cb})
	return nil
}

func (f *fakeSupervisor) RunTerminal(opts Options, cb Callbacks) error {
	f.record(spawnCall{mode: "terminal", opts: opts, cb: cb})
	return nil
}

func (f *fakeSupervisor) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeSupervisor) last(t *testing.T) spawnCall {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.calls, "no spawn call recorded")
	return f.calls[len(f.calls)-1]
}

// waitEvent blocks until one event arrives on ch; emission is asynchronous.
func waitEvent(t *testing.T, ch <-chan emitter.Event) types.Event {
	t.Helper()
	select {
	case ev := <-ch:
		got, ok := ev.Args[0].(types.Event)
		require.True(t, ok, "event payload has unexpected type %T", ev.Args[0])
		return got
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return types.Event{}
	}
}

func expectNoEvent(t *testing.T, ch <-chan emitter.Event) {
	t.Helper()
	select {
	case ev := <-ch:
		t.Fatalf("unexpected event: %+v", ev.Args)
	case <-time.After(100 * time.Millisecond):
	}
}
