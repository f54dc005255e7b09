package supervisor

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	ptylib "github.com/creack/pty"
	"github.com/sirupsen/logrus"

	"github.com/openconsole/openconsole/internal/console"
)

const defaultPollInterval = 50 * time.Millisecond

// subprocsEveryNTicks spaces out the /proc child-process scan.
const subprocsEveryNTicks = 10

// Supervisor spawns console children and drives their callbacks: a reader
// goroutine feeds output chunks while a ticker invokes the per-tick
// continuation. It implements console.Supervisor.
type Supervisor struct {
	log          *logrus.Entry
	pollInterval time.Duration
	wg           sync.WaitGroup
}

// New creates a supervisor polling at the given interval.
func New(log *logrus.Logger, pollInterval time.Duration) *Supervisor {
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	return &Supervisor{
		log:          log.WithField("component", "supervisor"),
		pollInterval: pollInterval,
	}
}

// RunCommand spawns a shell command line.
func (s *Supervisor) RunCommand(command string, opts console.Options, cb console.Callbacks) error {
	return s.run(exec.Command("/bin/sh", "-c", command), opts, cb)
}

// RunProgram spawns a program with arguments.
func (s *Supervisor) RunProgram(program string, args []string, opts console.Options, cb console.Callbacks) error {
	return s.run(exec.Command(program, args...), opts, cb)
}

// RunTerminal spawns the user's shell on a pseudo-terminal.
func (s *Supervisor) RunTerminal(opts console.Options, cb console.Callbacks) error {
	shell := os.Getenv("SHELL")
	if shell == "" {
		for _, sh := range []string{"/bin/bash", "/bin/sh"} {
			if _, err := os.Stat(sh); err == nil {
				shell = sh
				break
			}
		}
	}
	if shell == "" {
		return fmt.Errorf("no shell found")
	}

	opts.Pty = true
	return s.run(exec.Command(shell), opts, cb)
}

func (s *Supervisor) run(cmd *exec.Cmd, opts console.Options, cb console.Callbacks) error {
	cmd.Dir = opts.WorkingDir

	env := os.Environ()
	for k, v := range opts.Env {
		env = append(env, k+"="+v)
	}
	if opts.Pty {
		// a smart terminal renders escape sequences client-side; everyone
		// else gets a dumb TERM so programs keep their output plain
		term := "dumb"
		if opts.SmartTerminal {
			term = "xterm-256color"
		}
		env = append(env, "TERM="+term)
	}
	cmd.Env = env

	c := &child{cmd: cmd, terminateChildren: opts.TerminateChildren}

	var output io.ReadCloser
	if opts.Pty {
		ptmx, err := ptylib.StartWithSize(cmd, &ptylib.Winsize{
			Cols: uint16(opts.Cols),
			Rows: uint16(opts.Rows),
		})
		if err != nil {
			return fmt.Errorf("start pty: %w", err)
		}
		c.ptmx = ptmx
		output = ptmx
	} else {
		stdin, err := cmd.StdinPipe()
		if err != nil {
			return fmt.Errorf("stdin pipe: %w", err)
		}
		pr, pw, err := os.Pipe()
		if err != nil {
			return fmt.Errorf("output pipe: %w", err)
		}
		// stderr interleaved into the same stream
		cmd.Stdout = pw
		cmd.Stderr = pw
		if opts.TerminateChildren {
			cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
		}
		if err := cmd.Start(); err != nil {
			pw.Close()
			pr.Close()
			return fmt.Errorf("start process: %w", err)
		}
		pw.Close()
		c.stdin = stdin
		output = pr
	}

	s.wg.Add(1)
	go s.drive(c, cb, output)
	return nil
}

// drive is the per-child driver loop. Output EOF (pipe closed, or EIO from
// the pty on exit) is the exit signal; the loop then reaps the child.
func (s *Supervisor) drive(c *child, cb console.Callbacks, output io.ReadCloser) {
	defer s.wg.Done()

	outCh := make(chan string, 64)
	go func() {
		defer close(outCh)
		buf := make([]byte, 4096)
		for {
			n, err := output.Read(buf)
			if n > 0 {
				outCh <- string(buf[:n])
			}
			if err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	stopping := false
	ticks := 0
	for {
		select {
		case chunk, ok := <-outCh:
			if !ok {
				s.finish(c, cb, output)
				return
			}
			if cb.OnOutput != nil {
				cb.OnOutput(c, chunk)
			}

		case <-ticker.C:
			if !stopping && cb.OnContinue != nil && !cb.OnContinue(c) {
				stopping = true
				if err := c.Terminate(); err != nil {
					s.log.WithError(err).Error("terminate child")
				}
				continue
			}
			if cb.OnHasSubprocs != nil && c.cmd.Process != nil {
				if ticks%subprocsEveryNTicks == 0 {
					cb.OnHasSubprocs(hasSubprocs(c.cmd.Process.Pid))
				}
				ticks++
			}
		}
	}
}

func (s *Supervisor) finish(c *child, cb console.Callbacks, output io.ReadCloser) {
	err := c.cmd.Wait()
	output.Close()

	code := 0
	if c.cmd.ProcessState != nil {
		code = c.cmd.ProcessState.ExitCode()
	}
	if code < 0 {
		// killed by signal
		code = 1
	}
	if err != nil && c.cmd.ProcessState == nil {
		s.log.WithError(err).Error("wait for child")
		code = 1
	}

	if cb.OnExit != nil {
		cb.OnExit(code)
	}
}

// Wait blocks until every driver loop has finished.
func (s *Supervisor) Wait() {
	s.wg.Wait()
}
