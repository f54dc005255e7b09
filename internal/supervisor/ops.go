package supervisor

import (
	"fmt"
	"io"
	"os"
	"os/exec"

	ptylib "github.com/creack/pty"
	"golang.org/x/sys/unix"
)

// interruptChar is the pty interrupt byte (^C), delivered through the line
// discipline so the foreground process group receives SIGINT.
const interruptChar = 0x03

// child implements console.ProcessOperations for one spawned process.
type child struct {
	cmd               *exec.Cmd
	ptmx              *os.File // master side; nil without a pty
	stdin             io.WriteCloser
	terminateChildren bool
}

func (c *child) WriteToStdin(text string) error {
	var err error
	if c.ptmx != nil {
		_, err = io.WriteString(c.ptmx, text)
	} else {
		_, err = io.WriteString(c.stdin, text)
	}
	if err != nil {
		return fmt.Errorf("write stdin: %w", err)
	}
	return nil
}

func (c *child) PtyInterrupt() error {
	if c.ptmx == nil {
		return fmt.Errorf("session has no pty")
	}
	if _, err := c.ptmx.Write([]byte{interruptChar}); err != nil {
		return fmt.Errorf("pty interrupt: %w", err)
	}
	return nil
}

func (c *child) PtySetSize(cols, rows int) error {
	if c.ptmx == nil {
		return fmt.Errorf("session has no pty")
	}
	err := ptylib.Setsize(c.ptmx, &ptylib.Winsize{
		Cols: uint16(cols),
		Rows: uint16(rows),
	})
	if err != nil {
		return fmt.Errorf("pty set size: %w", err)
	}
	return nil
}

// Terminate signals the child, extending to its process group when child
// termination cascades. The pty child is its session leader; non-pty
// children are started with Setpgid for the same reason.
func (c *child) Terminate() error {
	proc := c.cmd.Process
	if proc == nil {
		return fmt.Errorf("process not started")
	}
	if c.terminateChildren {
		if err := unix.Kill(-proc.Pid, unix.SIGTERM); err == nil {
			return nil
		}
	}
	if err := proc.Signal(unix.SIGTERM); err != nil {
		return fmt.Errorf("terminate: %w", err)
	}
	return nil
}
