/*
Package ptychild spawns a child process under a pseudo-terminal and
exposes its combined stdio as a single bidirectional byte stream
(spec.md §4.1 "Pty child").

Grounded on the only pty usage found across the retrieval pack
(other_examples' wingthing egg-server, using github.com/creack/pty) and
on intel-svr-info's target.go for the process lifecycle shape
(RunCommandWithTimeout's wait/signal/exit-code handling).
*/
package ptychild

import (
	"fmt"
	"os"
	"os/exec"
	"sync"
	"syscall"

	"github.com/creack/pty"
	"golang.org/x/sys/unix"
)

// Child is a process running under a pty. poll/wait/close are all safe
// to call concurrently with writes to Fd (§4.1 "poll must be safe to
// call concurrently with writes").
type Child struct {
	cmd *exec.Cmd
	Fd  *os.File

	mu         sync.Mutex
	returncode *int
	waited     bool
}

// Spawn starts argv[0] with argv[1:] under a new pty, disabling local
// echo before returning (§4.1 "local echo disabled before the first
// write").
func Spawn(argv []string) (*Child, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("ptychild: empty argv")
	}
	cmd := exec.Command(argv[0], argv[1:]...)
	f, err := pty.Start(cmd)
	if err != nil {
		return nil, fmt.Errorf("ptychild: start: %w", err)
	}
	if err := disableLocalEcho(f); err != nil {
		_ = f.Close()
		_ = cmd.Process.Kill()
		return nil, fmt.Errorf("ptychild: disable echo: %w", err)
	}
	return &Child{cmd: cmd, Fd: f}, nil
}

// Setsize resizes the pty window, used by callers that care about
// column-sensitive output (most benchmark apps don't, but some format
// output based on tty width).
func (c *Child) Setsize(rows, cols uint16) error {
	return pty.Setsize(c.Fd, &pty.Winsize{Rows: rows, Cols: cols})
}

// Poll is non-blocking: it returns the exit code (or signal-derived
// pseudo-code) if the child has already exited, or ok=false if it is
// still running.
func (c *Child) Poll() (code int, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.returncode != nil {
		return *c.returncode, true
	}
	var ws syscall.WaitStatus
	pid, err := syscall.Wait4(c.cmd.Process.Pid, &ws, syscall.WNOHANG, nil)
	if err != nil || pid == 0 {
		return 0, false
	}
	rc := decodeStatus(ws)
	c.returncode = &rc
	return rc, true
}

// Wait blocks until the child exits, retrying on EINTR (§4.1 "wait()
// blocks; retries on interruption").
func (c *Child) Wait() int {
	c.mu.Lock()
	if c.returncode != nil {
		rc := *c.returncode
		c.mu.Unlock()
		return rc
	}
	c.mu.Unlock()

	var ws syscall.WaitStatus
	for {
		_, err := syscall.Wait4(c.cmd.Process.Pid, &ws, 0, nil)
		if err == syscall.EINTR {
			continue
		}
		break
	}
	rc := decodeStatus(ws)
	c.mu.Lock()
	c.returncode = &rc
	c.mu.Unlock()
	return rc
}

// decodeStatus implements §4.1's exit status decoding: signaled →
// -signum, exited normally → exit code.
func decodeStatus(ws syscall.WaitStatus) int {
	if ws.Signaled() {
		return -int(ws.Signal())
	}
	return ws.ExitStatus()
}

// SendSignal silently ignores "no such process" (§4.1 "the driver
// relies on this to fire SIGINT during teardown races").
func (c *Child) SendSignal(sig syscall.Signal) error {
	err := c.cmd.Process.Signal(sig)
	if err == syscall.ESRCH || err == os.ErrProcessDone {
		return nil
	}
	return err
}

// Terminate sends SIGTERM, ignoring "no such process".
func (c *Child) Terminate() error {
	return c.SendSignal(syscall.SIGTERM)
}

// Close closes the pty fd. Double-close is tolerated (§5 "Pty fd
// lifecycle... double-close must be tolerated").
func (c *Child) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Fd == nil {
		return nil
	}
	err := c.Fd.Close()
	c.Fd = nil
	return err
}

// disableLocalEcho clears only the ECHO bit, leaving ICANON (and ISIG)
// untouched so canonical-mode EOF-on-Ctrl-D semantics still apply to
// the stdin EOT byte (§4.5 step 3); term.MakeRaw would clear ICANON too
// and is not what's wanted here.
func disableLocalEcho(f *os.File) error {
	fd := int(f.Fd())
	t, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return err
	}
	t.Lflag &^= unix.ECHO
	return unix.IoctlSetTermios(fd, unix.TCSETS, t)
}
