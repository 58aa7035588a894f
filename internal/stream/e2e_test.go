package stream

import (
	"testing"

	"github.com/intel/streambench/internal/pipe"
)

// fakeSSHHop drives AccessSSH's real password state machine against a
// local script instead of a live ssh connection, matching §8 scenario
// 4's "synthetic server" (one `Password:` prompt, then echoed output).
type fakeSSHHop struct {
	*pipe.AccessSSH
	script string
}

func (f *fakeSSHHop) Cmdline() []string { return []string{"/bin/bash", "-c", f.script} }

type capturingListener struct {
	lines []string
}

func (c *capturingListener) OnStdout(line string) { c.lines = append(c.lines, line) }
func (c *capturingListener) OnStderr(line string) {}
func (c *capturingListener) OnEOF()               {}

// TestEndToEndSSHPasswordPromptThenAppLines is §8 scenario 4: a real pty
// child prints one `Password:` prompt, the state machine replies once,
// the rule is removed once the prompt stops reappearing, and the app
// lines that follow reach the listener untouched.
func TestEndToEndSSHPasswordPromptThenAppLines(t *testing.T) {
	hop := &fakeSSHHop{
		AccessSSH: pipe.NewAccessSSH(pipe.AccessSSHConfig{Host: "dut1", Password: "secret"}),
		script:    `printf 'Password:'; read -r pw; echo authenticated; echo app-line-1; echo app-line-2`,
	}
	listener := &capturingListener{}
	hop.Listen(listener)

	s := New("ssh-demo", 0, 0, 0, hop, nil)
	s.Run()

	if s.Err() != nil {
		t.Fatalf("unexpected error: %v", s.Err())
	}
	if s.ReturnCode() != 0 {
		t.Fatalf("returncode = %d, want 0", s.ReturnCode())
	}
	if err := hop.CredentialError(); err != nil {
		t.Fatalf("unexpected credential error: %v", err)
	}

	want := []string{"authenticated", "app-line-1", "app-line-2"}
	if len(listener.lines) != len(want) {
		t.Fatalf("lines = %v, want %v", listener.lines, want)
	}
	for i, w := range want {
		if listener.lines[i] != w {
			t.Fatalf("lines[%d] = %q, want %q", i, listener.lines[i], w)
		}
	}
}
