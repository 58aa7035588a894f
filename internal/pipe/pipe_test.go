package pipe

import (
	"strings"
	"testing"
)

func TestShellWrapperDemuxRoutesByTag(t *testing.T) {
	w := NewShellWrapper()
	a := NewApp("/bin/echo", []string{"hi"}, nil, "")
	w.AddChild(a)

	var got []string
	a.Listen(recorderListener{&got})

	var logs []string
	w.Dispatch("::0::hello", func(echelon, payload string) { logs = append(logs, echelon+":"+payload) })
	w.Dispatch("::W::careful", func(echelon, payload string) { logs = append(logs, echelon+":"+payload) })
	w.Dispatch("not-tagged", func(echelon, payload string) { logs = append(logs, echelon+":"+payload) })

	if len(got) != 1 || got[0] != "hello" {
		t.Fatalf("got = %v", got)
	}
	if len(logs) != 1 || logs[0] != "W:careful" {
		t.Fatalf("logs = %v", logs)
	}
}

type recorderListener struct {
	lines *[]string
}

func (r recorderListener) OnStdout(line string) { *r.lines = append(*r.lines, line) }
func (r recorderListener) OnStderr(line string) {}
func (r recorderListener) OnEOF()               {}

func TestAccessSSHCmdlineIncludesChild(t *testing.T) {
	w := NewShellWrapper()
	ssh := NewAccessSSH(AccessSSHConfig{Host: "dut1", User: "bob"})
	ssh.AddChild(w)
	argv := ssh.Cmdline()
	if argv[0] != "/usr/bin/ssh" {
		t.Fatalf("argv[0] = %q", argv[0])
	}
	joined := strings.Join(argv, " ")
	if !strings.Contains(joined, "bob@dut1") {
		t.Fatalf("missing user@host: %v", argv)
	}
	if !strings.Contains(joined, "stdbuf") {
		t.Fatalf("missing child cmdline: %v", argv)
	}
}

func TestFileGenProducesHeredoc(t *testing.T) {
	fg := NewFileGen("/tmp/x", "hello\nworld")
	argv := fg.Cmdline()
	if argv[0] != "eval" {
		t.Fatalf("argv[0] = %q", argv[0])
	}
	if !strings.Contains(argv[1], "hello\nworld") {
		t.Fatalf("missing contents: %q", argv[1])
	}
}

func TestSSHPasswordStateMachineAuthenticates(t *testing.T) {
	sm := newSSHPasswordStateMachine("dut1", "secret")
	action := sm.handle("Password:", true, nil)
	if !action.HasReply || action.Reply != "secret\r\n\r\n" {
		t.Fatalf("first prompt action = %+v", action)
	}
	action = sm.handle("some app output", false, nil)
	if !action.Remove {
		t.Fatalf("expected Remove after prompt disappears, got %+v", action)
	}
	if sm.Failed != nil {
		t.Fatalf("unexpected failure: %v", sm.Failed)
	}
}

func TestSSHPasswordStateMachineRejectsWrongPassword(t *testing.T) {
	sm := newSSHPasswordStateMachine("dut1", "wrong")
	sm.handle("Password:", true, nil)
	sm.handle("Password:", true, nil) // same line repeats -> rejected
	if sm.Failed == nil {
		t.Fatal("expected InvalidCredentialsError")
	}
}
