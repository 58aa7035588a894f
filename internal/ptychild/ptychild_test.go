package ptychild

import (
	"syscall"
	"testing"
)

func TestSpawnAndWaitEchoExitsZero(t *testing.T) {
	c, err := Spawn([]string{"/bin/echo", "hi"})
	if err != nil {
		t.Skipf("pty unavailable in this environment: %v", err)
	}
	defer c.Close()
	rc := c.Wait()
	if rc != 0 {
		t.Fatalf("exit code = %d, want 0", rc)
	}
}

func TestSendSignalIgnoresNoSuchProcess(t *testing.T) {
	c, err := Spawn([]string{"/bin/true"})
	if err != nil {
		t.Skipf("pty unavailable in this environment: %v", err)
	}
	defer c.Close()
	c.Wait()
	if err := c.SendSignal(syscall.SIGINT); err != nil {
		t.Fatalf("SendSignal after exit: %v", err)
	}
}
