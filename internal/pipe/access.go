package pipe

import (
	"fmt"
	"regexp"
)

// AccessLocal is the `access/local` variant (§4.2): it runs its single
// child (normally a ShellWrapper) by feeding the child's composed
// program to `/bin/bash`'s stdin directly; no remote re-invocation is
// needed, so unlike AccessSSH its own cmdline does not append the
// child's cmdline.
type AccessLocal struct {
	Base
}

func NewAccessLocal() *AccessLocal {
	return &AccessLocal{}
}

func (a *AccessLocal) Cmdline() []string {
	return []string{"/bin/bash", "/dev/stdin"}
}

// AccessSSHConfig configures one SSH hop (§4.2 "access/ssh").
type AccessSSHConfig struct {
	Host                       string
	Port                       string
	User                       string
	Key                        string
	Password                   string
	PreferredAuthPasswordOnly  bool
}

// AccessSSH is the `access/ssh` variant: it prefixes an ssh invocation
// onto its child's cmdline (the remote command to execute), and, if a
// password is configured, installs the expect-rule state machine from
// §4.4 on stdout.
type AccessSSH struct {
	Base
	cfg AccessSSHConfig
	sm  *sshPasswordStateMachine
}

var passwordPromptPattern = regexp.MustCompile(`[Pp]assword:`)

func NewAccessSSH(cfg AccessSSHConfig) *AccessSSH {
	a := &AccessSSH{cfg: cfg}
	return a
}

func (a *AccessSSH) Cmdline() []string {
	argv := []string{"/usr/bin/ssh", "-t", "-q",
		"-o", "UserKnownHostsFile=/dev/null",
		"-o", "StrictHostKeyChecking=no",
	}
	if a.cfg.PreferredAuthPasswordOnly {
		argv = append(argv, "-o", "PreferredAuthentications=password")
	}
	if a.cfg.Key != "" {
		argv = append(argv, "-i", a.cfg.Key)
	}
	if a.cfg.Port != "" {
		argv = append(argv, "-p", a.cfg.Port)
	}
	target := a.cfg.Host
	if a.cfg.User != "" {
		target = fmt.Sprintf("%s@%s", a.cfg.User, a.cfg.Host)
	}
	argv = append(argv, target)
	argv = append(argv, a.Base.Cmdline()...)
	return argv
}

// ExpectStdout installs the §4.4 password state machine ahead of the
// child's own expect rules, if a password is configured.
func (a *AccessSSH) ExpectStdout() []*ExpectRule {
	child := a.Base.ExpectStdout()
	if a.cfg.Password == "" {
		return child
	}
	a.sm = newSSHPasswordStateMachine(a.cfg.Host, a.cfg.Password)
	rule := &ExpectRule{
		Pattern:    passwordPromptPattern,
		CallAlways: true,
		Repeat:     true,
		Callback:   a.sm.handle,
	}
	return append([]*ExpectRule{rule}, child...)
}

// CredentialChecker is implemented by access nodes that can fail
// authentication (§7 "InvalidCredentials(host)"); the stream thread
// type-asserts the root pipe against this after the read loop ends.
type CredentialChecker interface {
	CredentialError() error
}

// CredentialError returns the SSH auth failure recorded by the password
// state machine, if any, after ExpectStdout's rule has been exercised by
// the stream thread's read loop.
func (a *AccessSSH) CredentialError() error {
	if a.sm == nil {
		return nil
	}
	return a.sm.Failed
}
