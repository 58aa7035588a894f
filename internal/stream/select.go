package stream

import (
	"time"

	"golang.org/x/sys/unix"
)

// waitReadable blocks until fd is readable or timeout elapses, per
// §4.5 "select on the pty fd with 100 ms timeout". EINTR is treated as
// a spurious wakeup (not readable).
func waitReadable(fd int, timeout time.Duration) (bool, error) {
	var rfds unix.FdSet
	fdSet(&rfds, fd)
	tv := unix.NsecToTimeval(timeout.Nanoseconds())
	n, err := unix.Select(fd+1, &rfds, nil, nil, &tv)
	if err == unix.EINTR {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func fdSet(set *unix.FdSet, fd int) {
	set.Bits[fd/64] |= 1 << (uint(fd) % 64)
}
