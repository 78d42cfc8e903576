//go:build linux || darwin || freebsd || netbsd || openbsd

package source

import (
	"io"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

const hangup = unix.POLLHUP | unix.POLLERR

// available asks the kernel how many bytes are buffered on fd. Descriptors which
// do not support FIONREAD (character devices such as /dev/null) fall back to a
// zero timeout poll, reporting a single byte when a read would not block.
func available(fd uintptr) (int, error) {
	n, err := unix.IoctlGetInt(int(fd), unix.FIONREAD)
	switch {
	case err == nil && n > 0:
		return n, nil
	case err != nil && err != unix.ENOTTY && err != unix.EINVAL:
		return 0, errors.Wrap(err, "FIONREAD")
	}
	ioctlOK := err == nil
	fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
	_, err = unix.Poll(fds, 0)
	switch {
	case err == unix.EINTR:
		return 0, nil
	case err != nil:
		return 0, errors.Wrap(err, "poll")
	case fds[0].Revents&unix.POLLNVAL != 0:
		return 0, ErrClosed
	case !ioctlOK && fds[0].Revents&unix.POLLIN != 0:
		return 1, nil
	case fds[0].Revents&hangup != 0:
		// the writer may have written and hung up after the first query.
		if n, err := unix.IoctlGetInt(int(fd), unix.FIONREAD); err == nil && n > 0 {
			return n, nil
		}
		return 0, io.EOF
	}
	return 0, nil
}
