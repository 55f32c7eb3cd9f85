//go:build linux

package transport

import (
	"io"
	"syscall"

	"golang.org/x/sys/unix"
)

// kernelPending asks the kernel how many bytes wait in the receive queue.
func kernelPending(conn io.ReadWriteCloser) (int, error) {
	sc, ok := conn.(syscall.Conn)
	if !ok {
		return 0, nil
	}
	raw, err := sc.SyscallConn()
	if err != nil {
		return 0, err
	}

	var n int
	var ioctlErr error
	if err := raw.Control(func(fd uintptr) {
		n, ioctlErr = unix.IoctlGetInt(int(fd), unix.TIOCINQ)
	}); err != nil {
		return 0, err
	}
	return n, ioctlErr
}
