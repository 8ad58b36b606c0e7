//go:build unix

package utils

import (
	"syscall"

	"golang.org/x/sys/unix"
)

func listenControl(dualStack bool) func(network, address string, c syscall.RawConn) error {
	return func(network, address string, c syscall.RawConn) error {
		var serr error
		err := c.Control(func(fd uintptr) {
			serr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
			if serr != nil || network != "tcp6" {
				return
			}
			v6only := 1
			if dualStack {
				v6only = 0
			}
			serr = unix.SetsockoptInt(int(fd), unix.IPPROTO_IPV6, unix.IPV6_V6ONLY, v6only)
		})
		if err != nil {
			return err
		}
		return serr
	}
}
