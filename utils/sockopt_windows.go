//go:build windows

package utils

import (
	"syscall"

	"golang.org/x/sys/windows"
)

// SO_REUSEADDR on Windows lets another process steal the port, so only the
// IPv6 family option is touched here.
func listenControl(dualStack bool) func(network, address string, c syscall.RawConn) error {
	return func(network, address string, c syscall.RawConn) error {
		if network != "tcp6" {
			return nil
		}
		v6only := 1
		if dualStack {
			v6only = 0
		}
		var serr error
		err := c.Control(func(fd uintptr) {
			serr = windows.SetsockoptInt(windows.Handle(fd), windows.IPPROTO_IPV6, windows.IPV6_V6ONLY, v6only)
		})
		if err != nil {
			return err
		}
		return serr
	}
}
