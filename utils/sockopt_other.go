//go:build !unix && !windows

package utils

import "syscall"

func listenControl(bool) func(network, address string, c syscall.RawConn) error {
	return nil
}
