package utils

import (
	"context"
	"fmt"
	"net"
	"strconv"
)

// BindError reports a listener that could not be bound. It is fatal at startup.
type BindError struct {
	Network string
	Addr    string
	Err     error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("bind %s %s: %v", e.Network, e.Addr, e.Err)
}

func (e *BindError) Unwrap() error { return e.Err }

// WildcardAddr returns the address that accepts every peer of the family:
// "::" for dual-stack, "0.0.0.0" otherwise.
func WildcardAddr(dualStack bool) string {
	if dualStack {
		return "::"
	}
	return "0.0.0.0"
}

// ListenNetwork picks the network name for net.ListenConfig.Listen.
// An IPv4-only listener is forced onto tcp4 so "0.0.0.0" never turns into
// a dual-stack socket.
func ListenNetwork(host string, dualStack bool) string {
	if dualStack {
		return "tcp"
	}
	if ip := net.ParseIP(host); ip != nil && ip.To4() == nil {
		return "tcp6"
	}
	return "tcp4"
}

// ListenTCP binds host:port with SO_REUSEADDR set and, for IPv6 sockets,
// IPV6_V6ONLY cleared when dualStack is true.
func ListenTCP(ctx context.Context, host string, port int, dualStack bool) (net.Listener, error) {
	if host == "" {
		host = WildcardAddr(dualStack)
	}
	network := ListenNetwork(host, dualStack)
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	lc := net.ListenConfig{Control: listenControl(dualStack)}
	ln, err := lc.Listen(ctx, network, addr)
	if err != nil {
		return nil, &BindError{Network: network, Addr: addr, Err: err}
	}
	return ln, nil
}

// DisplayHost turns a bind address into something a browser can open.
// Wildcards become "localhost".
func DisplayHost(host string) string {
	switch host {
	case "", "::", "0.0.0.0":
		return "localhost"
	}
	if ip := net.ParseIP(host); ip != nil && ip.To4() == nil {
		return "[" + host + "]"
	}
	return host
}
