package utils

import (
	"context"
	"errors"
	"net"
	"testing"
)

func TestListenNetwork(t *testing.T) {
	cases := []struct {
		host string
		dual bool
		want string
	}{
		{"::", true, "tcp"},
		{"0.0.0.0", false, "tcp4"},
		{"127.0.0.1", false, "tcp4"},
		{"::1", false, "tcp6"},
		{"localhost", false, "tcp4"},
	}
	for _, c := range cases {
		if got := ListenNetwork(c.host, c.dual); got != c.want {
			t.Fatalf("ListenNetwork(%q, %v)=%s want=%s", c.host, c.dual, got, c.want)
		}
	}
}

func TestDisplayHost(t *testing.T) {
	cases := map[string]string{
		"":          "localhost",
		"::":        "localhost",
		"0.0.0.0":   "localhost",
		"127.0.0.1": "127.0.0.1",
		"::1":       "[::1]",
	}
	for in, want := range cases {
		if got := DisplayHost(in); got != want {
			t.Fatalf("DisplayHost(%q)=%s want=%s", in, got, want)
		}
	}
}

func TestListenTCPReportsBindError(t *testing.T) {
	ln, err := ListenTCP(context.Background(), "127.0.0.1", 0, false)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	port := ln.Addr().(*net.TCPAddr).Port

	// SO_REUSEADDR does not allow two live listeners on one port.
	_, err = ListenTCP(context.Background(), "127.0.0.1", port, false)
	var be *BindError
	if !errors.As(err, &be) {
		t.Fatalf("expected *BindError, got %v", err)
	}
	if be.Network != "tcp4" {
		t.Fatalf("network=%s want=tcp4", be.Network)
	}
}
