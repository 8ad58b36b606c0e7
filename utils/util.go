package utils

import (
	"log"
	"net"
	"strconv"
	"strings"
)

func MustPort(addr string) int {
	_, p, err := net.SplitHostPort(addr)
	if err != nil {
		if strings.HasPrefix(addr, ":") {
			v, _ := strconv.Atoi(addr[1:])
			return v
		}
		log.Fatalf("invalid addr %q: %v", addr, err)
	}
	v, err := strconv.Atoi(p)
	if err != nil {
		log.Fatalf("invalid port in %q: %v", addr, err)
	}
	return v
}

// ValidPort reports whether p can be passed to a TCP or UDP bind. Zero asks
// the kernel for an ephemeral port.
func ValidPort(p int) bool {
	return p >= 0 && p <= 65535
}
