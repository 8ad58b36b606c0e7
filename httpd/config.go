package httpd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"coi-devserver/utils"
)

const (
	DefaultPort      = 8001
	DefaultIndexFile = "index.html"
	DefaultIOTimeout = 30 * time.Second
)

// ServerConfig is built once at startup and passed by value; the server
// never mutates it.
type ServerConfig struct {
	BindAddress string // empty means the wildcard of the chosen family
	Port        int
	ServedRoot  string // absolute
	DualStack   bool

	IndexFile string        // served for directory requests; empty disables it
	IOTimeout time.Duration // absolute deadline per connection; zero disables it
	MaxConns  int           // concurrent connection cap; zero is unlimited
	Quiet     bool          // suppress per-request console notices
}

// DefaultConfig mirrors the stock behaviour: port 8001, dual-stack, current
// directory.
func DefaultConfig() ServerConfig {
	root, err := os.Getwd()
	if err != nil {
		root = "."
	}
	return ServerConfig{
		Port:       DefaultPort,
		ServedRoot: root,
		DualStack:  true,
		IndexFile:  DefaultIndexFile,
		IOTimeout:  DefaultIOTimeout,
	}
}

func (c ServerConfig) Validate() error {
	if !utils.ValidPort(c.Port) {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if !filepath.IsAbs(c.ServedRoot) {
		return fmt.Errorf("served root %q is not absolute", c.ServedRoot)
	}
	fi, err := os.Stat(c.ServedRoot)
	if err != nil {
		return fmt.Errorf("served root: %w", err)
	}
	if !fi.IsDir() {
		return fmt.Errorf("served root %q is not a directory", c.ServedRoot)
	}
	if c.MaxConns < 0 {
		return fmt.Errorf("invalid connection limit %d", c.MaxConns)
	}
	if c.IOTimeout < 0 {
		return fmt.Errorf("invalid timeout %s", c.IOTimeout)
	}
	return nil
}

// Family describes the address families the listener accepts.
func (c ServerConfig) Family() string {
	if c.DualStack {
		return "IPv6 + IPv4"
	}
	return "IPv4"
}
