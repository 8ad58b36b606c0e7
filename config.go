package main

import (
	"flag"
	"fmt"
	"io"
	"path/filepath"

	"coi-devserver/httpd"
)

type appConfig struct {
	HTTP httpd.ServerConfig
	TFTP string // listen address, empty disables
	NFS  string // listen address, empty disables
}

func parseConfig(args []string, stderr io.Writer) (appConfig, error) {
	def := httpd.DefaultConfig()

	fs := flag.NewFlagSet("coi-devserver", flag.ContinueOnError)
	fs.SetOutput(stderr)
	port := fs.Int("port", def.Port, "TCP port to serve HTTP on")
	bind := fs.String("bind", "", "address to bind (default: wildcard of the address family)")
	root := fs.String("root", ".", "directory to serve")
	dual := fs.Bool("dual-stack", def.DualStack, "accept IPv6 and IPv4 on one socket")
	index := fs.String("index", def.IndexFile, "file served for directory requests; empty disables")
	timeout := fs.Duration("timeout", def.IOTimeout, "per-connection I/O deadline; 0 disables")
	maxConns := fs.Int("max-conns", 0, "maximum concurrent connections; 0 is unlimited")
	quiet := fs.Bool("quiet", false, "do not print a notice per request")
	tftpAddr := fs.String("tftp", "", "also export the root over TFTP on this address (e.g. :69)")
	nfsAddr := fs.String("nfs", "", "also export the root over NFSv3 on this address (e.g. :2049)")
	if err := fs.Parse(args); err != nil {
		return appConfig{}, err
	}
	if fs.NArg() > 0 {
		return appConfig{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	absRoot, err := filepath.Abs(*root)
	if err != nil {
		return appConfig{}, fmt.Errorf("resolve root: %w", err)
	}

	cfg := appConfig{
		HTTP: httpd.ServerConfig{
			BindAddress: *bind,
			Port:        *port,
			ServedRoot:  absRoot,
			DualStack:   *dual,
			IndexFile:   *index,
			IOTimeout:   *timeout,
			MaxConns:    *maxConns,
			Quiet:       *quiet,
		},
		TFTP: *tftpAddr,
		NFS:  *nfsAddr,
	}
	if err := cfg.HTTP.Validate(); err != nil {
		return appConfig{}, err
	}
	return cfg, nil
}
