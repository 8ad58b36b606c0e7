package tftp

import (
	"fmt"
	"io"
	"log"
	"net"
	"time"

	"github.com/go-git/go-billy/v5"
	tftp "github.com/pin/tftp/v3"

	"coi-devserver/rootfs"
	"coi-devserver/utils"
)

// Server is a read-only TFTP export of the served root.
type Server struct {
	srv  *tftp.Server
	conn *net.UDPConn
}

func (s *Server) Addr() net.Addr {
	return s.conn.LocalAddr()
}

// Shutdown stops the server and waits for running transfers.
func (s *Server) Shutdown() {
	s.srv.Shutdown()
}

func serveFile(fsys billy.Filesystem, filename string, rf io.ReaderFrom) error {
	name, err := rootfs.Clean(filename)
	if err != nil {
		return err
	}
	fi, err := fsys.Stat(name)
	if err != nil {
		return err
	}
	if !fi.Mode().IsRegular() {
		return fmt.Errorf("%q is not a regular file", filename)
	}
	f, err := fsys.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()
	if ot, ok := rf.(tftp.OutgoingTransfer); ok {
		ot.SetSize(fi.Size())
	}
	_, err = rf.ReadFrom(f)
	return err
}

// StartTFTPServer serves files of fsys over TFTP. Write requests are refused.
func StartTFTPServer(addr string, fsys billy.Filesystem, timeout time.Duration, logger *log.Logger) (*Server, error) {
	if addr == "" {
		addr = ":69"
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, &utils.BindError{Network: "udp", Addr: addr, Err: err}
	}

	readHandler := func(filename string, rf io.ReaderFrom) error {
		if err := serveFile(fsys, filename, rf); err != nil {
			logger.Printf("RRQ %q failed: %v", filename, err)
			return err
		}
		logger.Printf("RRQ %q sent", filename)
		return nil
	}

	srv := tftp.NewServer(readHandler, nil)
	if timeout > 0 {
		srv.SetTimeout(timeout)
	}

	go func() {
		logger.Printf("TFTP server listening on %s", conn.LocalAddr())
		if err := srv.Serve(conn); err != nil {
			logger.Printf("TFTP server error: %v", err)
		}
	}()
	return &Server{srv: srv, conn: conn}, nil
}
