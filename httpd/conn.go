package httpd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"net/http"
	"net/url"
	"os"
	"path"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5"

	"coi-devserver/rootfs"
)

// ConnState is a step in the life of one connection:
// Accepted → ParsingRequest → ResolvingPath → ServingFile|ServingError → Closed.
type ConnState int

const (
	StateAccepted ConnState = iota
	StateParsingRequest
	StateResolvingPath
	StateServingFile
	StateServingError
	StateClosed
)

var connStateNames = [...]string{
	StateAccepted:       "accepted",
	StateParsingRequest: "parsing-request",
	StateResolvingPath:  "resolving-path",
	StateServingFile:    "serving-file",
	StateServingError:   "serving-error",
	StateClosed:         "closed",
}

func (c ConnState) String() string {
	if c >= 0 && int(c) < len(connStateNames) {
		return connStateNames[c]
	}
	return "ConnState(" + strconv.Itoa(int(c)) + ")"
}

// lingerTimeout bounds how long a closed-for-writing connection is drained
// so the peer reads the response before it sees a reset.
const lingerTimeout = 250 * time.Millisecond

type redirectError struct {
	location string
}

func (e *redirectError) Error() string { return "redirect to " + e.location }

func (s *Server) setState(conn net.Conn, st ConnState) {
	if s.connStateHook != nil {
		s.connStateHook(conn, st)
	}
}

// handleConnection serves exactly one request on conn and closes it. Nothing
// escapes it: failures become an error response or a silent close.
func (s *Server) handleConnection(conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Printf("panic serving %s: %v\n%s", conn.RemoteAddr(), r, debug.Stack())
		}
		closeConn(conn)
		s.setState(conn, StateClosed)
	}()
	s.setState(conn, StateAccepted)

	if s.cfg.IOTimeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(s.cfg.IOTimeout))
	}

	s.setState(conn, StateParsingRequest)
	lr := &io.LimitedReader{R: conn, N: maxHeaderBytes}
	req, err := readRequest(bufio.NewReader(lr))
	if err == nil && lr.N <= 0 {
		err = statusErrorf(http.StatusRequestHeaderFieldsTooLarge, "header block exceeds %d bytes", maxHeaderBytes)
	}
	w := newResponseWriter(conn, s.logger)
	if err != nil {
		if !isRequestError(err) {
			if err != io.EOF {
				s.logger.Printf("read %s: %v", conn.RemoteAddr(), err)
			}
			return
		}
		s.setState(conn, StateServingError)
		s.serveError(w, err)
		s.finish(conn, w, nil)
		return
	}
	req.RemoteAddr = conn.RemoteAddr().String()

	s.setState(conn, StateResolvingPath)
	f, fi, err := s.open(req)
	if err != nil {
		s.setState(conn, StateServingError)
		s.serveError(w, err)
		s.finish(conn, w, req)
		return
	}
	defer f.Close()

	s.setState(conn, StateServingFile)
	if err := serveFile(w, req, f, fi); err != nil {
		s.logger.Printf("serve %s %q: %v", req.RemoteAddr, req.Target, err)
		return
	}
	s.finish(conn, w, req)
}

// isRequestError reports whether err deserves an HTTP answer rather than a
// silent close.
func isRequestError(err error) bool {
	var se *StatusError
	return errors.As(err, &se) || errors.Is(err, ErrMalformedRequest)
}

// open resolves the request target under the served root and opens it. A
// directory resolves to its index file.
func (s *Server) open(req *Request) (billy.File, os.FileInfo, error) {
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		return nil, nil, statusErrorf(http.StatusNotImplemented, "unsupported method %q", req.Method)
	}
	u, err := url.ParseRequestURI(req.Target)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: bad target %q", ErrMalformedRequest, req.Target)
	}
	name, err := rootfs.Clean(u.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve %q: %w", u.Path, err)
	}

	fi, err := s.fs.Stat(name)
	if err != nil {
		return nil, nil, err
	}
	if fi.IsDir() {
		if !strings.HasSuffix(u.Path, "/") {
			// Built from the cleaned name so a target like "//host" cannot
			// become a protocol-relative Location.
			loc := "/"
			if name != "" {
				loc = (&url.URL{Path: "/" + name + "/"}).EscapedPath()
			}
			if u.RawQuery != "" {
				loc += "?" + u.RawQuery
			}
			return nil, nil, &redirectError{location: loc}
		}
		if s.cfg.IndexFile == "" {
			return nil, nil, fmt.Errorf("directory %q: %w", name, fs.ErrNotExist)
		}
		name = path.Join(name, s.cfg.IndexFile)
		if fi, err = s.fs.Stat(name); err != nil {
			return nil, nil, err
		}
	}
	if !fi.Mode().IsRegular() {
		return nil, nil, fmt.Errorf("%q is not a regular file: %w", name, fs.ErrNotExist)
	}

	f, err := s.fs.Open(name)
	if err != nil {
		return nil, nil, err
	}
	return f, fi, nil
}

func serveFile(w *responseWriter, req *Request, f io.Reader, fi os.FileInfo) error {
	w.Set("Content-Type", contentType(fi.Name()))
	w.Set("Content-Length", strconv.FormatInt(fi.Size(), 10))
	w.Set("Last-Modified", fi.ModTime().UTC().Format(http.TimeFormat))
	w.WriteHeader(http.StatusOK)
	if req.Method == http.MethodHead {
		return nil
	}
	return w.copyBody(f, fi.Size())
}

func (s *Server) serveError(w *responseWriter, err error) {
	var re *redirectError
	if errors.As(err, &re) {
		w.Set("Location", re.location)
		w.writeEmpty(http.StatusMovedPermanently)
		return
	}
	w.writeEmpty(statusFor(err))
}

// finish flushes w and prints the console notice for the exchange.
func (s *Server) finish(conn net.Conn, w *responseWriter, req *Request) {
	if err := w.Flush(); err != nil {
		s.logger.Printf("write %s: %v", conn.RemoteAddr(), err)
		return
	}
	if s.cfg.Quiet {
		return
	}
	line := "-"
	if req != nil {
		line = req.RequestLine()
	}
	s.logger.Printf("%s %q %d %d", conn.RemoteAddr(), line, w.status, w.written)
}

// closeConn half-closes conn and drains what the peer still sends, so the
// response is not lost to a reset caused by unread request bytes.
func closeConn(conn net.Conn) {
	if cw, ok := conn.(interface{ CloseWrite() error }); ok {
		if cw.CloseWrite() == nil {
			_ = conn.SetReadDeadline(time.Now().Add(lingerTimeout))
			_, _ = io.Copy(io.Discard, io.LimitReader(conn, maxHeaderBytes))
		}
	}
	_ = conn.Close()
}
