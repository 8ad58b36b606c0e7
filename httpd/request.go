package httpd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/net/http/httpguts"
)

const (
	maxRequestLine = 64 * 1024
	maxHeaders     = 100
	maxHeaderBytes = 1 << 20
)

var errLineTooLong = errors.New("line too long")

// Request is the one request read from a connection.
type Request struct {
	Method     string
	Target     string // request-target as sent, before decoding
	Proto      string
	ProtoMajor int
	ProtoMinor int
	Header     http.Header
	RemoteAddr string
}

// RequestLine returns the request line as received, for console notices.
func (r *Request) RequestLine() string {
	return r.Method + " " + r.Target + " " + r.Proto
}

// readRequest reads the request line and header block. An io.EOF before the
// first byte means the peer went away without asking for anything.
func readRequest(br *bufio.Reader) (*Request, error) {
	line, err := readLine(br, maxRequestLine)
	if err == nil && line == "" {
		// A stray CRLF ahead of the request line is tolerated once.
		line, err = readLine(br, maxRequestLine)
	}
	if err != nil {
		if errors.Is(err, errLineTooLong) {
			return nil, statusErrorf(http.StatusRequestURITooLong, "request line exceeds %d bytes", maxRequestLine)
		}
		return nil, err
	}

	fields := strings.Fields(line)
	if len(fields) != 3 {
		return nil, fmt.Errorf("%w: bad request line %q", ErrMalformedRequest, line)
	}
	req := &Request{
		Method: fields[0],
		Target: fields[1],
		Proto:  fields[2],
		Header: make(http.Header),
	}
	if !httpguts.ValidHeaderFieldName(req.Method) {
		return nil, fmt.Errorf("%w: bad method %q", ErrMalformedRequest, req.Method)
	}
	var ok bool
	req.ProtoMajor, req.ProtoMinor, ok = http.ParseHTTPVersion(req.Proto)
	if !ok {
		return nil, fmt.Errorf("%w: bad version %q", ErrMalformedRequest, req.Proto)
	}
	if req.ProtoMajor >= 2 {
		return nil, statusErrorf(http.StatusHTTPVersionNotSupported, "version %s", req.Proto)
	}

	if err := readHeaders(br, req.Header); err != nil {
		return nil, err
	}
	return req, nil
}

func readHeaders(br *bufio.Reader, h http.Header) error {
	for n := 0; ; n++ {
		line, err := readLine(br, maxRequestLine)
		if err == io.EOF {
			// Peer half-closed after the request line; treat as end of headers.
			return nil
		}
		if err != nil {
			if errors.Is(err, errLineTooLong) {
				return statusErrorf(http.StatusRequestHeaderFieldsTooLarge, "header line exceeds %d bytes", maxRequestLine)
			}
			return err
		}
		if line == "" {
			return nil
		}
		if n >= maxHeaders {
			return statusErrorf(http.StatusRequestHeaderFieldsTooLarge, "more than %d headers", maxHeaders)
		}
		if line[0] == ' ' || line[0] == '\t' {
			return fmt.Errorf("%w: obsolete line folding", ErrMalformedRequest)
		}
		k, v, found := strings.Cut(line, ":")
		if !found || !httpguts.ValidHeaderFieldName(k) {
			return fmt.Errorf("%w: bad header %q", ErrMalformedRequest, line)
		}
		v = strings.Trim(v, " \t")
		if !httpguts.ValidHeaderFieldValue(v) {
			return fmt.Errorf("%w: bad value for header %q", ErrMalformedRequest, k)
		}
		h.Add(k, v)
	}
}

// readLine returns one line without its CRLF or LF, failing with
// errLineTooLong once more than limit bytes have been buffered.
func readLine(br *bufio.Reader, limit int) (string, error) {
	var buf []byte
	for {
		chunk, more, err := br.ReadLine()
		if err != nil {
			if err == io.EOF && len(buf) > 0 {
				return "", io.ErrUnexpectedEOF
			}
			return "", err
		}
		buf = append(buf, chunk...)
		if len(buf) > limit {
			return "", errLineTooLong
		}
		if !more {
			return string(buf), nil
		}
	}
}
