package httpd

import (
	"bufio"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"
)

const (
	// Only HTTP/1.0 is spoken back, whatever the client asked for, so no
	// client ever expects the socket to be reused.
	responseProto = "HTTP/1.0"
	serverName    = "coi-devserver"
)

type header struct {
	key, value string
}

// fixedHeaders end every response, success or error.
var fixedHeaders = [...]header{
	{"Access-Control-Allow-Private-Network", "true"},
	{"Cross-Origin-Opener-Policy", "same-origin"},
	{"Cross-Origin-Embedder-Policy", "require-corp"},
	{"Connection", "close"},
	{"Cache-Control", "no-store, must-revalidate"},
	{"Expires", "0"},
}

// responseWriter emits one response. Computed headers are written in the
// order they were set, followed by fixedHeaders.
type responseWriter struct {
	bw          *bufio.Writer
	headers     []header
	status      int
	sentHeaders bool
	written     int64
	now         func() time.Time
	logger      *log.Logger
}

func newResponseWriter(w io.Writer, logger *log.Logger) *responseWriter {
	return &responseWriter{
		bw:     bufio.NewWriter(w),
		now:    time.Now,
		logger: logger,
	}
}

func (w *responseWriter) Set(key, value string) {
	for i := range w.headers {
		if w.headers[i].key == key {
			w.headers[i].value = value
			return
		}
	}
	w.headers = append(w.headers, header{key, value})
}

func (w *responseWriter) WriteHeader(status int) {
	if w.sentHeaders {
		w.logger.Printf("WriteHeader called twice, second time with: %d", status)
		return
	}
	w.sentHeaders = true
	w.status = status

	w.bw.WriteString(responseProto)
	w.bw.WriteByte(' ')
	w.bw.WriteString(strconv.Itoa(status))
	w.bw.WriteByte(' ')
	w.bw.WriteString(http.StatusText(status))
	w.bw.WriteString("\r\n")
	w.writeHeader("Server", serverName)
	w.writeHeader("Date", w.now().UTC().Format(http.TimeFormat))
	for _, h := range w.headers {
		w.writeHeader(h.key, h.value)
	}
	for _, h := range fixedHeaders {
		w.writeHeader(h.key, h.value)
	}
	w.bw.WriteString("\r\n")
}

func (w *responseWriter) writeHeader(k, v string) {
	w.bw.WriteString(k)
	w.bw.WriteString(": ")
	w.bw.WriteString(v)
	w.bw.WriteString("\r\n")
}

func (w *responseWriter) Write(b []byte) (int, error) {
	if !w.sentHeaders {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.bw.Write(b)
	w.written += int64(n)
	return n, err
}

// copyBody streams exactly n bytes of r. A short source is an error since
// Content-Length has already been promised.
func (w *responseWriter) copyBody(r io.Reader, n int64) error {
	if !w.sentHeaders {
		w.WriteHeader(http.StatusOK)
	}
	c, err := io.CopyN(w.bw, r, n)
	w.written += c
	return err
}

// writeEmpty sends a bodiless response with the given status.
func (w *responseWriter) writeEmpty(status int) {
	w.Set("Content-Length", "0")
	w.WriteHeader(status)
}

func (w *responseWriter) Flush() error {
	return w.bw.Flush()
}
