package router

import (
	"bufio"
	"bytes"
	"net"
	"net/http"
)

const maxLoggedBodyBytes = 32 * 1024

// recorder captures status, size and a bounded copy of the body for logging. A nil
// body disables capture, which is how streaming routes are recorded.
type recorder struct {
	http.ResponseWriter
	status   int
	bytes    int
	body     *bytes.Buffer
	capped   bool
	err      error
	hijacked bool
}

func (w *recorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *recorder) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	w.capture(p)

	n, err := w.ResponseWriter.Write(p)
	w.bytes += n
	return n, err
}

func (w *recorder) capture(p []byte) {
	if w.body == nil || w.capped {
		return
	}
	room := maxLoggedBodyBytes - w.body.Len()
	if len(p) > room {
		p = p[:room]
		w.capped = true
	}
	w.body.Write(p)
}

// SetError lets endpoint handlers attach the error behind a failed response.
func (w *recorder) SetError(err error) {
	w.err = err
}

func (w *recorder) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Hijack is required by the websocket upgrade.
func (w *recorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, http.ErrNotSupported
	}
	conn, rw, err := h.Hijack()
	if err == nil {
		w.hijacked = true
		w.status = http.StatusSwitchingProtocols
	}
	return conn, rw, err
}

func (w *recorder) statusCode() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}
