package inbound

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/shandysiswandi/levelup/internal/pkg/goerror"
	"github.com/shandysiswandi/levelup/internal/pkg/realtime"
)

var heartbeatInterval = 25 * time.Second

// StreamNotifications streams realtime envelopes of the caller's channel using SSE.
// @Summary Stream notifications
// @Description Streams push events of the authenticated learner using Server-Sent Events (SSE). The event name is the envelope kind.
// @Tags Notification
// @Security BearerAuth
// @Produce text/event-stream
// @Success 200 {string} string "SSE stream"
// @Failure 401 {string} string "Unauthorized"
// @Failure 500 {string} string "streaming unsupported"
// @Router /api/v1/notification/stream [get]
func (h *HTTPEndpoint) StreamNotifications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	out, ok := newSSEWriter(w)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	stream, unsubscribe, err := h.uc.StreamNotifications(ctx)
	if err != nil {
		status := http.StatusInternalServerError
		if gerr := (*goerror.Error)(nil); errors.As(err, &gerr) {
			status = gerr.StatusCode()
		}
		http.Error(w, http.StatusText(status), status)
		return
	}
	defer unsubscribe()

	out.open()
	if err := out.comment("connected"); err != nil {
		slog.WarnContext(ctx, "sse: client gone before first frame", "error", err)
		return
	}

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		var err error
		select {
		case <-ctx.Done():
			return
		case <-stream.Done():
			return
		case <-heartbeat.C:
			err = out.comment("ping")
		case env := <-stream.C():
			err = out.envelope(env)
		}
		if errors.Is(err, errSkipFrame) {
			continue
		}
		if err != nil {
			slog.WarnContext(ctx, "sse: stream ended", "error", err)
			return
		}
	}
}

var errSkipFrame = errors.New("sse: frame skipped")

// sseWriter writes text/event-stream frames and flushes each one.
type sseWriter struct {
	w http.ResponseWriter
	f http.Flusher
}

func newSSEWriter(w http.ResponseWriter) (*sseWriter, bool) {
	f, ok := w.(http.Flusher)
	return &sseWriter{w: w, f: f}, ok
}

func (s *sseWriter) open() {
	h := s.w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	s.w.WriteHeader(http.StatusOK)
}

// comment keeps idle proxies from closing the connection.
func (s *sseWriter) comment(text string) error {
	return s.frame(": " + text + "\n\n")
}

func (s *sseWriter) envelope(env realtime.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		slog.Error("sse: envelope not encodable", "event", env.Event, "error", err)
		return errSkipFrame
	}
	return s.frame(fmt.Sprintf("id: %s\nevent: %s\ndata: %s\n\n", env.ID, env.Event, data))
}

func (s *sseWriter) frame(text string) error {
	if _, err := io.WriteString(s.w, text); err != nil {
		return err
	}
	s.f.Flush()
	return nil
}
