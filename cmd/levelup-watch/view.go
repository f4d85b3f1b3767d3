package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/shandysiswandi/levelup/internal/liveclient"
)

var toastPrefix = map[liveclient.ToastKind]string{
	liveclient.ToastLevelUp:     "[LEVEL UP]",
	liveclient.ToastAchievement: "[ACHIEVEMENT]",
	liveclient.ToastStreak:      "[STREAK]",
	liveclient.ToastChallenge:   "[CHALLENGE]",
	liveclient.ToastInfo:        "[INFO]",
}

// terminal writes toasts and snapshots to one writer. Writes are serialized because toasts
// arrive from the read goroutine while the watch loop prints snapshots.
type terminal struct {
	mu sync.Mutex
	w  io.Writer
}

func newTerminal(w io.Writer) *terminal {
	return &terminal{w: w}
}

func (t *terminal) Toast(_ context.Context, toast liveclient.Toast) {
	prefix, ok := toastPrefix[toast.Kind]
	if !ok {
		prefix = toastPrefix[liveclient.ToastInfo]
	}

	line := prefix + " " + toast.Title
	if toast.Message != "" {
		line += ": " + toast.Message
	}
	t.println(line)
}

func (t *terminal) printSnapshot(s liveclient.Snapshot) {
	t.println(formatSnapshot(s))
}

func (t *terminal) printState(st liveclient.ConnectionState) {
	line := "-- " + st.Status.String()
	if st.Status == liveclient.StatusReconnecting {
		line += " (attempt " + strconv.Itoa(st.AttemptCount) + ")"
	}
	if st.LastError != nil && st.Status == liveclient.StatusDisconnected {
		line += ": " + st.LastError.Error()
	}
	t.println(line)
}

func (t *terminal) println(line string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	//nolint:errcheck // terminal output is best effort
	fmt.Fprintln(t.w, line)
}

// formatSnapshot renders the snapshot as a short block. Unknown values print as "-".
func formatSnapshot(s liveclient.Snapshot) string {
	var b strings.Builder

	status := "offline"
	if s.Online {
		status = "live"
	}
	fmt.Fprintf(&b, "== LevelUp (%s)\n", status)
	fmt.Fprintf(&b, "level %s | points %s | rank %s\n", num(s.Level), num(s.Points), num(s.Rank))
	fmt.Fprintf(&b, "streak %s (best %s)", num(s.CurrentStreak), num(s.LongestStreak))
	if s.IsPremium != nil && *s.IsPremium {
		plan := s.Plan
		if plan == "" {
			plan = "premium"
		}
		fmt.Fprintf(&b, " | %s", plan)
	}
	if s.WeeklyStats != nil {
		fmt.Fprintf(&b, "\nthis week: %d points, %d activities, %d active days",
			s.WeeklyStats.Points, s.WeeklyStats.Activities, s.WeeklyStats.ActiveDays)
	}

	if len(s.Leaderboard) > 0 {
		b.WriteString("\n-- leaderboard")
		for _, e := range s.Leaderboard {
			name := e.Username
			if name == "" {
				name = "user " + e.UserID
			}
			fmt.Fprintf(&b, "\n%3d. %-20s %d", e.Rank, name, e.Points)
		}
	}

	return b.String()
}

func num(v *int64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatInt(*v, 10)
}

// bell stands in for OS notifications: it rings the terminal bell and logs the notification.
type bell struct {
	enabled bool
	w       io.Writer
}

func (b bell) Permitted() bool { return b.enabled }

func (b bell) Notify(ctx context.Context, title, message, icon string) error {
	slog.InfoContext(ctx, "desktop notification", "title", title, "message", message, "icon", icon)
	_, err := io.WriteString(b.w, "\a")
	return err
}
