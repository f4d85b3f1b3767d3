package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/shandysiswandi/levelup/internal/liveclient"
	"github.com/shandysiswandi/levelup/internal/pkg/clock"
	"github.com/shandysiswandi/levelup/internal/pkg/config"
	"github.com/spf13/cobra"
)

var errNoToken = errors.New(`no access token: pass --token, set LEVELUP_TOKEN or run "levelup-watch login"`)

func watchCmd() *cobra.Command {
	var (
		limit     int32
		noDesktop bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Show live stats, leaderboard and toasts until interrupted",
		Long: `Open a realtime session and print the stats snapshot each time it changes.

When the socket drops, the session reconnects with exponential backoff and resyncs
once it is back. Stats are also refreshed over REST on a fallback interval.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			defer func() { _ = cfg.Close() }()

			if cmd.Flags().Changed("limit") {
				cfg.Set("leaderboard.limit", limit)
			}
			if noDesktop {
				cfg.Set("desktop.enabled", false)
			}

			logs, err := setupLogging(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = logs.Close() }()

			ring, err := openKeyring(cfg)
			if err != nil {
				slog.Warn("keyring unavailable, falling back to flag and env token", "error", err)
				ring = nil
			}

			token := credentials(cfg, ring).Token()
			if token == "" {
				return errNoToken
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return watch(ctx, cfg, token, cmd.OutOrStdout())
		},
	}

	cmd.Flags().Int32Var(&limit, "limit", 10, "Leaderboard entries to show")
	cmd.Flags().BoolVar(&noDesktop, "no-desktop", false, "Do not ring the bell for notifications")

	return cmd
}

func watch(ctx context.Context, cfg config.Config, token string, out io.Writer) error {
	base := cfg.GetString("server.url")
	transport, err := liveclient.NewWebsocketTransport(base, cfg.GetString("realtime.path"),
		cfg.GetSecond("realtime.handshake_timeout_seconds"))
	if err != nil {
		return err
	}
	api, err := liveclient.NewAPIClient(base, cfg.GetSecond("server.api_timeout_seconds"))
	if err != nil {
		return err
	}

	term := newTerminal(out)
	states := make(chan liveclient.ConnectionState, 16)

	mgr := liveclient.NewManager(liveclient.Dependency{
		Transport: transport,
		API:       api,
		Clock:     clock.New(),
		Toaster:   term,
		Desktop:   bell{enabled: cfg.GetBool("desktop.enabled"), w: out},
		Options: liveclient.Options{
			ReconnectAttempts: cfg.GetInt("reconnect.attempts"),
			ReconnectDelay:    cfg.GetMillisecond("reconnect.delay_millis"),
			ReconnectMaxDelay: cfg.GetMillisecond("reconnect.max_delay_millis"),
			FallbackInterval:  cfg.GetMinute("refresh.fallback_minutes"),
			LeaderboardLimit:  cfg.GetInt32("leaderboard.limit"),
		},
		OnState: func(st liveclient.ConnectionState) {
			select {
			case states <- st:
			default:
			}
		},
	})

	h := mgr.Initialize(ctx, token)
	defer h.Close()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-h.Done():
			return nil

		case st := <-states:
			term.printState(st)
			if st.Status == liveclient.StatusDisconnected && errors.Is(st.LastError, liveclient.ErrRejected) {
				return fmt.Errorf(`access token rejected, run "levelup-watch login": %w`, st.LastError)
			}

		case <-h.Changed():
			term.printSnapshot(h.Snapshot())

		case n := <-h.Notifications():
			slog.DebugContext(ctx, "notification received", "id", n.ID, "type", n.Type)
		}
	}
}
