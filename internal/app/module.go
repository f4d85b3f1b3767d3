package app

import (
	"log/slog"
	"os"

	"github.com/shandysiswandi/levelup/internal/notification"
	"github.com/shandysiswandi/levelup/internal/progress"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.notification.enabled") {
		if err := notification.New(notification.Dependency{
			Ctx:         a.ctx,
			DBConn:      a.dbConn,
			Messaging:   a.messaging,
			Config:      a.config,
			Instrument:  a.ins,
			UID:         a.uid,
			UUID:        a.uuid,
			Clock:       a.clock,
			Goroutine:   a.goroutine,
			Validator:   a.validator,
			Router:      a.router,
			Hub:         a.hub,
			Idempotency: a.idemp,
		}); err != nil {
			slog.Error("failed to init module notification", "error", err)
			os.Exit(1)
		}
	}

	if a.config.GetBool("modules.progress.enabled") {
		if err := progress.New(progress.Dependency{
			Ctx:         a.ctx,
			DBConn:      a.dbConn,
			Redis:       a.cacheConn,
			Messaging:   a.messaging,
			Config:      a.config,
			Instrument:  a.ins,
			UID:         a.uid,
			UUID:        a.uuid,
			Clock:       a.clock,
			Goroutine:   a.goroutine,
			Validator:   a.validator,
			Router:      a.router,
			Hub:         a.hub,
			Idempotency: a.idemp,
		}); err != nil {
			slog.Error("failed to init module progress", "error", err)
			os.Exit(1)
		}
	}
}
