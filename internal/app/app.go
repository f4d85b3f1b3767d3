package app

import (
	"context"
	"net/http"

	"github.com/casbin/casbin/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/levelup/internal/pkg/clock"
	"github.com/shandysiswandi/levelup/internal/pkg/config"
	"github.com/shandysiswandi/levelup/internal/pkg/goroutine"
	"github.com/shandysiswandi/levelup/internal/pkg/idempotency"
	"github.com/shandysiswandi/levelup/internal/pkg/instrument"
	"github.com/shandysiswandi/levelup/internal/pkg/jwt"
	"github.com/shandysiswandi/levelup/internal/pkg/messaging"
	"github.com/shandysiswandi/levelup/internal/pkg/realtime"
	"github.com/shandysiswandi/levelup/internal/pkg/router"
	"github.com/shandysiswandi/levelup/internal/pkg/uid"
	"github.com/shandysiswandi/levelup/internal/pkg/validator"
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine *goroutine.Manager
	validator validator.Validator
	clock     clock.Clocker
	uid       uid.NumberID
	uuid      uid.StringID
	ulid      uid.StringID
	jwt       jwt.JWT

	// resources
	dbConn    *pgxpool.Pool
	cacheConn *redis.Client
	idemp     idempotency.Idempotency
	messaging messaging.Messaging
	casbin    *casbin.Enforcer
	registry  *prometheus.Registry

	// realtime
	hub      *realtime.Hub
	wsServer *realtime.Server

	// server
	router       *router.Router
	httpServer   *http.Server
	streamServer *http.Server

	//
	closers []struct {
		name string
		fn   func(context.Context) error
	}
}

// New initializes the application with default wiring and returns an App instance.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initJWT()
	app.initDatabase()
	app.initCache()
	app.initMessaging()
	app.initCasbin()
	app.initRealtime()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}
