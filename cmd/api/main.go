package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/Vixs101/Framez/internal/backend"
	"github.com/Vixs101/Framez/internal/config"
	"github.com/Vixs101/Framez/internal/db"
	"github.com/Vixs101/Framez/internal/feed"
	"github.com/Vixs101/Framez/internal/prefs"
	"github.com/Vixs101/Framez/internal/server"
	"github.com/Vixs101/Framez/internal/session"
	"github.com/Vixs101/Framez/internal/upload"
)

var mainDepsProvider = defaultDeps
var mainRunner = realMain

func main() {
	mainRunner(mainDepsProvider())
}

type mainDeps struct {
	loadConfig      func() config.Config
	connectPostgres func(config.Config) (*pgxpool.Pool, error)
	connectRedis    func(config.Config) *redis.Client
	notify          func(chan<- os.Signal, ...os.Signal)
	run             func(context.Context, config.Config, *pgxpool.Pool, *redis.Client, <-chan os.Signal, ListenFunc) error
}

func defaultDeps() mainDeps {
	return mainDeps{
		loadConfig:      config.Load,
		connectPostgres: db.ConnectPostgres,
		connectRedis:    db.ConnectRedis,
		notify:          signal.Notify,
		run:             Run,
	}
}

func realMain(deps mainDeps) {
	cfg := deps.loadConfig()

	pg, err := deps.connectPostgres(cfg)
	if err != nil {
		log.Printf("postgres connection failed: %v", err)
	}

	rdb := deps.connectRedis(cfg)

	signals := make(chan os.Signal, 1)
	deps.notify(signals, syscall.SIGINT, syscall.SIGTERM)

	if err := deps.run(context.Background(), cfg, pg, rdb, signals, nil); err != nil {
		log.Printf("server exited with error: %v", err)
	}
}

type ListenFunc func(app *fiber.App, addr string) error

var defaultListen ListenFunc = func(app *fiber.App, addr string) error {
	return app.Listen(addr)
}

var shutdownFn = func(app *fiber.App, ctx context.Context) error {
	return app.ShutdownWithContext(ctx)
}

var migrateFn = db.Migrate

var newCoreFn = newCore

// openPrefs uses an in-memory store when no path is configured.
var openPrefs = func(cfg config.Config) (prefs.Store, func() error, error) {
	if cfg.PrefsPath == "" {
		return prefs.NewMemoryStore(), func() error { return nil }, nil
	}
	store, err := prefs.Open(cfg.PrefsPath)
	if err != nil {
		return nil, nil, err
	}
	return store, store.Close, nil
}

// newCore builds the client components on top of the backend. A nil pool
// leaves the backend without a database so every remote call fails fast.
func newCore(cfg config.Config, pg *pgxpool.Pool, rdb *redis.Client, store prefs.Store) server.Core {
	var q db.Querier
	if pg != nil {
		q = pg
	}
	client := backend.New(q, rdb, backend.Options{
		JWTSecret: cfg.JWTSecret,
		Bucket:    cfg.StorageBucket,
		PublicURL: cfg.StoragePublicURL,
	})

	return server.Core{
		Sessions: session.NewManager(client, session.WithStore(store), session.WithProfileTimeout(cfg.ProfileTimeout)),
		Feeds:    feed.NewRegistry(client, feed.WithReloadTimeout(cfg.ReloadTimeout)),
		Uploads:  upload.New(client),
		Prefs:    store,
		Objects:  client,
	}
}

// start restores a persisted session and opens the global feed. Failures
// are logged; the bridge still serves and clients can retry.
func start(ctx context.Context, core server.Core) {
	if err := core.Sessions.Resume(ctx); err != nil {
		log.Printf("session resume failed: %v", err)
	}
	global := core.Feeds.Global()
	if err := global.Load(ctx); err != nil {
		log.Printf("initial feed load failed: %v", err)
	}
	if err := global.Subscribe(ctx); err != nil {
		log.Printf("feed subscription failed: %v", err)
	}
}

// Run starts the bridge server and waits for termination signals.
func Run(ctx context.Context, cfg config.Config, pg *pgxpool.Pool, rdb *redis.Client, signals <-chan os.Signal, listen ListenFunc) error {
	store, closeStore, err := openPrefs(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			log.Printf("prefs close failed: %v", err)
		}
	}()

	if pg != nil {
		if err := migrateFn(ctx, pg); err != nil {
			log.Printf("schema migration failed: %v", err)
		}
	}

	core := newCoreFn(cfg, pg, rdb, store)
	defer func() {
		if err := core.Feeds.Close(); err != nil {
			log.Printf("feed unsubscribe failed: %v", err)
		}
		core.Sessions.Wait()
		if pg != nil {
			pg.Close()
		}
		if rdb != nil {
			_ = rdb.Close()
		}
	}()
	srv := server.NewServer(cfg, core)
	defer srv.Close()
	start(ctx, core)

	if listen == nil {
		listen = defaultListen
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- listen(srv.App, cfg.ServerPort)
	}()

	select {
	case <-signals:
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return shutdownFn(srv.App, shutdownCtx)
}
