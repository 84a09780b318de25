package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/renzo/client/internal/api"
	"github.com/renzo/client/internal/config"
	"github.com/renzo/client/internal/logging"
	"github.com/renzo/client/internal/media"
	"github.com/renzo/client/internal/middleware"
	"github.com/renzo/client/internal/screens"
	"github.com/renzo/client/internal/session"
	"github.com/renzo/client/internal/storage"
	"github.com/renzo/client/internal/views"
)

// Dependencies holds the wired client.
type Dependencies struct {
	Config  config.Config
	Logger  *slog.Logger
	Out     io.Writer
	Session *session.Store
	Backend *api.Client

	Auth        *screens.Auth
	Feed        *screens.Feed
	Upload      *screens.Upload
	Profile     *screens.Profile
	Discover    *screens.Discover
	Connections *screens.Connections
	Router      *views.Router
}

// buildDependencies wires the client from cfg. The returned cleanup releases
// the session storage.
func buildDependencies(ctx context.Context, cfg config.Config, streams Streams) (*Dependencies, func(), error) {
	logger := logging.New(streams.Err, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	kv, closeKV, err := openSessionStorage(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := closeKV(); err != nil {
			logger.Warn("close session storage", "error", err)
		}
	}

	store := session.NewStore(kv, logger)
	if err := store.Initialize(ctx); err != nil {
		logger.Warn("session not restored", "error", err)
	}

	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
		Transport: middleware.Chain(http.DefaultTransport,
			middleware.LogRequests(),
			middleware.RateLimit(middleware.NewLimiter(cfg.RequestRate, cfg.RequestBurst)),
		),
	}
	backend := api.New(cfg.BackendURL, httpClient)
	loader := media.Loader{Remote: &lazyS3{cfg: cfg.ObjectStore}}
	notifier := screens.WriterNotifier{W: streams.Out}

	deps := &Dependencies{
		Config:      cfg,
		Logger:      logger,
		Out:         streams.Out,
		Session:     store,
		Backend:     backend,
		Auth:        screens.NewAuth(backend, store, logger),
		Feed:        screens.NewFeed(backend, store, logger),
		Upload:      screens.NewUpload(backend, store, loader, logger),
		Profile:     screens.NewProfile(backend, store, logger),
		Discover:    screens.NewDiscover(backend, store, notifier, logger),
		Connections: screens.NewConnections(backend, store, logger),
	}
	deps.Router = views.NewRouter(store, deps.Auth, map[views.View]views.Screen{
		views.Feed:        deps.Feed,
		views.Upload:      deps.Upload,
		views.Profile:     deps.Profile,
		views.Discover:    deps.Discover,
		views.Connections: deps.Connections,
	})

	return deps, cleanup, nil
}

func openSessionStorage(ctx context.Context, cfg config.Config) (storage.KeyValue, func() error, error) {
	switch cfg.SessionBackend {
	case config.SessionBackendSQLite:
		db, err := storage.OpenSQLite(ctx, cfg.SessionPath)
		if err != nil {
			return nil, nil, err
		}
		return db, db.Close, nil
	case config.SessionBackendFile, "":
		return storage.NewFileStore(cfg.SessionPath), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown session backend %q", cfg.SessionBackend)
	}
}

// lazyS3 builds the S3 client on the first s3:// upload so commands that
// never touch object storage skip loading AWS configuration.
type lazyS3 struct {
	cfg config.ObjectStoreConfig

	once    sync.Once
	fetcher *media.S3Fetcher
	err     error
}

func (l *lazyS3) Fetch(ctx context.Context, location string) ([]byte, string, error) {
	l.once.Do(func() {
		l.fetcher, l.err = media.NewS3Fetcher(ctx, l.cfg)
	})
	if l.err != nil {
		return nil, "", fmt.Errorf("configure object store: %w", l.err)
	}
	return l.fetcher.Fetch(ctx, location)
}
