package root

import (
	"context"
	"database/sql"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"levelup/internal/engine"
	"levelup/internal/remote"
	"levelup/internal/storage"
	"levelup/internal/ui"
)

type app struct {
	db      *sql.DB
	store   *storage.XPStore
	journal *storage.Journal
	client  *remote.Client
	session *engine.Session
}

func newLogger() *log.Logger {
	return log.New(os.Stderr, "lvl: ", log.LstdFlags)
}

func openDB(ctx context.Context) (*sql.DB, func(), error) {
	path, err := storage.ResolveDBPath(cfg.Storage.DBPath)
	if err != nil {
		return nil, nil, err
	}
	db, err := storage.Open(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = db.Close()
	}
	return db, cleanup, nil
}

func remoteClient() *remote.Client {
	if cfg.Remote.URL == "" {
		return nil
	}
	return remote.New(cfg.Remote.URL,
		remote.WithAdminToken(cfg.Remote.AdminToken),
		remote.WithHTTPClient(&http.Client{Timeout: cfg.RemoteTimeout()}),
	)
}

// openSession builds a session over the local cache and reconciles it with
// the authoritative store: the server when remote.url is set, otherwise the
// players table of the local database.
func openSession(ctx context.Context, out io.Writer) (*app, func(), error) {
	db, closeDB, err := openDB(ctx)
	if err != nil {
		return nil, nil, err
	}

	a := &app{
		db:      db,
		store:   storage.NewXPStore(db, engine.DefaultLevels),
		journal: storage.NewJournal(db),
		client:  remoteClient(),
	}

	seed, err := a.journal.LoadSeed(ctx, cfg.User.ID, time.Now())
	if err != nil {
		closeDB()
		return nil, nil, err
	}

	rewards := cfg.EngineRewards()
	opts := engine.Options{
		UserID:       cfg.User.ID,
		Journal:      a.journal,
		Notifier:     ui.NewNotifier(out),
		Logger:       newLogger(),
		Rewards:      &rewards,
		SyncInterval: cfg.SyncInterval(),
		IOTimeout:    cfg.IOTimeout(),
	}
	if a.client != nil {
		opts.Persistence = a.client
		opts.Plans = a.client.PlanProvider(cfg.User.ID)
	} else {
		plan, _ := engine.ParsePlan(cfg.User.Plan)
		opts.Persistence = a.store
		opts.Plans = engine.StaticPlan(engine.SubscriptionFor(plan))
	}

	a.session = engine.NewSession(ctx, opts, seed)
	a.session.Reconcile(ctx)

	cleanup := func() {
		_ = a.session.Close()
		var plan *engine.SubscriptionPlan
		if p, known := a.session.CachedPlan(); known {
			plan = &p
		}
		if err := a.journal.CacheState(context.Background(), cfg.User.ID, a.session.Snapshot(), plan); err != nil {
			newLogger().Printf("Warning: cache state failed: %v", err)
		}
		closeDB()
	}
	return a, cleanup, nil
}
