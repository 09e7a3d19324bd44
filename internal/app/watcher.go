package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samvad-hq/samvad-board-client/internal/config"
	"github.com/samvad-hq/samvad-board-client/internal/logger"
	"github.com/samvad-hq/samvad-board-client/internal/storage"
	"github.com/samvad-hq/samvad-board-client/internal/watcher"
	"github.com/samvad-hq/samvad-board-client/pkg/api"
	"github.com/samvad-hq/samvad-board-client/pkg/boards"
	"github.com/samvad-hq/samvad-board-client/pkg/httpclient"
	"github.com/samvad-hq/samvad-board-client/pkg/publishers"
	"github.com/samvad-hq/samvad-board-client/pkg/themesettings"
)

// Watcher is the board watcher runtime. It owns the poll loop and the
// resources it needs: board registry, publishers and the delivery ledger.
type Watcher struct {
	cfg          *config.Config
	boardReg     *boards.Registry
	fanout       *publishers.Fanout
	service      *watcher.Service
	pollInterval time.Duration
	log          logger.Logger
	store        storage.Store
}

// NewWatcher builds a watcher runtime from config files.
func NewWatcher(ctx context.Context, cfg *config.Config, log logger.Logger) (*Watcher, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	boardReg, err := boards.LoadRegistry(cfg.BoardsFile)
	if err != nil {
		return nil, fmt.Errorf("load boards registry: %w", err)
	}
	boardList := boardReg.All()
	boardIDs := make([]string, 0, len(boardList))
	for _, b := range boardList {
		boardIDs = append(boardIDs, b.ID)
	}
	log.InfoObj("boards registry loaded", "boards_meta", map[string]any{
		"count": len(boardIDs),
		"ids":   boardIDs,
	})

	publisherReg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}
	enabledPublishers := publisherReg.Enabled()
	if len(enabledPublishers) == 0 {
		return nil, fmt.Errorf("no publishers configured")
	}

	pubClients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabledPublishers, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}
	fanout := publishers.NewFanout(pubClients)
	publisherSummaries := make([]map[string]string, 0, len(enabledPublishers))
	for _, pubCfg := range enabledPublishers {
		publisherSummaries = append(publisherSummaries, map[string]string{
			"id":   pubCfg.ID,
			"type": pubCfg.Type,
		})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(publisherSummaries),
		"publishers": publisherSummaries,
	})

	storeOpts := storage.Options{
		EventTTL:        cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	}
	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storeOpts)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("init storage: %w", err), fanout.Close())
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"event_ttl_seconds":        int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	transport := httpclient.NewRestyClient(httpclient.Options{
		Timeout: cfg.HTTPTimeout,
		Cache:   cfg.HTTPCacheEnabled,
	})
	service := watcher.NewService(NewSessionFactory(transport, log), fanout, log, store)

	return &Watcher{
		cfg:          cfg,
		boardReg:     boardReg,
		fanout:       fanout,
		service:      service,
		pollInterval: cfg.PollInterval,
		log:          log,
		store:        store,
	}, nil
}

// NewSessionFactory returns a factory that gives each board its own API
// client and theme settings store over a shared transport.
func NewSessionFactory(transport httpclient.Client, log logger.Logger) watcher.SessionFactory {
	if log == nil {
		log = logger.NopLogger{}
	}
	return func(board boards.Board) (watcher.Session, error) {
		client, err := api.NewClient(board.Environment(), api.WithHTTPClient(transport), api.WithLogger(log))
		if err != nil {
			return watcher.Session{}, err
		}
		return watcher.Session{
			Events:   client,
			Settings: themesettings.NewStore(client, log),
		}, nil
	}
}

// Run starts the poll loop until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	if w == nil || w.service == nil {
		return fmt.Errorf("watcher is not initialized")
	}
	defer w.close()

	boardList := w.boardReg.All()
	if len(boardList) == 0 {
		w.log.WarnObj("no boards configured; watcher idle", "boards_file", w.cfg.BoardsFile)
		<-ctx.Done()
		return ctx.Err()
	}

	w.log.InfoObj("watcher loop starting", "watcher_state", map[string]any{
		"boards_count":     len(boardList),
		"publishers_count": w.fanout.Size(),
		"poll_interval":    w.pollInterval.String(),
	})

	if err := w.runOnce(ctx, boardList); err != nil {
		w.log.ErrorObj("initial poll failed", "error", err)
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.InfoObj("watcher loop exiting", "reason", ctx.Err())
			return nil
		case <-ticker.C:
			if err := w.runOnce(ctx, boardList); err != nil {
				w.log.ErrorObj("scheduled poll failed", "error", err)
			}
		}
	}
}

// runOnce performs a single poll across all boards.
func (w *Watcher) runOnce(ctx context.Context, boardList []boards.Board) error {
	start := time.Now()
	w.log.InfoObj("poll started", "poll_meta", map[string]any{
		"boards_count": len(boardList),
		"started_at":   start.UTC(),
	})
	if err := w.service.Run(ctx, boardList); err != nil {
		return err
	}
	w.log.InfoObj("poll completed", "poll_meta", map[string]any{
		"boards_count": len(boardList),
		"elapsed_ms":   time.Since(start).Milliseconds(),
	})
	return nil
}

// close releases publishers and the storage backend, logging any errors.
func (w *Watcher) close() {
	if err := w.fanout.Close(); err != nil {
		w.log.ErrorObj("publishers close failed", "error", err)
	}
	if w.store == nil {
		return
	}
	if err := w.store.Close(); err != nil {
		w.log.ErrorObj("storage close failed", "error", err)
	}
}
