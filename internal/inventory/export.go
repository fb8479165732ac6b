package inventory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmerrifield20/lansweeper-go/pkg/lansweeper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of sites fetched in parallel by Collect.
const DefaultConcurrency = 4

// Source is the read side of the inventory. *lansweeper.Client satisfies it.
type Source interface {
	ListSites(ctx context.Context) ([]lansweeper.Site, error)
	ListAssets(ctx context.Context, siteID string) ([]lansweeper.Asset, error)
}

// Sink receives a collected snapshot. *Store satisfies it.
type Sink interface {
	Save(ctx context.Context, snap *Snapshot) error
}

// Exporter copies the inventory from a Source into a Sink.
type Exporter struct {
	Source      Source
	Sink        Sink
	Concurrency int
	Logger      *zap.Logger

	now func() time.Time
}

// Collect fetches every authorized site and its assets. The first failing
// site aborts the remaining fetches.
func (e *Exporter) Collect(ctx context.Context) (*Snapshot, error) {
	logger := e.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := time.Now
	if e.now != nil {
		now = e.now
	}

	sites, err := e.Source.ListSites(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sites: %w", err)
	}

	snap := &Snapshot{
		ID:      uuid.New(),
		TakenAt: now().UTC(),
		Sites:   sites,
		Assets:  make(map[string][]lansweeper.Asset, len(sites)),
	}

	limit := e.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	var mu sync.Mutex
	for _, site := range sites {
		g.Go(func() error {
			assets, err := e.Source.ListAssets(gctx, site.ID)
			if err != nil {
				return fmt.Errorf("list assets for site %s: %w", site.ID, err)
			}
			logger.Debug("site collected", zap.String("site_id", site.ID), zap.Int("assets", len(assets)))
			mu.Lock()
			snap.Assets[site.ID] = assets
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snap, nil
}

// Run collects a snapshot and saves it.
func (e *Exporter) Run(ctx context.Context) (*Snapshot, error) {
	snap, err := e.Collect(ctx)
	if err != nil {
		return nil, err
	}
	if err := e.Sink.Save(ctx, snap); err != nil {
		return nil, err
	}
	return snap, nil
}
