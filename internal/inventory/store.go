// Package inventory persists LanSweeper inventory snapshots to PostgreSQL.
package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmerrifield20/lansweeper-go/pkg/lansweeper"
	"go.uber.org/zap"
)

// Schema creates the snapshot tables. It is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS inventory_snapshots (
	id          UUID PRIMARY KEY,
	taken_at    TIMESTAMPTZ NOT NULL,
	site_count  INTEGER NOT NULL,
	asset_count INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS inventory_sites (
	id            TEXT PRIMARY KEY,
	name          TEXT,
	description   TEXT,
	snapshot_id   UUID NOT NULL REFERENCES inventory_snapshots(id),
	updated_at    TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS inventory_assets (
	id            TEXT PRIMARY KEY,
	site_id       TEXT NOT NULL REFERENCES inventory_sites(id),
	name          TEXT,
	ip_address    TEXT,
	asset_type    TEXT,
	last_seen     TIMESTAMPTZ,
	details       JSONB NOT NULL,
	snapshot_id   UUID NOT NULL REFERENCES inventory_snapshots(id),
	updated_at    TIMESTAMPTZ NOT NULL
);`

const (
	insertSnapshotSQL = `INSERT INTO inventory_snapshots (id, taken_at, site_count, asset_count)
		VALUES ($1, $2, $3, $4)`

	upsertSiteSQL = `INSERT INTO inventory_sites (id, name, description, snapshot_id, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			snapshot_id = EXCLUDED.snapshot_id,
			updated_at = EXCLUDED.updated_at`

	upsertAssetSQL = `INSERT INTO inventory_assets
		(id, site_id, name, ip_address, asset_type, last_seen, details, snapshot_id, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			site_id = EXCLUDED.site_id,
			name = EXCLUDED.name,
			ip_address = EXCLUDED.ip_address,
			asset_type = EXCLUDED.asset_type,
			last_seen = EXCLUDED.last_seen,
			details = EXCLUDED.details,
			snapshot_id = EXCLUDED.snapshot_id,
			updated_at = EXCLUDED.updated_at`
)

// DB is the subset of *pgxpool.Pool the store needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Snapshot is one export of the inventory.
type Snapshot struct {
	ID      uuid.UUID
	TakenAt time.Time
	Sites   []lansweeper.Site
	// Assets maps site ID to that site's assets.
	Assets map[string][]lansweeper.Asset
}

// AssetCount returns the number of assets across all sites.
func (s *Snapshot) AssetCount() int {
	n := 0
	for _, a := range s.Assets {
		n += len(a)
	}
	return n
}

// Store writes snapshots to PostgreSQL.
type Store struct {
	db     DB
	logger *zap.Logger
}

// NewStore creates a Store backed by db, typically a *pgxpool.Pool.
func NewStore(db DB, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, logger: logger}
}

// EnsureSchema creates the tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("create inventory schema: %w", err)
	}
	return nil
}

// Save writes snap in a single transaction. Sites and assets already present
// are updated in place.
func (s *Store) Save(ctx context.Context, snap *Snapshot) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, insertSnapshotSQL, snap.ID, snap.TakenAt, len(snap.Sites), snap.AssetCount()); err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}

	for _, site := range snap.Sites {
		if _, err := tx.Exec(ctx, upsertSiteSQL, site.ID, site.Name, site.Description, snap.ID, snap.TakenAt); err != nil {
			return fmt.Errorf("upsert site %s: %w", site.ID, err)
		}
		for _, a := range snap.Assets[site.ID] {
			if a.ID == nil {
				s.logger.Warn("skipping asset without id", zap.String("site_id", site.ID))
				continue
			}
			details, err := json.Marshal(a)
			if err != nil {
				return fmt.Errorf("marshal asset %s: %w", *a.ID, err)
			}
			var name, ip, typ *string
			var lastSeen *time.Time
			if bi := a.BasicInfo; bi != nil {
				name, ip, typ, lastSeen = bi.Name, bi.IPAddress, bi.Type, bi.LastSeen
			}
			if _, err := tx.Exec(ctx, upsertAssetSQL,
				*a.ID, site.ID, name, ip, typ, lastSeen, details, snap.ID, snap.TakenAt,
			); err != nil {
				return fmt.Errorf("upsert asset %s: %w", *a.ID, err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	s.logger.Info("inventory snapshot saved",
		zap.String("snapshot_id", snap.ID.String()),
		zap.Int("sites", len(snap.Sites)),
		zap.Int("assets", snap.AssetCount()),
	)
	return nil
}
