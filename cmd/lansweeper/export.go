package main

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmerrifield20/lansweeper-go/internal/config"
	"github.com/jmerrifield20/lansweeper-go/internal/inventory"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newExportCmd(a *app) *cobra.Command {
	var (
		dbURL       string
		concurrency int
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Snapshot every site and asset into PostgreSQL",
		Long: `Export fetches all authorized sites and their assets and writes
them to PostgreSQL in one transaction. Tables are created on first use.
Existing rows are updated in place.

  lansweeper export --database-url postgres://localhost/inventory`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if f := cmd.Flags().Lookup("database-url"); f.Changed {
				a.v.Set(config.KeyDatabaseURL, dbURL)
			}
			url := a.v.GetString(config.KeyDatabaseURL)
			if url == "" {
				return errors.New("no database: set --database-url, LANSWEEPER_DATABASE_URL or database_url in the config file")
			}

			c, err := a.newClient()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			pool, err := pgxpool.New(ctx, url)
			if err != nil {
				return fmt.Errorf("connect to postgres: %w", err)
			}
			defer pool.Close()
			if err := pool.Ping(ctx); err != nil {
				return fmt.Errorf("ping postgres: %w", err)
			}

			store := inventory.NewStore(pool, a.logger)
			if err := store.EnsureSchema(ctx); err != nil {
				return err
			}
			exp := &inventory.Exporter{
				Source:      c,
				Sink:        store,
				Concurrency: concurrency,
				Logger:      a.logger,
			}
			snap, err := exp.Run(ctx)
			if err != nil {
				return err
			}
			a.logger.Info("export complete", zap.String("snapshot_id", snap.ID.String()))
			fmt.Fprintf(cmd.OutOrStdout(), "snapshot %s: %d sites, %d assets\n",
				snap.ID, len(snap.Sites), snap.AssetCount())
			return nil
		},
	}
	cmd.Flags().StringVar(&dbURL, "database-url", "", "PostgreSQL connection string")
	cmd.Flags().IntVar(&concurrency, "concurrency", inventory.DefaultConcurrency, "sites fetched in parallel")
	return cmd
}
