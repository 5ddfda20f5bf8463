package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/keyz-man/changelogai-app/internal/db"
	apperrors "github.com/keyz-man/changelogai-app/internal/errors"
	"github.com/keyz-man/changelogai-app/internal/store"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	var down bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply SQLite schema migrations",
		Long: `Apply pending migrations to the SQLite database in store.data_dir and
print the applied versions. The sqlite backend also migrates on open; this
command exists for inspecting or rolling back the schema.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			if cfg.Store.Backend != store.BackendSQLite {
				return apperrors.Configuration("migrate requires store.backend sqlite")
			}

			conn, err := db.Open(cfg.Store.DataDir)
			if err != nil {
				return apperrors.Store("failed to open database", err)
			}
			defer conn.Close()

			migrator := db.NewMigrator(conn.DB, db.Migrations())
			if err := migrator.Initialize(); err != nil {
				return apperrors.Store("failed to create migrations table", err)
			}
			if down {
				err = migrator.Down()
			} else {
				err = migrator.Up()
			}
			if err != nil {
				return apperrors.Store("migration failed", err)
			}

			applied, err := migrator.GetAppliedMigrations()
			if err != nil {
				return apperrors.Store("failed to read migrations", err)
			}
			version, err := migrator.CurrentVersion()
			if err != nil {
				return apperrors.Store("failed to read schema version", err)
			}

			out := cmd.OutOrStdout()
			for _, m := range applied {
				fmt.Fprintf(out, "V%d  %s  %s\n", m.Version, m.AppliedAt.UTC().Format(time.RFC3339), m.Description)
			}
			fmt.Fprintf(out, "Schema version: %d\n", version)
			return nil
		},
	}

	cmd.Flags().BoolVar(&down, "down", false, "roll back the latest migration")
	return cmd
}
