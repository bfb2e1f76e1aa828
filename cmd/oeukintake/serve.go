package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrsinham/oeukintake/internal/record"
	"github.com/mrsinham/oeukintake/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the record API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			ctx := cmd.Context()
			repo, err := openStore(ctx, a)
			if err != nil {
				return err
			}
			defer repo.Close()

			svc, err := record.NewService(repo, a.cfg.DoctorPassword, a.logger)
			if err != nil {
				return err
			}
			e := server.New(svc, server.Options{
				CORSOrigins: a.cfg.CORSOrigins,
				BodyLimit:   a.cfg.BodyLimit,
			}, a.logger)
			return server.Run(ctx, e, a.cfg.Addr(), a.logger)
		},
	}
}

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the records table if it does not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			repo, err := openStore(cmd.Context(), a)
			if err != nil {
				return err
			}
			defer repo.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "Table %s is up to date (%s)\n", record.Table, a.cfg.DatabaseDriver)
			return nil
		},
	}
}

// openStore opens the configured repository and migrates it.
func openStore(ctx context.Context, a *app) (record.Repository, error) {
	repo, err := record.Open(ctx, a.cfg, a.logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if err := repo.Migrate(ctx); err != nil {
		_ = repo.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	a.logger.Info().Str("driver", a.cfg.DatabaseDriver).Msg("store ready")
	return repo, nil
}
