package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/wise004/Edupress-sub001/pkg/database"
	pgprovider "github.com/wise004/Edupress-sub001/services/catalog/internal/provider/postgres"
)

func newSeedCmd(opts *rootOptions, databaseURL string) *cobra.Command {
	migrate := true

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Copy the catalog from a provider into PostgreSQL",
		Long: `seed reads every course and category from --provider and upserts them
into the database used by the postgres provider. Courses whose id is not
numeric are skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := opts.logger(cmd.ErrOrStderr())

			src, err := opts.newProvider(log)
			if err != nil {
				return err
			}
			courses, err := src.GetAllCourses(ctx)
			if err != nil {
				return fmt.Errorf("fetch courses: %w", err)
			}
			categories, err := src.GetAllCategories(ctx)
			if err != nil {
				return fmt.Errorf("fetch categories: %w", err)
			}

			pgCfg := database.DefaultPostgresConfig()
			pgCfg.URL = databaseURL
			pool, err := database.NewPostgresPool(ctx, pgCfg, log)
			if err != nil {
				return fmt.Errorf("connect to postgres: %w", err)
			}
			defer pool.Close()

			if migrate {
				if err := pgprovider.Migrate(ctx, pool, log); err != nil {
					return fmt.Errorf("run migrations: %w", err)
				}
			}

			res, err := pgprovider.New(pool, nil).Import(ctx, categories, courses)
			if err != nil {
				return err
			}
			log.Info("catalog seeded",
				slog.Int("categories", res.Categories),
				slog.Int("courses", res.Courses),
				slog.Int("skipped", res.Skipped),
			)
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d categories and %d courses (%d skipped)\n",
				res.Categories, res.Courses, res.Skipped)
			return nil
		},
	}

	cmd.Flags().StringVar(&databaseURL, "database-url", databaseURL, "PostgreSQL connection string")
	cmd.Flags().BoolVar(&migrate, "migrate", migrate, "apply the catalog schema before seeding")
	return cmd
}
