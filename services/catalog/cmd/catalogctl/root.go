package main

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/wise004/Edupress-sub001/pkg/logger"
	"github.com/wise004/Edupress-sub001/services/catalog/internal/config"
	"github.com/wise004/Edupress-sub001/services/catalog/internal/provider"
	"github.com/wise004/Edupress-sub001/services/catalog/internal/provider/memory"
	"github.com/wise004/Edupress-sub001/services/catalog/internal/provider/upstream"
	"github.com/wise004/Edupress-sub001/services/catalog/internal/service"
)

const serviceName = "catalogctl"

// rootOptions are the flags shared by every subcommand. Defaults come from
// the service configuration.
type rootOptions struct {
	provider    string
	seedFile    string
	upstreamURL string
	pageSize    int
	debounce    time.Duration
	logLevel    string
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	opts := &rootOptions{
		provider:    cfg.Provider,
		seedFile:    cfg.SeedFile,
		upstreamURL: cfg.UpstreamURL,
		pageSize:    cfg.PageSize,
		debounce:    cfg.SearchDebounce,
		logLevel:    "warn",
	}
	if opts.provider == provider.KindPostgres {
		opts.provider = provider.KindMemory
	}

	cmd := &cobra.Command{
		Use:   "catalogctl",
		Short: "Browse the Edupress course catalog",
		Long: `catalogctl fetches the course collection from a provider and runs
the catalog listing (search, category, level and price filters, sorting
and pagination) in the terminal.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch opts.provider {
			case provider.KindMemory, provider.KindUpstream:
				return nil
			default:
				return fmt.Errorf("--provider must be %s or %s, got %q",
					provider.KindMemory, provider.KindUpstream, opts.provider)
			}
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.provider, "provider", opts.provider, "course source: memory or upstream")
	flags.StringVar(&opts.seedFile, "seed-file", opts.seedFile, "YAML or JSON catalog for the memory provider")
	flags.StringVar(&opts.upstreamURL, "upstream-url", opts.upstreamURL, "course backend base URL for the upstream provider")
	flags.IntVar(&opts.pageSize, "page-size", opts.pageSize, "courses per page")
	flags.DurationVar(&opts.debounce, "debounce", opts.debounce, "search debounce in browse mode")
	flags.StringVar(&opts.logLevel, "log-level", opts.logLevel, "log level written to stderr")

	cmd.AddCommand(
		newListCmd(opts),
		newCategoriesCmd(opts),
		newBrowseCmd(opts),
		newSeedCmd(opts, cfg.DatabaseURL),
	)
	return cmd
}

func (o *rootOptions) logger(w io.Writer) *slog.Logger {
	return logger.NewText(serviceName, o.logLevel, w)
}

// newProvider builds the course source named by --provider.
func (o *rootOptions) newProvider(log *slog.Logger) (provider.Provider, error) {
	if o.provider == provider.KindUpstream {
		p, err := upstream.NewDefault(upstream.Config{BaseURL: o.upstreamURL, PageSize: 100}, log)
		if err != nil {
			return nil, fmt.Errorf("init upstream provider: %w", err)
		}
		return p, nil
	}
	if o.seedFile != "" {
		p, err := memory.LoadFile(o.seedFile)
		if err != nil {
			return nil, fmt.Errorf("load seed catalog: %w", err)
		}
		return p, nil
	}
	return memory.Default(), nil
}

// newCatalog loads a provider snapshot into a catalog service.
func (o *rootOptions) newCatalog(cmd *cobra.Command) (*service.CatalogService, error) {
	log := o.logger(cmd.ErrOrStderr())
	p, err := o.newProvider(log)
	if err != nil {
		return nil, err
	}

	catalog := service.NewCatalogService(p, service.Config{
		ProviderName: o.provider,
		PageSize:     o.pageSize,
	}, log)
	if err := catalog.Refresh(cmd.Context()); err != nil {
		return nil, err
	}
	return catalog, nil
}
