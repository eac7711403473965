package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/diagnosis/provence-bookings/internal/catalog"
	"github.com/diagnosis/provence-bookings/pkg/config"
)

func main() {
	if err := newRootCmd(config.Load()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:           "bookingctl",
		Short:         "Operate the Provence bookings backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfg.Catalog.Path, "catalog", cfg.Catalog.Path, "catalog YAML file (default: embedded catalog)")

	root.AddCommand(
		migrateCmd(cfg),
		scheduleCmd(cfg),
		recommendCmd(cfg),
		quoteCmd(cfg),
		reviewsCmd(cfg),
		bookingsCmd(cfg),
	)
	return root
}

func loadCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	if cfg.Catalog.Path == "" {
		return catalog.Default()
	}
	return catalog.Load(cfg.Catalog.Path)
}
