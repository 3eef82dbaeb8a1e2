package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/partsdesk/internal/config"
	"github.com/JonMunkholm/partsdesk/internal/core"
	"github.com/JonMunkholm/partsdesk/internal/database"
)

type rootOptions struct {
	databaseURL string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:          "partsctl",
		Short:        "Administer the parts desk",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.databaseURL, "database-url", os.Getenv("DATABASE_URL"),
		"database URL (postgres://... or sqlite://path.db); defaults to $DATABASE_URL")

	root.AddCommand(
		newValidateCmd(),
		newTemplateCmd(),
		newMigrateCmd(opts),
		newUsersCmd(opts),
		newProjectsCmd(opts),
		newComponentsCmd(opts),
	)
	return root
}

// openService connects to the database named by --database-url and returns
// a service without caching. The returned func closes the store.
func (o *rootOptions) openService(ctx context.Context) (*core.Service, func(), error) {
	if o.databaseURL == "" {
		return nil, nil, fmt.Errorf("--database-url or DATABASE_URL is required")
	}
	store, err := database.Open(ctx, config.DatabaseConfig{
		URL:         o.databaseURL,
		MaxConns:    2,
		MinConns:    1,
		AutoMigrate: true,
	})
	if err != nil {
		return nil, nil, err
	}
	return core.NewService(store, nil, core.ServiceOptions{}), func() { _ = store.Close() }, nil
}
