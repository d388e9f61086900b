// Package console implements the inventoryctl command tree.
package console

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rl1809/inventory-console/internal/adapter/rest"
	"github.com/rl1809/inventory-console/internal/adapter/session"
	"github.com/rl1809/inventory-console/internal/adapter/storage"
	"github.com/rl1809/inventory-console/internal/config"
	"github.com/rl1809/inventory-console/internal/core/service"
)

// App holds the components shared by every command. They are built in the
// root command's PersistentPreRunE once flags are parsed.
type App struct {
	cfg       *config.Config
	store     *storage.BoltStore
	session   *session.Session
	client    *rest.Client
	inventory *service.InventoryService
}

func (a *App) open(ctx context.Context) error {
	store, err := storage.OpenBoltStore(a.cfg.StateFile)
	if err != nil {
		return err
	}
	sess, err := session.Restore(ctx, store)
	if err != nil {
		store.Close()
		return err
	}
	a.store = store
	a.session = sess
	a.client = rest.NewClient(a.cfg.APIURL, sess, a.cfg.APITimeout())
	a.inventory = service.NewInventoryService(a.client, nil)
	return nil
}

func (a *App) close() {
	if a.store != nil {
		a.store.Close()
		a.store = nil
	}
}

func newRoot(cfg *config.Config) (*cobra.Command, *App) {
	app := &App{cfg: cfg}

	root := &cobra.Command{
		Use:           "inventoryctl",
		Short:         "Inspect and edit the product inventory",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations["offline"] == "true" {
				return nil
			}
			return app.open(cmd.Context())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			app.close()
		},
	}
	root.PersistentFlags().StringVar(&cfg.APIURL, "api-url", cfg.APIURL, "product API base URL")
	root.PersistentFlags().StringVar(&cfg.StateFile, "state-file", cfg.StateFile, "local session and preference file")

	root.AddCommand(
		newLoginCommand(app),
		newLogoutCommand(app),
		newRefreshCommand(app),
		newListCommand(app),
		newStatsCommand(app),
		newAddCommand(app),
		newUpdateCommand(app),
		newDeleteCommand(app),
		newAdjustCommand(app),
		newPrefsCommand(app),
		newDashboardCommand(app),
		newHashPasswordCommand(),
	)
	return root, app
}

// Execute runs the command tree and closes anything it opened.
func Execute(ctx context.Context, cfg *config.Config) error {
	root, app := newRoot(cfg)
	defer app.close()
	if err := root.ExecuteContext(ctx); err != nil {
		return fmt.Errorf("inventoryctl: %w", err)
	}
	return nil
}
