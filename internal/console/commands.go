package console

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/rl1809/inventory-console/internal/adapter/handler"
	"github.com/rl1809/inventory-console/internal/adapter/storage"
	"github.com/rl1809/inventory-console/internal/core/domain"
)

// explain adds a hint to errors the user can act on.
func explain(err error) error {
	if errors.Is(err, domain.ErrUnauthorized) {
		return fmt.Errorf("%w (run `inventoryctl login`)", err)
	}
	return err
}

func newLoginCommand(app *App) *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Obtain an access token and keep it for later commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			tokens, err := app.client.Login(cmd.Context(), username, password)
			if err != nil {
				return err
			}
			if err := app.session.Set(cmd.Context(), tokens); err != nil {
				return fmt.Errorf("save session: %w", err)
			}
			if exp, ok := app.session.ExpiresAt(); ok {
				fmt.Fprintf(cmd.OutOrStdout(), "logged in as %s until %s\n", username, exp.Local().Format(time.RFC3339))
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "logged in as %s\n", username)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "admin", "account name")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newLogoutCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app.session.Invalidate(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), "logged out")
			return nil
		},
	}
}

func newRefreshCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Trade the refresh token for a new access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			refresh := app.session.RefreshToken()
			if refresh == "" {
				return explain(domain.ErrUnauthorized)
			}
			tokens, err := app.client.Refresh(cmd.Context(), refresh)
			if err != nil {
				return explain(err)
			}
			if err := app.session.Set(cmd.Context(), tokens); err != nil {
				return fmt.Errorf("save session: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "token refreshed")
			return nil
		},
	}
}

func newListCommand(app *App) *cobra.Command {
	var criteria domain.Criteria
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List products matching the given filters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.inventory.Refresh(cmd.Context()); err != nil {
				return explain(err)
			}
			return printProducts(cmd.OutOrStdout(), app.inventory.Filter(criteria))
		},
	}
	cmd.Flags().StringVarP(&criteria.Search, "search", "s", "", "match id, sku, name, location or barcode")
	cmd.Flags().StringVar(&criteria.Category, "category", domain.All, "exact category")
	cmd.Flags().StringVar(&criteria.Status, "status", domain.All, "in-stock, low-stock or out-of-stock")
	cmd.Flags().StringVar(&criteria.Supplier, "supplier", domain.All, "exact supplier")
	return cmd
}

func newStatsCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show inventory totals and items at or below minimum stock",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.inventory.Refresh(cmd.Context()); err != nil {
				return explain(err)
			}
			return printStats(cmd.OutOrStdout(), app.inventory.Stats())
		},
	}
}

// productFlags binds the editable product fields to command flags.
type productFlags struct {
	p         domain.Product
	unitPrice string
	unitCost  string
}

func (f *productFlags) register(cmd *cobra.Command, withID bool) {
	fs := cmd.Flags()
	if withID {
		fs.StringVar(&f.p.ID, "id", "", "product id, e.g. PRD-001")
	}
	fs.StringVar(&f.p.Name, "name", "", "product name")
	fs.StringVar(&f.p.Category, "category", "", "category")
	fs.StringVar(&f.p.Supplier, "supplier", "", "supplier")
	fs.StringVar(&f.p.SKU, "sku", "", "stock keeping unit")
	fs.StringVar(&f.p.Barcode, "barcode", "", "barcode")
	fs.StringVar(&f.p.Description, "description", "", "description")
	fs.StringVar(&f.p.Location, "location", "", "warehouse location")
	fs.IntVar(&f.p.CurrentStock, "stock", 0, "current stock")
	fs.IntVar(&f.p.MinStock, "min", 0, "minimum stock")
	fs.IntVar(&f.p.MaxStock, "max", 100, "maximum stock")
	fs.StringVar(&f.unitPrice, "price", "0", "unit price")
	fs.StringVar(&f.unitCost, "cost", "0", "unit cost")
}

// apply copies flag values onto base. With onlyChanged, flags the user did
// not set leave base untouched.
func (f *productFlags) apply(cmd *cobra.Command, base domain.Product, onlyChanged bool) (domain.Product, error) {
	set := func(name string) bool { return !onlyChanged || cmd.Flags().Changed(name) }

	if set("id") && cmd.Flags().Lookup("id") != nil {
		base.ID = f.p.ID
	}
	strs := []struct {
		name string
		dst  *string
		src  string
	}{
		{"name", &base.Name, f.p.Name},
		{"category", &base.Category, f.p.Category},
		{"supplier", &base.Supplier, f.p.Supplier},
		{"sku", &base.SKU, f.p.SKU},
		{"barcode", &base.Barcode, f.p.Barcode},
		{"description", &base.Description, f.p.Description},
		{"location", &base.Location, f.p.Location},
	}
	for _, s := range strs {
		if set(s.name) {
			*s.dst = s.src
		}
	}
	if set("stock") {
		base.CurrentStock = f.p.CurrentStock
	}
	if set("min") {
		base.MinStock = f.p.MinStock
	}
	if set("max") {
		base.MaxStock = f.p.MaxStock
	}
	if set("price") {
		v, err := decimal.NewFromString(f.unitPrice)
		if err != nil {
			return domain.Product{}, fmt.Errorf("invalid --price: %w", err)
		}
		base.UnitPrice = v
	}
	if set("cost") {
		v, err := decimal.NewFromString(f.unitCost)
		if err != nil {
			return domain.Product{}, fmt.Errorf("invalid --cost: %w", err)
		}
		base.UnitCost = v
	}
	return base, nil
}

func newAddCommand(app *App) *cobra.Command {
	var flags productFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a product",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := flags.apply(cmd, domain.Product{}, false)
			if err != nil {
				return err
			}
			if err := app.inventory.Refresh(cmd.Context()); err != nil {
				return explain(err)
			}
			added, err := app.inventory.AddProduct(cmd.Context(), p)
			if err != nil {
				return explain(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s (%s)\n", added.ID, added.Status)
			return nil
		},
	}
	flags.register(cmd, true)
	return cmd
}

func newUpdateCommand(app *App) *cobra.Command {
	var flags productFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change the given fields of a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.inventory.Refresh(cmd.Context()); err != nil {
				return explain(err)
			}
			current, ok := app.inventory.Projector().Get(args[0])
			if !ok {
				return &domain.NotFoundError{ID: args[0]}
			}
			p, err := flags.apply(cmd, current, true)
			if err != nil {
				return err
			}
			updated, err := app.inventory.UpdateProduct(cmd.Context(), p)
			if err != nil {
				return explain(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated %s (%s)\n", updated.ID, updated.Status)
			return nil
		},
	}
	flags.register(cmd, false)
	return cmd
}

func newDeleteCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a product",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.inventory.RemoveProduct(cmd.Context(), args[0]); err != nil {
				return explain(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}

func newAdjustCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "adjust <id> <delta>",
		Short:   "Move a product's stock up or down, never below zero",
		Example: "  inventoryctl adjust PRD-001 25\n  inventoryctl adjust PRD-001 -- -5",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			delta, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid delta %q: %w", args[1], err)
			}
			if err := app.inventory.Refresh(cmd.Context()); err != nil {
				return explain(err)
			}
			p, err := app.inventory.AdjustStock(cmd.Context(), args[0], delta)
			if err != nil {
				return explain(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s stock %d (%s)\n", p.ID, p.CurrentStock, p.Status)
			return nil
		},
	}
}

func newPrefsCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Read or change dashboard preferences",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "get [key]",
		Short: "Print one preference, or all of them",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keys := make([]string, 0)
			if len(args) == 1 {
				keys = append(keys, args[0])
			} else {
				for k := range storage.PreferenceKeys() {
					keys = append(keys, k)
				}
				sort.Strings(keys)
			}
			for _, k := range keys {
				v, err := app.store.GetPreference(cmd.Context(), k, "")
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", k, v)
			}
			return nil
		},
	}, &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Store a preference",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.store.SetPreference(cmd.Context(), args[0], args[1]); err != nil {
				if allowed, ok := storage.PreferenceKeys()[args[0]]; ok {
					return fmt.Errorf("%w (allowed: %v)", err, allowed)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", args[0], args[1])
			return nil
		},
	})
	return cmd
}

func newDashboardCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show totals and stock by category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := app.inventory.Refresh(ctx); err != nil {
				return explain(err)
			}

			byCategory, err := app.client.StockByCategory(ctx)
			switch {
			case errors.Is(err, domain.ErrUnauthorized):
				// the dashboard endpoint needs a token, the product list does not
				byCategory = app.inventory.Projector().StockByCategory()
			case err != nil:
				return err
			}

			chartData, err := app.store.GetPreference(ctx, storage.PrefChartData, "")
			if err != nil {
				return err
			}
			chartType, err := app.store.GetPreference(ctx, storage.PrefChartType, "")
			if err != nil {
				return err
			}
			return printDashboard(cmd.OutOrStdout(), app.inventory.Stats(), byCategory, chartData, chartType)
		},
	}
}

func newHashPasswordCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "hashpw <password>",
		Short:       "Print a bcrypt hash for ADMIN_PASSWORD_HASH",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"offline": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := handler.HashPassword(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}
