package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"salesops-backend/internal/client"
	"salesops-backend/internal/config"
	"salesops-backend/internal/dashboard"
	"salesops-backend/internal/logging"
	"salesops-backend/internal/models"
)

var (
	// Global flags
	configPath string
	baseURL    string
	fixture    string
	verbose    bool

	// Filter flags
	filterQ      string
	filterTokens []string
	filterBrand  string
	filterCity   string
	filterStart  string
	filterEnd    string
	filterLimit  int
	filterOffset int
	customers    []string
	items        []string
	groupBy      []string

	cfg    *config.Config
	logger *zap.Logger
	api    *client.Client
)

var rootCmd = &cobra.Command{
	Use:           "opsboard",
	Short:         "Operator console for pending sales orders",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadFile(configPath)
		if err != nil {
			return err
		}
		level := "warn"
		if verbose {
			level = "debug"
		}
		logger, err = logging.New(level, true)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		if baseURL == "" {
			baseURL = cfg.Client.BaseURL
		}
		api = client.New(baseURL)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "configs/config.yaml", "config file path")
	pf.StringVar(&baseURL, "url", "", "API base URL (defaults to client.base_url)")
	pf.StringVar(&fixture, "fixture", "", "read orders from a JSON fixture instead of the API")
	pf.BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	pf.StringVarP(&filterQ, "query", "q", "", "free-text match on order number, item or city")
	pf.StringSliceVarP(&filterTokens, "token", "t", nil, "search tokens (any may match)")
	pf.StringVar(&filterBrand, "brand", "", "brand")
	pf.StringVar(&filterCity, "city", "", "city")
	pf.StringVar(&filterStart, "from", "", "earliest order date")
	pf.StringVar(&filterEnd, "to", "", "latest order date")
	pf.IntVar(&filterLimit, "limit", 25, "page size")
	pf.IntVar(&filterOffset, "offset", 0, "page offset")
	pf.StringSliceVar(&customers, "customer", nil, "only these customers")
	pf.StringSliceVar(&items, "item", nil, "only these items")
	pf.StringSliceVarP(&groupBy, "group-by", "g", nil, "Customer, Item, Color, Broker, Status")

	rootCmd.AddCommand(listCmd, verifyCmd, dispatchCmd, cancelCmd, watchCmd)
}

func filters() dashboard.Filters {
	return dashboard.Filters{
		Query: models.OrderQuery{
			Q:         filterQ,
			Tokens:    filterTokens,
			Brand:     filterBrand,
			City:      filterCity,
			StartDate: filterStart,
			EndDate:   filterEnd,
			Limit:     filterLimit,
			Offset:    filterOffset,
		},
		Customers: customers,
		Items:     items,
	}
}

// newBoard builds a board over the API (or the fixture for reads) and
// loads the first cycle with the flag filters.
func newBoard(ctx context.Context) (*dashboard.Board, error) {
	src := dashboard.Sources{
		Orders:        api,
		Dispatched:    api,
		Verifications: api,
		Stock:         api,
		Invoices:      api,
	}
	if fixture != "" {
		fs, err := client.LoadFixture(fixture)
		if err != nil {
			return nil, err
		}
		src = dashboard.Sources{Orders: fs, Dispatched: fs, Verifications: fs, Stock: fs, Invoices: fs}
	}

	b := dashboard.NewBoard(dashboard.NewReconciler(src, logger), dashboard.Actions{
		Verify:   api,
		Dispatch: api,
		Cancel:   api,
	}, logger)
	b.SetGroupBy(groupBy)
	b.SetDraft(filters())
	f := filters()
	if err := b.Apply(ctx); err != nil {
		b.Close()
		return nil, err
	}
	// Apply resets to the first page; honor an explicit --offset.
	if f.Query.Offset > 0 {
		if err := b.SetPage(ctx, f.Query.Limit, f.Query.Offset); err != nil {
			b.Close()
			return nil, err
		}
	}
	return b, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
