package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"xfeedback/pkg/analyze"
	"xfeedback/pkg/config"
	"xfeedback/pkg/dashboard"
	"xfeedback/pkg/ingest"
	"xfeedback/pkg/logger"
	"xfeedback/pkg/ratelimit"
	"xfeedback/pkg/store"
	"xfeedback/pkg/xapi"
)

var (
	dashboardListen  string
	dashboardParents []string
)

// dashboardCmd represents the dashboard command
var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Serve the live feedback dashboard",
	Long: `Serve a local web dashboard over the fetched feedback: category stat
cards, high priority items and the most recent responses, refreshed
automatically.

When transport credentials are available, the dashboard can also trigger
new ingestion runs from the browser and stream progress back as events.`,
	Example: `  # Serve on the default address
  xfeedback dashboard --track 1234567890

  # Track several posts on a custom port
  xfeedback dashboard --track 111 --track 222 --listen localhost:9000`,
	Run: runDashboard,
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
	dashboardCmd.Flags().StringVar(&dashboardListen, "listen", "", "listen address (default: localhost:8765)")
	dashboardCmd.Flags().StringSliceVar(&dashboardParents, "track", nil, "tracked post id or URL (repeatable)")
}

func runDashboard(cmd *cobra.Command, args []string) {
	flags := map[string]interface{}{}
	if dashboardListen != "" {
		flags["listen"] = dashboardListen
	}
	cfg := loadConfig(flags)
	log := logger.GetLogger()

	for _, raw := range dashboardParents {
		id, err := xapi.ExtractPostID(raw)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		cfg.Dashboard.ParentIDs = append(cfg.Dashboard.ParentIDs, id)
	}

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	// Browser-triggered runs need credentials; without them the dashboard
	// is read-only over already fetched data.
	var runner dashboard.RunFunc
	resolveBearerToken(cfg)
	if cfg.API.BearerToken != "" {
		runner = newDashboardRunner(cfg, st, log)
	} else {
		log.Warn("no bearer token configured, dashboard fetch trigger disabled")
	}

	srv := dashboard.New(cfg.Dashboard, st, runner, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Dashboard: http://%s\n", cfg.Dashboard.ListenAddr)
	if err := srv.ListenAndServe(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Dashboard failed: %v\n", err)
		os.Exit(1)
	}
}

// newDashboardRunner wires a browser fetch trigger: ingest both streams
// for the requested post, then classify whatever arrived.
func newDashboardRunner(cfg *config.Config, st *store.Store, log logger.Logger) dashboard.RunFunc {
	client := xapi.NewClient(cfg, log)
	limiter := ratelimit.NewTokenBucket(cfg.Fetch.RequestsPerMinute, time.Minute)
	analyzer := analyze.New(st, log)

	return func(ctx context.Context, parentID string, progress ingest.ProgressFunc) error {
		streams := []xapi.StreamFetcher{
			xapi.NewReplyStream(client, cfg.Fetch.PageSize),
			xapi.NewQuoteStream(client, cfg.Fetch.PageSize),
		}
		for _, stream := range streams {
			coord := ingest.New(cfg, st, stream, limiter, log)
			if _, err := coord.Run(ctx, parentID, false, progress); err != nil {
				return err
			}
		}
		_, err := analyzer.Run(ctx, parentID)
		return err
	}
}
