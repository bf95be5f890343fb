package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"xfeedback/pkg/insights"
	"xfeedback/pkg/logger"
	"xfeedback/pkg/store"
	"xfeedback/pkg/xapi"
)

var insightsOutput string

// insightsCmd represents the insights command
var insightsCmd = &cobra.Command{
	Use:   "insights <post_url_or_id>",
	Short: "Generate an HTML insights report",
	Long: `Generate an HTML report over every fetched item for a tracked post.

With ANTHROPIC_API_KEY configured the report is written by a model from
the raw feedback. Without it, a static categorized report is produced
instead.`,
	Example: `  # Timestamped report in the output directory
  xfeedback insights 1234567890

  # Explicit output path
  xfeedback insights 1234567890 --output report.html`,
	Args: cobra.ExactArgs(1),
	Run:  runInsights,
}

func init() {
	rootCmd.AddCommand(insightsCmd)
	insightsCmd.Flags().StringVarP(&insightsOutput, "output", "o", "", "output file (default: output/insights-<id>-<timestamp>.html)")
}

func runInsights(cmd *cobra.Command, args []string) {
	parentID, err := xapi.ExtractPostID(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	flags := map[string]interface{}{}
	cfg := loadConfig(flags)

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	fmt.Printf("Generating insights for post %s\n", parentID)

	gen := insights.New(st, cfg.Insights, logger.GetLogger())
	path, err := gen.Generate(context.Background(), parentID,
		insights.ParentURL(args[0], parentID), insightsOutput)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Report generation failed: %v\n", err)
		os.Exit(1)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	fmt.Printf("Report saved: %s\n", path)
	fmt.Printf("Open in browser: file://%s\n", abs)
}
