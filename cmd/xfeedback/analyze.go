package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"xfeedback/pkg/analyze"
	"xfeedback/pkg/logger"
	"xfeedback/pkg/store"
	"xfeedback/pkg/xapi"
)

var analyzeShowAll bool

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <post_url_or_id>",
	Short: "Classify fetched feedback into actionable categories",
	Long: `Classify every fetched item for a tracked post that has not been
classified yet, then print a category summary and the high priority items.

Classification is rule based and additive: an item keeps its first verdict
across repeated invocations.`,
	Example: `  # Classify and summarize
  xfeedback analyze 1234567890

  # Also list every item per category
  xfeedback analyze 1234567890 --show-all`,
	Args: cobra.ExactArgs(1),
	Run:  runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().BoolVar(&analyzeShowAll, "show-all", false, "list every classified item per category")
}

func runAnalyze(cmd *cobra.Command, args []string) {
	parentID, err := xapi.ExtractPostID(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cfg := loadConfig(nil)
	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	ctx := context.Background()
	analyzer := analyze.New(st, logger.GetLogger())

	count, err := analyzer.Run(ctx, parentID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Analysis failed: %v\n", err)
		os.Exit(1)
	}
	if count > 0 {
		fmt.Printf("Classified %d new items\n", count)
	} else {
		fmt.Println("No new items to classify.")
	}

	summary, err := analyzer.Summarize(ctx, parentID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build summary: %v\n", err)
		os.Exit(1)
	}
	printSummary(summary)
}

func printSummary(s *analyze.Summary) {
	rule := strings.Repeat("=", 60)

	fmt.Println("\n" + rule)
	fmt.Println("FEEDBACK ANALYSIS SUMMARY")
	fmt.Println(rule)
	for _, cat := range analyze.Categories {
		if n := s.Counts[cat.Name]; n > 0 {
			fmt.Printf("  %-18s %4d items\n", cat.Name, n)
		}
	}
	fmt.Println(rule)

	if len(s.HighPriority) > 0 {
		fmt.Println("\nHIGH PRIORITY ITEMS:")
		fmt.Println(strings.Repeat("-", 60))
		for _, item := range s.HighPriority {
			fmt.Printf("[@%s] (%s)\n", item.AuthorHandle, item.Category)
			fmt.Printf("  %s\n\n", clip(item.Text, 100))
		}
	}

	if analyzeShowAll {
		fmt.Println("\nALL CATEGORIZED ITEMS:")
		fmt.Println(strings.Repeat("-", 60))
		for _, cat := range analyze.Categories {
			items := s.ByCategory[cat.Name]
			if len(items) == 0 {
				continue
			}
			fmt.Printf("\n### %s (%d items) ###\n\n", strings.ToUpper(cat.Name), len(items))
			for i, item := range items {
				if i >= 10 {
					break
				}
				fmt.Printf("  @%s: %s\n", item.AuthorHandle, clip(item.Text, 80))
			}
		}
	}
}

func clip(text string, max int) string {
	text = strings.ReplaceAll(text, "\n", " ")
	r := []rune(text)
	if len(r) > max {
		return string(r[:max]) + "..."
	}
	return text
}
