// Package insights renders an HTML feedback report for one tracked post,
// preferring a model-written narrative and falling back to a static
// categorized page when no API key is configured.
package insights

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"xfeedback/pkg/config"
	errs "xfeedback/pkg/errors"
	"xfeedback/pkg/logger"
	"xfeedback/pkg/store"
)

// Generator builds reports from stored items.
type Generator struct {
	store *store.Store
	cfg   config.InsightsConfig
	model *anthropicClient
	log   logger.Logger
	now   func() time.Time
}

// New builds a Generator. The model client is only constructed when an
// API key is configured.
func New(st *store.Store, cfg config.InsightsConfig, log logger.Logger) *Generator {
	if log == nil {
		log = logger.GetLogger()
	}
	g := &Generator{store: st, cfg: cfg, log: log, now: time.Now}
	if cfg.AnthropicAPIKey != "" {
		g.model = newAnthropicClient(cfg.AnthropicAPIKey, cfg.Model)
	}
	return g
}

// Generate writes a report for parentID and returns the output path.
// outputFile overrides the default timestamped location when non-empty.
func (g *Generator) Generate(ctx context.Context, parentID, parentURL, outputFile string) (string, error) {
	items, err := g.store.ItemsForParent(ctx, parentID)
	if err != nil {
		return "", err
	}
	if len(items) == 0 {
		return "", errs.New(errs.ErrorTypeUnknown, "no items stored for post %s, fetch first", parentID)
	}

	g.log.InfoWithFields("generating report", map[string]interface{}{
		"parent_id": parentID,
		"items":     len(items),
	})

	html := ""
	if g.model != nil {
		html, err = g.model.complete(ctx, reportPrompt(FormatItems(items), parentURL, len(items)))
		if err != nil {
			g.log.WithError(err).Warn("model report failed, falling back to basic report")
			html = ""
		} else {
			html = stripFences(html)
		}
	}
	if html == "" {
		html, err = renderBasicHTML(items, parentURL)
		if err != nil {
			return "", err
		}
	}

	path := outputFile
	if path == "" {
		short := parentID
		if len(short) > 8 {
			short = short[:8]
		}
		name := fmt.Sprintf("insights-%s-%s.html", short, g.now().Format("20060102-150405"))
		path = filepath.Join(g.cfg.OutputDir, name)
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("insights: mkdir: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(html), 0644); err != nil {
		return "", fmt.Errorf("insights: write report: %w", err)
	}
	return path, nil
}

// FormatItems renders items as prompt lines with engagement counts.
func FormatItems(items []store.Item) string {
	var b strings.Builder
	for _, it := range items {
		var metrics struct {
			Likes    int `json:"like_count"`
			Retweets int `json:"retweet_count"`
		}
		if it.Metrics != "" {
			// Malformed metrics degrade to zero counts, never fail the report.
			_ = json.Unmarshal([]byte(it.Metrics), &metrics)
		}
		fmt.Fprintf(&b, "@%s (%s, %d likes, %d RTs): %s\n",
			it.AuthorHandle, it.StreamKind, metrics.Likes, metrics.Retweets, it.Text)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// ParentURL reconstructs a canonical post URL unless the raw input was
// already one.
func ParentURL(rawInput, parentID string) string {
	if strings.Contains(rawInput, "x.com") || strings.Contains(rawInput, "twitter.com") {
		return rawInput
	}
	return "https://x.com/i/status/" + parentID
}
