package dashboard

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"xfeedback/pkg/store"
)

// CategoryCount is one category's item total, for the stat cards.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// ItemView is one item as rendered by the dashboard.
type ItemView struct {
	ID           string `json:"id"`
	ParentID     string `json:"parent_id"`
	AuthorHandle string `json:"author_username"`
	Text         string `json:"text"`
	StreamKind   string `json:"stream_kind"`
	Category     string `json:"category"`
	Priority     int    `json:"priority"`
	Likes        int    `json:"likes"`
	URL          string `json:"url"`
}

// Data is everything one dashboard render needs.
type Data struct {
	Categories   []CategoryCount `json:"categories"`
	HighPriority []ItemView      `json:"high_priority"`
	Recent       []ItemView      `json:"recent"`
	Total        int             `json:"total"`
	PerParent    map[string]int  `json:"per_parent"`
	LastUpdated  string          `json:"last_updated"`
}

// collectData aggregates the dashboard view for the tracked parents.
func collectData(ctx context.Context, st *store.Store, parentIDs []string) (*Data, error) {
	counts, err := st.CategoryCounts(ctx, parentIDs)
	if err != nil {
		return nil, err
	}
	categories := make([]CategoryCount, 0, len(counts))
	for cat, n := range counts {
		categories = append(categories, CategoryCount{Category: cat, Count: n})
	}
	sort.Slice(categories, func(i, j int) bool {
		if categories[i].Count != categories[j].Count {
			return categories[i].Count > categories[j].Count
		}
		return categories[i].Category < categories[j].Category
	})

	high, err := st.HighPriorityItems(ctx, parentIDs, 50)
	if err != nil {
		return nil, err
	}
	recent, err := st.RecentItems(ctx, parentIDs, 100)
	if err != nil {
		return nil, err
	}
	total, err := st.CountItems(ctx, parentIDs)
	if err != nil {
		return nil, err
	}
	perParent, err := st.CountByParent(ctx)
	if err != nil {
		return nil, err
	}

	return &Data{
		Categories:   categories,
		HighPriority: toViews(high),
		Recent:       toViews(recent),
		Total:        total,
		PerParent:    perParent,
		LastUpdated:  time.Now().Format(time.RFC3339),
	}, nil
}

func toViews(items []store.ClassifiedItem) []ItemView {
	views := make([]ItemView, 0, len(items))
	for _, it := range items {
		var metrics struct {
			Likes int `json:"like_count"`
		}
		if it.Metrics != "" {
			_ = json.Unmarshal([]byte(it.Metrics), &metrics)
		}
		views = append(views, ItemView{
			ID:           it.ID,
			ParentID:     it.ParentID,
			AuthorHandle: it.AuthorHandle,
			Text:         truncate(it.Text, 200),
			StreamKind:   it.StreamKind,
			Category:     it.Category,
			Priority:     it.Priority,
			Likes:        metrics.Likes,
			URL:          "https://x.com/" + it.AuthorHandle + "/status/" + it.ID,
		})
	}
	return views
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
