package analyze

import (
	"context"

	"xfeedback/pkg/logger"
	"xfeedback/pkg/store"
)

// Analyzer classifies stored items that have no verdict yet. Writes are
// additive; an already-classified item is never revisited.
type Analyzer struct {
	store *store.Store
	log   logger.Logger
}

// New builds an Analyzer.
func New(st *store.Store, log logger.Logger) *Analyzer {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Analyzer{store: st, log: log}
}

// Run classifies every unclassified item for parentID and returns the
// number of items classified.
func (a *Analyzer) Run(ctx context.Context, parentID string) (int, error) {
	items, err := a.store.UnclassifiedItems(ctx, parentID)
	if err != nil {
		return 0, err
	}
	if len(items) == 0 {
		a.log.WithField("parent_id", parentID).Debug("nothing to classify")
		return 0, nil
	}

	a.log.InfoWithFields("classifying items", map[string]interface{}{
		"parent_id": parentID,
		"count":     len(items),
	})

	for _, it := range items {
		v := Classify(it.Text)
		err := a.store.InsertClassification(ctx, store.Classification{
			ItemID:   it.ID,
			Category: v.Category,
			Summary:  v.Summary,
			Priority: v.Priority,
		})
		if err != nil {
			return 0, err
		}
	}
	return len(items), nil
}

// Summary aggregates classified items for display.
type Summary struct {
	Counts       map[string]int
	HighPriority []store.ClassifiedItem
	ByCategory   map[string][]store.ClassifiedItem
}

// Summarize builds a display summary for parentID from stored verdicts.
func (a *Analyzer) Summarize(ctx context.Context, parentID string) (*Summary, error) {
	parents := []string{parentID}

	counts, err := a.store.CategoryCounts(ctx, parents)
	if err != nil {
		return nil, err
	}
	high, err := a.store.HighPriorityItems(ctx, parents, 20)
	if err != nil {
		return nil, err
	}
	all, err := a.store.ClassifiedItems(ctx, parents)
	if err != nil {
		return nil, err
	}

	byCat := make(map[string][]store.ClassifiedItem)
	for _, it := range all {
		byCat[it.Category] = append(byCat[it.Category], it)
	}

	return &Summary{Counts: counts, HighPriority: high, ByCategory: byCat}, nil
}
