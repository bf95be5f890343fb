package analyze

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name         string
		text         string
		wantCategory string
		wantPriority int
	}{
		{"feature request", "Please add dark mode to the settings page", "feature_request", 2},
		{"question", "How does the sync feature actually work?", "question", 1},
		{"question mark without keyword", "interesting take!?!! really something", "other", 0},
		{"bug report", "The export button is broken on mobile for me", "bug_report", 2},
		{"criticism", "honestly the new layout sucks compared to before", "criticism", 1},
		{"praise", "This tool is amazing, saved me hours today honestly", "praise", 0},
		{"joke phrase", "lmao this thread is something else entirely today", "joke", 0},
		{"short text is a joke", "nice one", "joke", 0},
		{"spam", "Massive giveaway happening right now, really incredible stuff", "spam", 0},
		{"fallback", "I deployed this at work last quarter without incident", "other", 0},
		{"feature beats question", "Could you add a CSV export option?", "feature_request", 2},
		{"bug beats praise", "love it but the login crash is back again", "bug_report", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Classify(tt.text)
			if v.Category != tt.wantCategory {
				t.Errorf("Classify(%q) category = %q, want %q", tt.text, v.Category, tt.wantCategory)
			}
			if v.Priority != tt.wantPriority {
				t.Errorf("Classify(%q) priority = %d, want %d", tt.text, v.Priority, tt.wantPriority)
			}
		})
	}
}
