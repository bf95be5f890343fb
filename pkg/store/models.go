package store

// Direction identifies which end of a parent's history a watermark tracks.
type Direction string

const (
	// Forward marks the newest item id seen for a stream.
	Forward Direction = "forward"
	// Backward marks the oldest item id seen for a stream.
	Backward Direction = "backward"
)

// Item is one stored post belonging to a parent's reply or quote stream.
type Item struct {
	ID           string
	ParentID     string
	StreamKind   string
	AuthorID     string
	AuthorHandle string
	Text         string
	CreatedAt    string
	Metrics      string
	FetchedAt    string
}

// Classification is the analysis verdict attached to a stored item.
type Classification struct {
	ItemID   string
	Category string
	Summary  string
	Priority int
}

// ClassifiedItem joins an item with its classification. Items that have
// not been classified carry the defaults "other" and priority 0.
type ClassifiedItem struct {
	Item
	Category string
	Summary  string
	Priority int
}
