package xapi

import "encoding/json"

// Post is one reply or quote returned by the X API v2.
type Post struct {
	ID            string          `json:"id"`
	Text          string          `json:"text"`
	AuthorID      string          `json:"author_id"`
	CreatedAt     string          `json:"created_at"`
	PublicMetrics json.RawMessage `json:"public_metrics"`

	// AuthorHandle is resolved from the includes.users expansion before a
	// page leaves this package; raw author ids never reach storage.
	AuthorHandle string `json:"-"`
}

// User is an expanded author record from includes.users.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// apiResponse is the common envelope of the search and quote endpoints.
type apiResponse struct {
	Data     []Post `json:"data"`
	Includes struct {
		Users []User `json:"users"`
	} `json:"includes"`
	Meta struct {
		NextToken   string `json:"next_token"`
		ResultCount int    `json:"result_count"`
	} `json:"meta"`
}

// Page is one bounded batch of posts plus the continuation token for the
// next page. An empty NextToken means the stream is exhausted for the
// requested bounds.
type Page struct {
	Items     []Post
	NextToken string
}

// resolveAuthors attaches usernames from the expansion to each post.
func resolveAuthors(posts []Post, users []User) {
	byID := make(map[string]string, len(users))
	for _, u := range users {
		byID[u.ID] = u.Username
	}
	for i := range posts {
		handle, ok := byID[posts[i].AuthorID]
		if !ok {
			handle = "unknown"
		}
		posts[i].AuthorHandle = handle
	}
}
