package integration

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xfeedback/pkg/analyze"
	"xfeedback/pkg/config"
	"xfeedback/pkg/dashboard"
	"xfeedback/pkg/ingest"
	"xfeedback/pkg/logger"
	"xfeedback/pkg/store"
	"xfeedback/pkg/xapi"
)

// newMockAPI serves a two-page reply stream and an empty quote stream,
// recording the since_id of every search request.
func newMockAPI(t *testing.T, sinceIDs *[]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/tweets/search/recent":
			*sinceIDs = append(*sinceIDs, r.URL.Query().Get("since_id"))
			if r.URL.Query().Get("next_token") == "page2" {
				fmt.Fprint(w, `{
					"data": [{"id": "101", "text": "it crashes when I open settings", "author_id": "u2"}],
					"includes": {"users": [{"id": "u2", "username": "bob"}]},
					"meta": {"result_count": 1}
				}`)
				return
			}
			fmt.Fprint(w, `{
				"data": [
					{"id": "205", "text": "please add vim keybindings", "author_id": "u1", "public_metrics": {"like_count": 9}},
					{"id": "180", "text": "this is amazing, thank you", "author_id": "u1"}
				],
				"includes": {"users": [{"id": "u1", "username": "alice"}]},
				"meta": {"next_token": "page2", "result_count": 2}
			}`)
		case r.URL.Path == "/tweets/77/quote_tweets":
			fmt.Fprint(w, `{"meta": {"result_count": 0}}`)
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestFetchAnalyzeDashboardPipeline(t *testing.T) {
	var sinceIDs []string
	api := newMockAPI(t, &sinceIDs)
	defer api.Close()

	cfg := config.DefaultConfig()
	cfg.API.BaseURL = api.URL
	cfg.API.BearerToken = "test-token"
	cfg.Fetch.InterPageDelay = 0
	cfg.Database.Path = filepath.Join(t.TempDir(), "feedback.db")
	cfg.Dashboard.ParentIDs = []string{"77"}

	log := logger.NewTestLogger()
	st, err := store.Open(cfg.Database.Path)
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	client := xapi.NewClient(cfg, log)

	// First run ingests both pages of replies and the empty quote stream.
	replyRes, err := ingest.New(cfg, st, xapi.NewReplyStream(client, cfg.Fetch.PageSize), nil, log).
		Run(ctx, "77", false, nil)
	require.NoError(t, err)
	require.Nil(t, replyRes.Err)
	assert.Equal(t, ingest.ModeInitial, replyRes.Mode)
	assert.Equal(t, 3, replyRes.Saved)

	quoteRes, err := ingest.New(cfg, st, xapi.NewQuoteStream(client, cfg.Fetch.PageSize), nil, log).
		Run(ctx, "77", false, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, quoteRes.Saved)

	// A second reply run resumes from the committed forward watermark.
	_, err = ingest.New(cfg, st, xapi.NewReplyStream(client, cfg.Fetch.PageSize), nil, log).
		Run(ctx, "77", false, nil)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(sinceIDs), 3)
	assert.Equal(t, "", sinceIDs[0], "first run starts unbounded")
	assert.Equal(t, "205", sinceIDs[len(sinceIDs)-1], "second run resumes from the newest seen id")

	// Classification covers everything exactly once.
	n, err := analyze.New(st, log).Run(ctx, "77")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	// The dashboard aggregates the classified data.
	srv := httptest.NewServer(dashboard.New(cfg.Dashboard, st, nil, log).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/data")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var data dashboard.Data
	require.NoError(t, jsonDecode(resp, &data))
	assert.Equal(t, 3, data.Total)
	require.NotEmpty(t, data.HighPriority)
	assert.Equal(t, "alice", data.HighPriority[0].AuthorHandle)
}
