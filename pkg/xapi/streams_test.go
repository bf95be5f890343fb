package xapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xfeedback/pkg/config"
	"xfeedback/pkg/logger"
)

func streamTestServer(t *testing.T, capture *url.Values, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*capture = r.URL.Query()
		fmt.Fprint(w, body)
	}))
}

func streamClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.API.BaseURL = serverURL
	cfg.API.BearerToken = "test-bearer"
	cfg.Retry.BaseDelay = time.Millisecond
	return NewClient(cfg, logger.NewTestLogger())
}

const pageBody = `{
	"data": [
		{"id": "101", "text": "first", "author_id": "u1", "created_at": "2026-01-02T03:04:05Z", "public_metrics": {"like_count": 3}},
		{"id": "102", "text": "second", "author_id": "u2"}
	],
	"includes": {"users": [{"id": "u1", "username": "alice"}]},
	"meta": {"next_token": "tok-2", "result_count": 2}
}`

func TestReplyStreamBuildsSearchQuery(t *testing.T) {
	var got url.Values
	server := streamTestServer(t, &got, pageBody)
	defer server.Close()

	stream := NewReplyStream(streamClient(t, server.URL), 100)
	page, err := stream.FetchPage(context.Background(), "555", Bounds{}, "")
	require.NoError(t, err)

	assert.Equal(t, "conversation_id:555 is:reply", got.Get("query"))
	assert.Equal(t, "100", got.Get("max_results"))
	assert.Equal(t, "author_id", got.Get("expansions"))
	assert.Empty(t, got.Get("since_id"))
	assert.Empty(t, got.Get("until_id"))
	assert.Equal(t, "tok-2", page.NextToken)
}

func TestReplyStreamSinceBound(t *testing.T) {
	var got url.Values
	server := streamTestServer(t, &got, pageBody)
	defer server.Close()

	stream := NewReplyStream(streamClient(t, server.URL), 100)
	_, err := stream.FetchPage(context.Background(), "555", Bounds{SinceID: "500"}, "")
	require.NoError(t, err)

	assert.Equal(t, "500", got.Get("since_id"))
	assert.Empty(t, got.Get("until_id"))
}

func TestReplyStreamUntilBound(t *testing.T) {
	var got url.Values
	server := streamTestServer(t, &got, pageBody)
	defer server.Close()

	stream := NewReplyStream(streamClient(t, server.URL), 100)
	_, err := stream.FetchPage(context.Background(), "555", Bounds{UntilID: "100"}, "")
	require.NoError(t, err)

	assert.Equal(t, "100", got.Get("until_id"))
	assert.Empty(t, got.Get("since_id"))
}

func TestReplyStreamContinuationToken(t *testing.T) {
	var got url.Values
	server := streamTestServer(t, &got, pageBody)
	defer server.Close()

	stream := NewReplyStream(streamClient(t, server.URL), 100)
	_, err := stream.FetchPage(context.Background(), "555", Bounds{}, "tok-1")
	require.NoError(t, err)

	assert.Equal(t, "tok-1", got.Get("next_token"))
}

func TestAuthorResolution(t *testing.T) {
	var got url.Values
	server := streamTestServer(t, &got, pageBody)
	defer server.Close()

	stream := NewReplyStream(streamClient(t, server.URL), 100)
	page, err := stream.FetchPage(context.Background(), "555", Bounds{}, "")
	require.NoError(t, err)

	require.Len(t, page.Items, 2)
	assert.Equal(t, "alice", page.Items[0].AuthorHandle)
	// u2 has no expansion entry and must not reach storage unresolved.
	assert.Equal(t, "unknown", page.Items[1].AuthorHandle)
}

func TestQuoteStreamEndpointAndToken(t *testing.T) {
	var got url.Values
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		got = r.URL.Query()
		fmt.Fprint(w, pageBody)
	}))
	defer server.Close()

	stream := NewQuoteStream(streamClient(t, server.URL), 100)
	_, err := stream.FetchPage(context.Background(), "555", Bounds{SinceID: "42"}, "tok-q")
	require.NoError(t, err)

	assert.Equal(t, "/tweets/555/quote_tweets", gotPath)
	assert.Equal(t, "42", got.Get("since_id"))
	assert.Equal(t, "tok-q", got.Get("pagination_token"))
}

func TestQuoteStreamRejectsBackfill(t *testing.T) {
	// No server: the unsupported bound must fail before any network call.
	stream := NewQuoteStream(streamClient(t, "http://127.0.0.1:0"), 100)

	_, err := stream.FetchPage(context.Background(), "555", Bounds{UntilID: "100"}, "")
	assert.ErrorIs(t, err, ErrBackfillUnsupported)
}

func TestExtractPostID(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"https://x.com/someone/status/2008652887136891376", "2008652887136891376", false},
		{"https://twitter.com/someone/status/123/photo/1", "123", false},
		{"2008652887136891376", "2008652887136891376", false},
		{"not-a-post", "", true},
		{"https://x.com/someone", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ExtractPostID(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
