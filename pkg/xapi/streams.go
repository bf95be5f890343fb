package xapi

import (
	"context"
	"net/url"
	"strconv"

	errs "xfeedback/pkg/errors"
)

// StreamKind identifies one of the two item sources for a tracked post.
type StreamKind string

const (
	StreamReplies StreamKind = "reply"
	StreamQuotes  StreamKind = "quote"
)

// Bounds restricts a page request to ids strictly newer than SinceID or
// strictly older than UntilID. A single page request never carries both.
type Bounds struct {
	SinceID string
	UntilID string
}

// ErrBackfillUnsupported is returned by streams that have no upper-bound
// query. The quote endpoint is one: this is a real capability asymmetry
// between the two streams, surfaced rather than silently ignored.
var ErrBackfillUnsupported = errs.New(errs.ErrorTypeUnsupported,
	"quote stream does not support an upper id bound")

// StreamFetcher returns one page of posts for a tracked post. Fetchers are
// stateless with respect to storage; all failure policy lives in the Client.
type StreamFetcher interface {
	Kind() StreamKind
	FetchPage(ctx context.Context, parentID string, bounds Bounds, pageToken string) (*Page, error)
}

const postFields = "created_at,public_metrics,author_id"

// ReplyStream fetches replies through the recent-search endpoint, scoped to
// the tracked post's conversation.
type ReplyStream struct {
	client   *Client
	pageSize int
}

// NewReplyStream creates a reply fetcher.
func NewReplyStream(client *Client, pageSize int) *ReplyStream {
	return &ReplyStream{client: client, pageSize: pageSize}
}

func (r *ReplyStream) Kind() StreamKind { return StreamReplies }

// FetchPage returns one page of replies. SinceID fetches strictly newer
// items, UntilID strictly older ones; the coordinator supplies at most one.
func (r *ReplyStream) FetchPage(ctx context.Context, parentID string, bounds Bounds, pageToken string) (*Page, error) {
	params := url.Values{}
	params.Set("query", "conversation_id:"+parentID+" is:reply")
	params.Set("max_results", strconv.Itoa(r.pageSize))
	params.Set("tweet.fields", postFields)
	params.Set("expansions", "author_id")
	params.Set("user.fields", "username")

	if bounds.SinceID != "" {
		params.Set("since_id", bounds.SinceID)
	}
	if bounds.UntilID != "" {
		params.Set("until_id", bounds.UntilID)
	}
	if pageToken != "" {
		params.Set("next_token", pageToken)
	}

	var resp apiResponse
	if err := r.client.GetJSON(ctx, "/tweets/search/recent", params, &resp); err != nil {
		return nil, err
	}

	resolveAuthors(resp.Data, resp.Includes.Users)
	return &Page{Items: resp.Data, NextToken: resp.Meta.NextToken}, nil
}

// QuoteStream fetches quote posts through the dedicated quote endpoint.
type QuoteStream struct {
	client   *Client
	pageSize int
}

// NewQuoteStream creates a quote fetcher.
func NewQuoteStream(client *Client, pageSize int) *QuoteStream {
	return &QuoteStream{client: client, pageSize: pageSize}
}

func (q *QuoteStream) Kind() StreamKind { return StreamQuotes }

// FetchPage returns one page of quotes. The endpoint accepts a lower bound
// for incremental fetching but no upper bound, so backfill requests fail
// with ErrBackfillUnsupported before any network call.
func (q *QuoteStream) FetchPage(ctx context.Context, parentID string, bounds Bounds, pageToken string) (*Page, error) {
	if bounds.UntilID != "" {
		return nil, ErrBackfillUnsupported
	}

	params := url.Values{}
	params.Set("max_results", strconv.Itoa(q.pageSize))
	params.Set("tweet.fields", postFields)
	params.Set("expansions", "author_id")
	params.Set("user.fields", "username")

	if bounds.SinceID != "" {
		params.Set("since_id", bounds.SinceID)
	}
	if pageToken != "" {
		params.Set("pagination_token", pageToken)
	}

	var resp apiResponse
	if err := q.client.GetJSON(ctx, "/tweets/"+parentID+"/quote_tweets", params, &resp); err != nil {
		return nil, err
	}

	resolveAuthors(resp.Data, resp.Includes.Users)
	return &Page{Items: resp.Data, NextToken: resp.Meta.NextToken}, nil
}
