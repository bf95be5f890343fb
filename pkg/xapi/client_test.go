package xapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xfeedback/pkg/config"
	errs "xfeedback/pkg/errors"
	"xfeedback/pkg/logger"
)

func testClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.API.BaseURL = serverURL
	cfg.API.BearerToken = "test-bearer"
	cfg.Retry.BaseDelay = time.Millisecond
	cfg.Retry.RateLimitMargin = 0
	return NewClient(cfg, logger.NewTestLogger())
}

func TestGetJSONSuccess(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		fmt.Fprint(w, `{"data":[{"id":"1","text":"hello"}]}`)
	}))
	defer server.Close()

	client := testClient(t, server.URL)

	var resp apiResponse
	err := client.GetJSON(context.Background(), "/tweets/search/recent", url.Values{}, &resp)
	require.NoError(t, err)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "hello", resp.Data[0].Text)
	assert.Equal(t, "Bearer test-bearer", gotAuth)
}

func TestGetJSONRateLimitSkipBeyondCeiling(t *testing.T) {
	// Reset 200 seconds out: waiting would exceed the 120s ceiling, so the
	// call must return rate_limit_skip promptly instead of blocking.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("x-rate-limit-reset", fmt.Sprint(time.Now().Unix()+200))
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := testClient(t, server.URL)

	start := time.Now()
	err := client.GetJSON(context.Background(), "/tweets/search/recent", url.Values{}, &apiResponse{})
	require.Error(t, err)

	var apiErr *errs.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, errs.ErrorTypeRateLimitSkip, apiErr.Type)
	assert.Less(t, time.Since(start), 5*time.Second, "skip must not block for the reset duration")
}

func TestGetJSONRateLimitWaitsThenRetries(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			// Reset already in the past: wait is just the (zero) margin.
			w.Header().Set("x-rate-limit-reset", fmt.Sprint(time.Now().Unix()-1))
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"data":[]}`)
	}))
	defer server.Close()

	client := testClient(t, server.URL)

	err := client.GetJSON(context.Background(), "/tweets/search/recent", url.Values{}, &apiResponse{})
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "429 retry must not consume the attempt budget")
}

func TestGetJSONNonRetryableStatus(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":"invalid query"}`)
	}))
	defer server.Close()

	client := testClient(t, server.URL)

	err := client.GetJSON(context.Background(), "/tweets/search/recent", url.Values{}, &apiResponse{})
	require.Error(t, err)

	var apiErr *errs.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, errs.ErrorTypeHTTP, apiErr.Type)
	assert.Equal(t, http.StatusBadRequest, apiErr.Code)
	assert.Contains(t, err.Error(), "http_400")
	assert.Equal(t, 1, calls, "client errors must not be retried")
}

func TestGetJSONTransportFailureExhaustsRetries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // Every request now fails at the connection level.

	client := testClient(t, server.URL)

	err := client.GetJSON(context.Background(), "/tweets/search/recent", url.Values{}, &apiResponse{})
	require.Error(t, err)

	var apiErr *errs.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, errs.ErrorTypeMaxRetries, apiErr.Type)
}

func TestGetJSONParseError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `not json`)
	}))
	defer server.Close()

	client := testClient(t, server.URL)

	err := client.GetJSON(context.Background(), "/tweets/search/recent", url.Values{}, &apiResponse{})
	require.Error(t, err)

	var apiErr *errs.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, errs.ErrorTypeParsing, apiErr.Type)
}
