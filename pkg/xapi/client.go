package xapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"xfeedback/pkg/config"
	errs "xfeedback/pkg/errors"
	"xfeedback/pkg/logger"
	"xfeedback/pkg/retry"
)

// Client talks to the X API v2. It is the single point of failure-policy
// decision: rate-limit waiting, retry budgets and status handling all live
// here, and stream fetchers never retry themselves.
type Client struct {
	httpClient *http.Client
	baseURL    string
	bearer     string
	retryCfg   config.RetryConfig
	logger     logger.Logger

	// now is swappable for tests.
	now func() time.Time
}

// NewClient creates a new X API client from the pipeline configuration.
func NewClient(cfg *config.Config, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.API.Timeout},
		baseURL:    cfg.API.BaseURL,
		bearer:     cfg.API.BearerToken,
		retryCfg:   cfg.Retry,
		logger:     log,
		now:        time.Now,
	}
}

// GetJSON fetches path with the given query parameters and decodes the JSON
// payload into target.
//
// Failure policy:
//   - 429: wait for the server-provided reset (plus a safety margin) and
//     retry the same request without consuming the attempt budget; waits
//     past the configured ceiling abort with a rate_limit_skip error so the
//     run can make progress elsewhere.
//   - other non-200: http_<status>, never retried.
//   - transport-level failures: exponential backoff with jitter up to the
//     attempt budget, then max_retries.
func (c *Client) GetJSON(ctx context.Context, path string, params url.Values, target interface{}) error {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	for {
		resp, err := c.doWithRetry(ctx, endpoint)
		if err != nil {
			return err
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			wait := c.rateLimitWait(resp)
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()

			if wait > c.retryCfg.RateLimitCeiling {
				c.logger.WarnWithFields("rate limited, skipping page", map[string]interface{}{
					"url":     endpoint,
					"wait_s":  int(wait.Seconds()),
					"ceiling": c.retryCfg.RateLimitCeiling.String(),
				})
				return errs.New(errs.ErrorTypeRateLimitSkip,
					"rate limit reset %ds away exceeds ceiling", int(wait.Seconds()))
			}

			c.logger.WarnWithFields("rate limited, waiting for reset", map[string]interface{}{
				"url":    endpoint,
				"wait_s": int(wait.Seconds()),
			})
			if err := retry.Wait(ctx, wait); err != nil {
				return fmt.Errorf("rate limit wait cancelled: %w", err)
			}
			continue
		}

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
			resp.Body.Close()
			c.logger.ErrorWithFields("unexpected API status", map[string]interface{}{
				"url":    endpoint,
				"status": resp.StatusCode,
				"body":   string(body),
			})
			return errs.NewHTTP(resp.StatusCode, "%s", string(body))
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return errs.New(errs.ErrorTypeNetwork, "failed to read response body: %v", err)
		}
		if err := json.Unmarshal(body, target); err != nil {
			return errs.New(errs.ErrorTypeParsing, "failed to parse JSON: %v", err)
		}
		return nil
	}
}

// doWithRetry issues the request, retrying transport-level failures only.
// Status handling is left to the caller.
func (c *Client) doWithRetry(ctx context.Context, endpoint string) (*http.Response, error) {
	return retry.DoWithResult(func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, errs.New(errs.ErrorTypeUnknown, "failed to create request: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.bearer)
		req.Header.Set("User-Agent", "xfeedback/1.0")

		start := c.now()
		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.logger.WarnWithFields("transport failure", map[string]interface{}{
				"url":   endpoint,
				"error": err.Error(),
			})
			return nil, errs.New(errs.ErrorTypeNetwork, "request failed: %v", err)
		}

		c.logger.DebugWithFields("request completed", map[string]interface{}{
			"url":      endpoint,
			"status":   resp.StatusCode,
			"duration": time.Since(start).String(),
		})
		return resp, nil
	}, &retry.Config{
		MaxAttempts: c.retryCfg.MaxAttempts,
		Backoff: &retry.ExponentialBackoff{
			BaseDelay:    c.retryCfg.BaseDelay,
			MaxDelay:     time.Minute,
			Multiplier:   2.0,
			JitterFactor: 0.1,
		},
		RetryIf: retry.DefaultRetryIf,
		Context: ctx,
		Logger:  c.logger,
	})
}

// rateLimitWait computes how long a 429 asks us to wait, from the
// x-rate-limit-reset header (unix seconds) plus the safety margin.
func (c *Client) rateLimitWait(resp *http.Response) time.Duration {
	resetTS, _ := strconv.ParseInt(resp.Header.Get("x-rate-limit-reset"), 10, 64)
	wait := time.Duration(resetTS-c.now().Unix()) * time.Second
	if wait < 0 {
		wait = 0
	}
	return wait + c.retryCfg.RateLimitMargin
}
