package insights

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	errs "xfeedback/pkg/errors"
)

const (
	anthropicEndpoint = "https://api.anthropic.com/v1/messages"
	anthropicVersion  = "2023-06-01"
	maxReportTokens   = 8000
)

// anthropicClient is a minimal messages-API client for report generation.
type anthropicClient struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	model      string
}

func newAnthropicClient(apiKey, model string) *anthropicClient {
	return &anthropicClient{
		httpClient: &http.Client{Timeout: 120 * time.Second},
		endpoint:   anthropicEndpoint,
		apiKey:     apiKey,
		model:      model,
	}
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// complete sends one user prompt and returns the text of the reply.
func (c *anthropicClient) complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(messagesRequest{
		Model:     c.model,
		MaxTokens: maxReportTokens,
		Messages:  []message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", errs.New(errs.ErrorTypeParsing, "failed to encode request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", errs.New(errs.ErrorTypeNetwork, "failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errs.New(errs.ErrorTypeNetwork, "model request failed: %v", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errs.New(errs.ErrorTypeNetwork, "failed to read response: %v", err)
	}

	var parsed messagesResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", errs.New(errs.ErrorTypeParsing, "failed to decode response: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := "model request rejected"
		if parsed.Error != nil {
			msg = parsed.Error.Message
		}
		return "", errs.NewHTTP(resp.StatusCode, "%s", msg)
	}
	if len(parsed.Content) == 0 {
		return "", errs.New(errs.ErrorTypeParsing, "empty model response")
	}
	return parsed.Content[0].Text, nil
}

// stripFences removes a markdown code fence wrapper if the model added one.
func stripFences(s string) string {
	if i := strings.Index(s, "```html"); i >= 0 {
		s = s[i+len("```html"):]
		if j := strings.Index(s, "```"); j >= 0 {
			s = s[:j]
		}
	} else if i := strings.Index(s, "```"); i >= 0 {
		s = s[i+3:]
		if j := strings.Index(s, "```"); j >= 0 {
			s = s[:j]
		}
	}
	return strings.TrimSpace(s)
}

func reportPrompt(itemsText, parentURL string, total int) string {
	return fmt.Sprintf(`Analyze these %d Twitter/X replies and quote tweets. Generate an HTML insights report.

SOURCE TWEET: %s

REPLIES AND QUOTES:
%s

Generate a complete HTML document with:
1. Summary stats (total responses, %% noise vs signal)
2. Key insights - what's the main narrative/hook that drove engagement?
3. Actionable items - feature requests, questions, partnership offers
4. Noise categories - jokes, spam, drama (collapsed by default)
5. Notable quotes with links back to tweets (format: https://x.com/USERNAME/status/TWEET_ID)

Use this exact HTML structure and styling:
- Clean, light theme with system fonts
- Collapsible <details> sections for long lists
- Tags for categorization (.tag classes)
- Blockquotes for tweet citations
- Stats row at top

Output ONLY the complete HTML document, no explanation.`, total, parentURL, itemsText)
}
