// Package gemini is a minimal client for the Google generative-language
// generateContent endpoint.
//
// The request format is fixed by Google: a list of "contents" (each a role
// plus text "parts") and a "generationConfig". The API key travels as the
// `key` query parameter, so request URLs must never be logged.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultEndpoint is the generateContent URL for the model DocGenie uses.
const DefaultEndpoint = "https://generativelanguage.googleapis.com/v1beta/models/gemini-1.5-flash-latest:generateContent"

// Client calls the generateContent endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// New creates a client. A zero timeout means no client-side limit.
func New(endpoint string, timeout time.Duration) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		endpoint: endpoint,
		// Go Pattern: Always configure timeouts on HTTP clients.
		// The default http.Client has NO timeout: requests can hang forever!
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// GenerationConfig tunes sampling for a single request.
type GenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

// DefaultGenerationConfig keeps answers short and close to the source text.
var DefaultGenerationConfig = GenerationConfig{
	Temperature:     0.2,
	MaxOutputTokens: 800,
}

// --- generateContent wire types ---

// Part is one piece of message text.
type Part struct {
	Text string `json:"text"`
}

// Content is one turn of the conversation.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

type generateRequest struct {
	Contents         []Content        `json:"contents"`
	GenerationConfig GenerationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content Content `json:"content"`
	} `json:"candidates"`
}

// APIError is returned for any non-2xx response.
// Details carries the server's explanation, suitable for showing to a user.
type APIError struct {
	StatusCode int
	Details    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("generative API returned %d: %s", e.StatusCode, e.Details)
}

// GenerateContent sends a single-turn prompt and returns the text of the
// first candidate, its parts joined by newlines. An empty string means the
// model produced no text.
func (c *Client) GenerateContent(ctx context.Context, apiKey, prompt string, cfg GenerationConfig) (string, error) {
	reqURL, err := c.requestURL(apiKey)
	if err != nil {
		return "", err
	}

	reqBody := generateRequest{
		Contents: []Content{
			{Role: "user", Parts: []Part{{Text: prompt}}},
		},
		GenerationConfig: cfg,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// *url.Error embeds the full URL, key included; keep only the cause.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return "", fmt.Errorf("generative API request failed: %w", err)
	}
	defer resp.Body.Close() // Go Pattern: ALWAYS close response bodies!

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &APIError{
			StatusCode: resp.StatusCode,
			Details:    errorDetails(body),
		}
	}

	var genResp generateResponse
	if err := json.Unmarshal(body, &genResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if len(genResp.Candidates) == 0 {
		return "", nil
	}

	parts := genResp.Candidates[0].Content.Parts
	texts := make([]string, 0, len(parts))
	for _, p := range parts {
		texts = append(texts, p.Text)
	}
	return strings.Join(texts, "\n"), nil
}

func (c *Client) requestURL(apiKey string) (string, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid generative endpoint: %w", err)
	}
	q := u.Query()
	q.Set("key", apiKey)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// errorDetails pulls a human-readable explanation out of an error body:
// the JSON error.message when present, otherwise the compacted JSON,
// otherwise the raw text.
func errorDetails(body []byte) string {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Valid(body) {
		if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
			return envelope.Error.Message
		}
		var compact bytes.Buffer
		if err := json.Compact(&compact, body); err == nil {
			return compact.String()
		}
	}
	return strings.TrimSpace(string(body))
}
