package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPTranslator calls a LibreTranslate-compatible /translate endpoint.
type HTTPTranslator struct {
	url        string
	apiKey     string
	httpClient *http.Client
}

// NewHTTP creates a translator for the endpoint at url. apiKey may be empty
// for self-hosted servers.
func NewHTTP(url, apiKey string) *HTTPTranslator {
	return &HTTPTranslator{
		url:    url,
		apiKey: apiKey,
		// Go Pattern: Always configure timeouts on HTTP clients.
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Name identifies the backend in job records.
func (t *HTTPTranslator) Name() string { return "http" }

type httpRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
	APIKey string `json:"api_key,omitempty"`
}

type httpResponse struct {
	TranslatedText string `json:"translatedText"`
	Error          string `json:"error"`
}

// Translate sends one request. Long texts should go through TranslateLong.
func (t *HTTPTranslator) Translate(ctx context.Context, text, source, target string) (string, error) {
	if t.url == "" {
		return "", ErrNotConfigured
	}

	jsonBody, err := json.Marshal(httpRequest{
		Q:      text,
		Source: source,
		Target: target,
		Format: "text",
		APIKey: t.apiKey,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", t.url, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("translation request failed: %w", err)
	}
	defer resp.Body.Close() // Go Pattern: ALWAYS close response bodies!

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var out httpResponse
	parseErr := json.Unmarshal(body, &out)

	if resp.StatusCode != http.StatusOK {
		if parseErr == nil && out.Error != "" {
			return "", fmt.Errorf("translation endpoint returned %d: %s", resp.StatusCode, out.Error)
		}
		return "", fmt.Errorf("translation endpoint returned %d: %s", resp.StatusCode, string(body))
	}
	if parseErr != nil {
		return "", fmt.Errorf("failed to parse response: %w", parseErr)
	}
	if out.Error != "" {
		return "", fmt.Errorf("translation endpoint error: %s", out.Error)
	}

	return out.TranslatedText, nil
}
