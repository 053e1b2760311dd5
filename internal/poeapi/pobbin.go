package poeapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// UploadPoB posts a Path of Building import code to pobb.in and returns
// the share URL. pobb.in has its own quota, so this call bypasses the
// shared limiter and is never cached.
//
// The service normally answers with a bare identifier as plain text
// (e.g. "WtDNCT-adpMf"); a JSON object is accepted as a fallback for
// error payloads or future API changes.
func (c *Client) UploadPoB(ctx context.Context, pobCode string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.pobURL, strings.NewReader(pobCode))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload build: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	text := strings.TrimSpace(string(body))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("poeapi: pobb.in error (%d): %s", resp.StatusCode, text)
	}

	if text != "" && !strings.HasPrefix(text, "{") && !strings.HasPrefix(text, "<") {
		return "https://pobb.in/" + text, nil
	}

	var payload struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		ID      string `json:"id"`
		URL     string `json:"url"`
	}
	if err := json.Unmarshal([]byte(text), &payload); err == nil {
		if payload.Code >= 400 {
			return "", fmt.Errorf("poeapi: pobb.in error: %s", payload.Message)
		}
		if payload.ID != "" {
			return "https://pobb.in/" + payload.ID, nil
		}
		if payload.URL != "" {
			return payload.URL, nil
		}
	}

	if len(text) > 200 {
		text = text[:200]
	}
	return "", fmt.Errorf("poeapi: pobb.in returned unexpected response (%d): %s", resp.StatusCode, text)
}
