package poeapi

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"net/http"
	"net/url"

	"golang.org/x/image/draw"
)

// ProxyImage fetches an item icon from the trusted CDN host and returns
// it as a data URL (`data:<content-type>;base64,...`). Only the
// configured icon host is allowed; anything else is rejected before any
// network I/O. The CDN has its own quota independent of the
// character-window budget, so this path bypasses the shared token
// bucket and cache entirely.
//
// If maxDim > 0 and the payload decodes as an image larger than maxDim
// on either axis, it is downscaled to fit and re-encoded as PNG.
func (c *Client) ProxyImage(ctx context.Context, rawURL string, maxDim int) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse image url: %w", err)
	}
	if parsed.Hostname() != c.imageHost {
		return "", fmt.Errorf("poeapi: only %s URLs are allowed", c.imageHost)
	}

	if err := c.imageLimiter.Wait(ctx); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{StatusCode: resp.StatusCode}
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/png"
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}

	if maxDim > 0 {
		if scaled, ok := downscale(payload, maxDim); ok {
			payload = scaled
			contentType = "image/png"
		}
	}

	return fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(payload)), nil
}

// downscale shrinks the image so neither axis exceeds maxDim,
// preserving aspect ratio. Undecodable payloads and images already
// within bounds are passed through unchanged.
func downscale(payload []byte, maxDim int) ([]byte, bool) {
	src, _, err := image.Decode(bytes.NewReader(payload))
	if err != nil {
		return nil, false
	}

	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxDim && h <= maxDim {
		return nil, false
	}

	if w >= h {
		h = h * maxDim / w
		w = maxDim
	} else {
		w = w * maxDim / h
		h = maxDim
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, false
	}
	return buf.Bytes(), true
}
