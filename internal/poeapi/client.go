// Package poeapi is a rate-limited, cache-aware client for the public
// character-window endpoints of pathofexile.com, plus two auxiliary
// passthrough calls (item-icon proxy and pobb.in upload) that share the
// transport but not the quota.
package poeapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the host all three read operations target.
	DefaultBaseURL = "https://www.pathofexile.com"

	defaultPoBUploadURL = "https://pobb.in/pob"
	defaultImageHost    = "web.poecdn.com"

	userAgent = "poe-watcher/0.2.0 (https://github.com/kburke8/poe-watcher)"

	requestTimeout = 30 * time.Second

	// Characters change rarely; items and passives change constantly
	// during active play, so they get the shorter window.
	charactersTTL = 60 * time.Second
	itemsTTL      = 30 * time.Second
	passivesTTL   = 30 * time.Second

	limiterBurst  = 10.0
	limiterRefill = 5.0 // tokens per second
)

var (
	// ErrProfilePrivate indicates the account's profile is not public
	// (HTTP 403). Not retried automatically.
	ErrProfilePrivate = errors.New("poeapi: profile is private")

	// ErrRateLimited indicates the service rejected the request with
	// HTTP 429. The caller may retry later; the client will not.
	ErrRateLimited = errors.New("poeapi: rate limited by server")
)

// StatusError is any other non-success response.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("poeapi: unexpected status %d", e.StatusCode)
}

// Client coordinates all access to the external API. Construct one per
// process and share it: the limiter and cache it owns are what keep the
// process inside the server's quota. All methods are safe for
// concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    string
	pobURL     string
	imageHost  string
	limiter    *tokenBucket
	cache      *responseCache
	// imageLimiter guards the icon CDN, which has its own quota
	// independent of the character-window budget.
	imageLimiter *rate.Limiter
	log          *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API host (used by tests).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithPoBUploadURL overrides the pobb.in upload endpoint.
func WithPoBUploadURL(u string) Option {
	return func(c *Client) { c.pobURL = u }
}

// WithImageHost overrides the trusted icon host.
func WithImageHost(host string) Option {
	return func(c *Client) { c.imageHost = host }
}

// WithHTTPClient overrides the underlying transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger attaches a logger; the default is a nop.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.log = log }
}

// NewClient builds a client with the standard quota assumptions:
// bursts of 10, 5 requests/second sustained, 30s per-request timeout.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient:   &http.Client{Timeout: requestTimeout},
		baseURL:      DefaultBaseURL,
		pobURL:       defaultPoBUploadURL,
		imageHost:    defaultImageHost,
		limiter:      newTokenBucket(limiterBurst, limiterRefill),
		cache:        newResponseCache(),
		imageLimiter: rate.NewLimiter(rate.Limit(limiterRefill), int(limiterBurst)),
		log:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Characters fetches the account's character list.
func (c *Client) Characters(ctx context.Context, accountName string) ([]Character, error) {
	reqURL := fmt.Sprintf("%s/character-window/get-characters?accountName=%s",
		c.baseURL, url.QueryEscape(accountName))

	body, err := c.fetchCached(ctx, reqURL, charactersTTL)
	if err != nil {
		return nil, err
	}

	var characters []Character
	if err := json.Unmarshal(body, &characters); err != nil {
		return nil, fmt.Errorf("decode characters: %w", err)
	}
	return characters, nil
}

// Items fetches a character's equipped items and summary.
func (c *Client) Items(ctx context.Context, accountName, characterName string) (*CharacterItems, error) {
	reqURL := fmt.Sprintf("%s/character-window/get-items?accountName=%s&character=%s",
		c.baseURL, url.QueryEscape(accountName), url.QueryEscape(characterName))

	body, err := c.fetchCached(ctx, reqURL, itemsTTL)
	if err != nil {
		return nil, err
	}

	var items CharacterItems
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}
	return &items, nil
}

// PassiveSkills fetches a character's allocated passive-tree hashes.
func (c *Client) PassiveSkills(ctx context.Context, accountName, characterName string) (*PassiveSkills, error) {
	reqURL := fmt.Sprintf("%s/character-window/get-passive-skills?accountName=%s&character=%s",
		c.baseURL, url.QueryEscape(accountName), url.QueryEscape(characterName))

	body, err := c.fetchCached(ctx, reqURL, passivesTTL)
	if err != nil {
		return nil, err
	}

	var passives PassiveSkills
	if err := json.Unmarshal(body, &passives); err != nil {
		return nil, fmt.Errorf("decode passive skills: %w", err)
	}
	return &passives, nil
}

// fetchCached is the shared read protocol: cache lookup, limiter gate,
// GET, status classification, cache store. Two callers racing on a
// cold key may both fetch; the cache is best-effort, not single-flight.
func (c *Client) fetchCached(ctx context.Context, reqURL string, ttl time.Duration) ([]byte, error) {
	if payload, ok := c.cache.get(reqURL); ok {
		c.log.Debug("cache hit", zap.String("url", reqURL))
		return payload, nil
	}

	if err := c.limiter.wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", reqURL, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden:
		return nil, ErrProfilePrivate
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	c.cache.put(reqURL, body, ttl)
	return body, nil
}
