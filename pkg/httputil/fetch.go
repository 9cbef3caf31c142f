// Package httputil provides a small HTTP fetch layer for loading graph
// payloads from remote endpoints: a retrying GET with exponential
// backoff and an optional byte cache keyed by URL.
//
// # Usage
//
//	f := httputil.NewFetcher(nil)
//	data, err := f.Fetch(ctx, "https://build.example.com/graph.json")
package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nestview/nestview/pkg/cache"
	"github.com/nestview/nestview/pkg/errors"
)

const (
	defaultTimeout  = 30 * time.Second
	defaultAttempts = 3
	defaultDelay    = time.Second
	maxPayloadBytes = 64 << 20 // refuse absurdly large payloads
)

// Fetcher downloads byte payloads over HTTP with retries. A nil Cache
// disables caching; otherwise successful responses are stored under a
// URL-derived key for CacheTTL.
type Fetcher struct {
	Client   *http.Client
	Cache    cache.Cache
	CacheTTL time.Duration

	Attempts int
	Delay    time.Duration
}

// NewFetcher creates a Fetcher with default timeout and retry policy.
// c may be nil to disable caching.
func NewFetcher(c cache.Cache) *Fetcher {
	return &Fetcher{
		Client:   &http.Client{Timeout: defaultTimeout},
		Cache:    c,
		CacheTTL: 15 * time.Minute,
		Attempts: defaultAttempts,
		Delay:    defaultDelay,
	}
}

// Fetch performs a GET against url and returns the response body.
// Transient failures (network errors, 5xx) are retried with backoff;
// 4xx responses fail immediately.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	key := cache.FetchKey(url)
	if f.Cache != nil {
		if data, hit, err := f.Cache.Get(ctx, key); err == nil && hit {
			return data, nil
		}
	}

	var body []byte
	err := Retry(ctx, f.Attempts, f.Delay, func() error {
		data, err := f.get(ctx, url)
		if err != nil {
			return err
		}
		body = data
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "fetch %s", url)
	}

	if f.Cache != nil {
		// Best effort: a failed cache write never fails the fetch.
		_ = f.Cache.Set(ctx, key, body, f.CacheTTL)
	}
	return body, nil
}

func (f *Fetcher) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, &RetryableError{Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		return nil, &RetryableError{Err: fmt.Errorf("server returned %s", resp.Status)}
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("server returned %s", resp.Status)
	}

	return io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
}
