// Package httpfetch retrieves image bytes from external URLs with a
// bounded timeout on every request.
package httpfetch

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/pixly/pixly/pkg/pixly"
)

// DefaultTimeout bounds a single fetch when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// Config options for the fetcher.
type Config struct {
	Timeout         time.Duration
	MaxIdleConns    int
	IdleConnTimeout time.Duration
}

// Client implements pixly.Fetcher over net/http. There are no automatic
// retries; the pipeline assumes the caller retries.
type Client struct {
	http *http.Client
}

// New creates a fetcher with the given config.
func New(conf Config) *Client {
	if conf.Timeout <= 0 {
		conf.Timeout = DefaultTimeout
	}

	tr := &http.Transport{
		DialContext:     (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
		MaxIdleConns:    conf.MaxIdleConns,
		IdleConnTimeout: conf.IdleConnTimeout,
	}
	return &Client{
		http: &http.Client{Transport: tr, Timeout: conf.Timeout},
	}
}

// Fetch downloads the resource and returns its bytes and content type. The
// content type is sniffed from the bytes when the server does not supply
// one. Timeouts surface as ordinary fetch failures, not a crash.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", pixly.ErrFetchFailed, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", pixly.ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("%w: unexpected status %d from %s", pixly.ErrFetchFailed, resp.StatusCode, url)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("%w: reading body: %v", pixly.ErrFetchFailed, err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = mimetype.Detect(data).String()
	}

	return data, contentType, nil
}
