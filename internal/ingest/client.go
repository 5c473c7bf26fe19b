// Package ingest holds the HTTP adapters for the two remote sources: the
// JRA condition feed and the netkeiba race pages. All fetching is
// sequential; politeness delays live with the callers.
package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cenkalti/backoff/v4"
	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"

	"github.com/jm3hiromu30-bit/keiba-scatter/internal/httputil"
	"github.com/jm3hiromu30-bit/keiba-scatter/internal/metrics"
)

type Client struct {
	http *http.Client

	// Overridable base URLs so tests can point at a local server.
	jraBaseURL      string
	netkeibaRaceURL string
	netkeibaDBURL   string
}

func NewClient() *Client {
	return &Client{
		http:            httputil.NewClient(),
		jraBaseURL:      "https://www.jra.go.jp",
		netkeibaRaceURL: "https://race.netkeiba.com",
		netkeibaDBURL:   "https://db.netkeiba.com",
	}
}

// fetchDoc GETs url, decodes the response from enc (nil means UTF-8) and
// parses it. Transient failures (429, 5xx) are retried with exponential
// backoff; anything else fails immediately.
func (c *Client) fetchDoc(ctx context.Context, endpoint, url string, enc encoding.Encoding) (*goquery.Document, error) {
	var body []byte
	operation := func() error {
		start := time.Now()
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("create request: %w", err))
		}
		req.Header.Set("User-Agent", httputil.UserAgent)

		resp, err := c.http.Do(req)
		if err != nil {
			metrics.ScrapeRequestsTotal.WithLabelValues(endpoint, "error").Inc()
			return fmt.Errorf("fetch %s: %w", endpoint, err)
		}
		defer resp.Body.Close()
		metrics.ScrapeLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
		metrics.ScrapeRequestsTotal.WithLabelValues(endpoint, resp.Status).Inc()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return fmt.Errorf("fetch %s: status %d", endpoint, resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("fetch %s: status %d", endpoint, resp.StatusCode))
		}

		var r io.Reader = resp.Body
		if enc != nil {
			r = transform.NewReader(resp.Body, enc.NewDecoder())
		}
		body, err = io.ReadAll(r)
		if err != nil {
			return fmt.Errorf("read %s: %w", endpoint, err)
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 2 * time.Minute
	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", endpoint, err)
	}
	return doc, nil
}
