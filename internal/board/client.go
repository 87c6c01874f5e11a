package board

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
	"inkboard.dev/board/internal/logging"
)

// maxPageSize bounds a board page; real pages are well under 200 KiB.
const maxPageSize = 5 * 1024 * 1024

// StatusError is returned when a board responds with a non-2xx status.
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("board fetch failed: %s returned %s", e.URL, e.Status)
}

// newHTTPClient returns a client with a hard per-request timeout and its own
// transport, cloned from the default to keep proxy and HTTP/2 settings.
func newHTTPClient(timeout time.Duration) *http.Client {
	var transport *http.Transport
	if t, ok := http.DefaultTransport.(*http.Transport); ok {
		transport = t.Clone()
	} else {
		transport = &http.Transport{}
	}
	transport.MaxIdleConns = 4
	transport.IdleConnTimeout = 30 * time.Second
	transport.TLSHandshakeTimeout = timeout
	transport.ResponseHeaderTimeout = timeout

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// fetchDocument downloads a board page and parses it, converting the page to
// UTF-8 according to its declared charset.
func fetchDocument(ctx context.Context, client *http.Client, url, userAgent string, logger *slog.Logger) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build board request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute board request: %w", err)
	}
	defer logging.SafeCloseWithLogging(resp.Body, logger, "http_response_body")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read board body: %w", err)
	}
	if len(body) > maxPageSize {
		return nil, fmt.Errorf("board page exceeds size limit of %d bytes", maxPageSize)
	}

	utf8Body, err := charset.NewReader(bytes.NewReader(body), resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("decode board charset: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(utf8Body)
	if err != nil {
		return nil, fmt.Errorf("parse board markup: %w", err)
	}
	return doc, nil
}
