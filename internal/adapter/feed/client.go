// Package feed implements domain.Fetcher over HTTP and the local filesystem.
package feed

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/couchcryptid/covid-data-etl/internal/domain"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
)

// maxErrorBody caps how much of a failed response is quoted in the error.
const maxErrorBody = 512

// Client fetches feed text. http and https URLs are requested over the
// network; file URLs and bare paths are read from disk.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a feed client with the given per-request timeout.
func NewClient(timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Fetch returns the body of rawURL as text.
func (c *Client) Fetch(ctx context.Context, rawURL string, opts domain.FetchOptions) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse feed url: %w", err)
	}

	switch u.Scheme {
	case "http", "https":
		return c.fetchHTTP(ctx, rawURL, opts)
	case "file":
		return readFile(u.Path)
	case "":
		return readFile(rawURL)
	default:
		return "", fmt.Errorf("unsupported feed scheme %q", u.Scheme)
	}
}

func (c *Client) fetchHTTP(ctx context.Context, rawURL string, opts domain.FetchOptions) (string, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("feed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", fmt.Errorf("feed %s: status %d: %s", rawURL, resp.StatusCode, body)
	}

	body, err := decodeBody(resp.Header.Get("Content-Encoding"), resp.Body)
	if err != nil {
		return "", fmt.Errorf("decode feed body: %w", err)
	}

	c.logger.Debug("feed fetched",
		"url", rawURL,
		"status", resp.StatusCode,
		"encoding", resp.Header.Get("Content-Encoding"),
		"bytes", len(body),
		"duration", time.Since(start),
	)
	return string(body), nil
}

// decodeBody undoes the Content-Encoding of a response. Since requests set
// Accept-Encoding themselves, net/http leaves the body compressed.
func decodeBody(encoding string, body io.Reader) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "identity":
		return io.ReadAll(body)
	case "br":
		return io.ReadAll(brotli.NewReader(body))
	case "gzip", "x-gzip":
		zr, err := gzip.NewReader(body)
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		return io.ReadAll(zr)
	case "deflate":
		return inflate(body)
	default:
		return nil, fmt.Errorf("unsupported content encoding %q", encoding)
	}
}

// inflate reads a deflate body. The HTTP token means zlib-wrapped data, but
// some servers send raw deflate, so that is tried when the zlib header is missing.
func inflate(body io.Reader) ([]byte, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	if zr, err := zlib.NewReader(bytes.NewReader(raw)); err == nil {
		defer zr.Close()
		return io.ReadAll(zr)
	}
	fr := flate.NewReader(bytes.NewReader(raw))
	defer fr.Close()
	return io.ReadAll(fr)
}

func readFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read feed file: %w", err)
	}
	return string(data), nil
}
