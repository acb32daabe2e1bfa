package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/dustin/go-humanize"
)

// defaultTransport reuses connections across downloads and bounds connection
// setup; the transfer itself is bounded only by the caller's context since
// SDK tarballs can take minutes.
var defaultTransport = &http.Transport{
	Proxy:                 http.ProxyFromEnvironment,
	MaxIdleConns:          16,
	IdleConnTimeout:       90 * time.Second,
	TLSHandshakeTimeout:   10 * time.Second,
	ExpectContinueTimeout: 1 * time.Second,
	ForceAttemptHTTP2:     true,
	DialContext: (&net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
}

// defaultClient serves fetchers without a Client so their connections are
// pooled in one transport.
var defaultClient = &http.Client{Transport: defaultTransport}

// NewHTTPClient returns an http.Client on a clone of the shared transport,
// for callers that keep one client per cache.
func NewHTTPClient() *http.Client {
	return &http.Client{Transport: defaultTransport.Clone()}
}

// StatusError reports a download that completed with a non-2xx status.
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: %s", e.URL, e.Status)
}

// HTTPFetcher downloads http(s) URLs.
type HTTPFetcher struct {
	Client *http.Client // nil uses a package-wide client
	Logger *slog.Logger // nil disables logging
}

// Fetch downloads url into dst, creating or truncating it. A non-2xx
// response is returned as *StatusError and dst is left empty.
func (f *HTTPFetcher) Fetch(ctx context.Context, url, dst string) (retErr error) {
	client := f.Client
	if client == nil {
		client = defaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request for %s: %w", url, err)
	}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{URL: url, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	out, err := os.Create(dst) //nolint:gosec // G304: dst is a staging path
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && retErr == nil {
			retErr = fmt.Errorf("close %s: %w", dst, closeErr)
		}
	}()

	n, err := io.Copy(out, resp.Body)
	if err != nil {
		return fmt.Errorf("download %s: %w", url, err)
	}

	if f.Logger != nil {
		f.Logger.Debug("downloaded",
			"url", url, "size", humanize.Bytes(uint64(n)), "elapsed", time.Since(start).Round(time.Millisecond)) //nolint:gosec // G115: n >= 0
	}
	return nil
}
