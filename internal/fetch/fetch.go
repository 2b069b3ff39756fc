// Package fetch retrieves product page HTML over plain HTTP. One bounded GET
// per call with browser-like headers; many storefronts serve degraded or
// blocked markup to default clients.
package fetch

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/pricewatch/internal/config"
	"github.com/sells-group/pricewatch/internal/resilience"
)

// Fetcher retrieves the HTML document at a URL.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) ([]byte, error)
}

// HTTPFetcher implements Fetcher using net/http with per-host rate limiting.
type HTTPFetcher struct {
	client         *http.Client
	userAgent      string
	acceptLanguage string
	maxBodyBytes   int64

	mu       sync.Mutex
	hostRPS  rate.Limit
	limiters map[string]*rate.Limiter
}

// NewHTTPFetcher creates an HTTPFetcher from config.
func NewHTTPFetcher(cfg config.FetchConfig) *HTTPFetcher {
	timeout := cfg.Timeout()
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 2 * 1024 * 1024
	}
	rps := rate.Limit(cfg.HostRPS)
	if rps <= 0 {
		rps = rate.Inf
	}
	return &HTTPFetcher{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 10 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		userAgent:      cfg.UserAgent,
		acceptLanguage: cfg.AcceptLanguage,
		maxBodyBytes:   maxBody,
		hostRPS:        rps,
		limiters:       make(map[string]*rate.Limiter),
	}
}

// Fetch performs a single GET and returns the response body. Connection
// errors, timeouts and non-2xx statuses all collapse into one transient
// network failure; no partial document is ever returned.
func (f *HTTPFetcher) Fetch(ctx context.Context, pageURL string) ([]byte, error) {
	if err := f.waitHost(ctx, pageURL); err != nil {
		return nil, eris.Wrap(err, "fetch: rate limit wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "fetch: create request")
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept-Language", f.acceptLanguage)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, resilience.NewTransientError(eris.Wrap(err, "fetch: get"), 0)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, resilience.NewTransientError(
			eris.Errorf("fetch: status %d for %s", resp.StatusCode, pageURL),
			resp.StatusCode,
		)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodyBytes))
	if err != nil {
		return nil, resilience.NewTransientError(eris.Wrap(err, "fetch: read body"), 0)
	}

	return body, nil
}

// waitHost blocks on the per-host limiter for the URL's host.
func (f *HTTPFetcher) waitHost(ctx context.Context, pageURL string) error {
	u, err := url.Parse(pageURL)
	if err != nil {
		return eris.Wrapf(err, "fetch: parse url %s", pageURL)
	}

	f.mu.Lock()
	lim, ok := f.limiters[u.Host]
	if !ok {
		lim = rate.NewLimiter(f.hostRPS, 1)
		f.limiters[u.Host] = lim
	}
	f.mu.Unlock()

	return lim.Wait(ctx)
}
