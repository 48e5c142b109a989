// Package court implements the captcha-gated case-status lookup protocol:
// fetching the status page, extracting its one-time token and captcha
// session, solving the captcha image, replaying the answer into the site's
// AJAX search endpoint, and retrying the whole sequence with backoff.
package court

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// Fetcher issues single bounded-timeout GETs. It never retries; retries are
// the orchestrator's responsibility.
type Fetcher interface {
	// Text fetches a page or JSON body.
	Text(ctx context.Context, url string) (string, error)

	// Binary fetches an image.
	Binary(ctx context.Context, url string) ([]byte, error)
}

// browserUA is sent on every request: the site varies behavior by client
// signature.
const browserUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// HTTPFetcher is the resty-backed Fetcher used in production.
type HTTPFetcher struct {
	client  *resty.Client
	timeout time.Duration
}

// NewHTTPFetcher creates a fetcher whose every request carries a
// cache-defeating header set, a browser User-Agent, and the given timeout.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	client := resty.New()
	client.SetHeaders(map[string]string{
		"User-Agent":      browserUA,
		"Accept-Language": "en-US,en;q=0.9",
		"Cache-Control":   "no-cache, no-store, must-revalidate",
		"Pragma":          "no-cache",
		"Expires":         "0",
	})
	// The orchestrator owns per-call deadlines through context; the client
	// timeout is a backstop.
	client.SetTimeout(timeout + 5*time.Second)

	return &HTTPFetcher{client: client, timeout: timeout}
}

func (f *HTTPFetcher) Text(ctx context.Context, url string) (string, error) {
	body, err := f.get(ctx, url, map[string]string{
		"Accept":           "text/html,application/json,*/*;q=0.8",
		"X-Requested-With": "XMLHttpRequest",
	})
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (f *HTTPFetcher) Binary(ctx context.Context, url string) ([]byte, error) {
	return f.get(ctx, url, map[string]string{
		"Accept": "image/png,image/*;q=0.9,*/*;q=0.8",
	})
}

func (f *HTTPFetcher) get(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	resp, err := f.client.R().
		SetContext(ctx).
		SetHeaders(headers).
		Get(url)
	if err != nil {
		return nil, classifyTransport(err, url)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		return nil, Errf(KindHTTPStatus, "GET %s returned status %d %s",
			url, resp.StatusCode(), http.StatusText(resp.StatusCode()))
	}
	return resp.Body(), nil
}

// classifyTransport distinguishes deadline expiry from other transport
// failures so the orchestrator can log a precise cause.
func classifyTransport(err error, url string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return Wrap(KindTimeout, err, "GET "+url+" timed out")
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return Wrap(KindTimeout, err, "GET "+url+" timed out")
	}
	return Wrap(KindNetwork, err, "GET "+url+" failed")
}
