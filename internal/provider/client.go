// Package provider holds the upstream fetch collaborators: thin HTTP
// clients that return raw, unnormalized rows for one instrument.
package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/valyala/fasthttp"
)

// ErrFetch marks any upstream failure. Callers fall back to stored history.
var ErrFetch = errors.New("upstream fetch failed")

const defaultTimeout = 30 * time.Second

// httpClient is the fasthttp plumbing shared by every provider.
type httpClient struct {
	client  *fasthttp.Client
	limiter *RateLimiter
	timeout time.Duration
}

func newHTTPClient(limiter *RateLimiter) httpClient {
	return httpClient{
		client:  &fasthttp.Client{Name: "trendsv1"},
		limiter: limiter,
		timeout: defaultTimeout,
	}
}

// get performs a rate-limited GET and returns a copy of the body. Non-2xx
// responses are errors.
func (h httpClient) get(ctx context.Context, uri string, query map[string]string) ([]byte, error) {
	if err := h.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(uri)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")
	args := req.URI().QueryArgs()
	for k, v := range query {
		args.Set(k, v)
	}

	timeout := h.timeout
	if dl, ok := ctx.Deadline(); ok {
		timeout = min(timeout, time.Until(dl))
	}

	start := time.Now()
	if err := h.client.DoTimeout(req, resp, timeout); err != nil {
		return nil, err
	}
	status := resp.StatusCode()
	slog.Debug("provider: GET", "uri", req.URI().String(), "status", status, "took", time.Since(start))

	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("HTTP %d: %.200s", status, resp.Body())
	}
	// Body is owned by the pooled response; copy before release.
	return append([]byte(nil), resp.Body()...), nil
}

// fetchErr wraps err as an ErrFetch for the named source.
func fetchErr(source string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrFetch, source, err)
}
