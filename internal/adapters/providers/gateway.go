// Package providers contains one gateway adapter per external capability:
// primary route geometry, fallback route geometry, toll pricing, traffic,
// and road closures.
//
// Every gateway issues a single bounded request and maps the provider's
// response shape into canonical DTOs or a typed *ports.ProviderError. No
// gateway retries; retries and fallbacks belong to the caller tier where they
// stay visible.
package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"truck-route-service/internal/ports"
)

const maxErrorBodyBytes = 512

// gateway is the shared HTTP plumbing embedded by every provider adapter.
type gateway struct {
	name    string
	baseURL string
	client  *http.Client
	log     *zap.Logger
}

func newGateway(name, baseURL string, timeout time.Duration, log *zap.Logger) gateway {
	return gateway{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		log:     log.Named(name),
	}
}

func (g *gateway) newRequest(ctx context.Context, method, url string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

// doJSON executes one request and decodes a JSON body into out. Transport
// failures, bad statuses, and undecodable bodies all come back as
// *ports.ProviderError so callers never see provider-specific error shapes.
func (g *gateway) doJSON(req *http.Request, out any) error {
	start := time.Now()

	resp, err := g.client.Do(req)
	if err != nil {
		perr := g.transportError(err)
		g.log.Warn("provider call failed",
			zap.String("url", req.URL.Path),
			zap.String("kind", string(perr.Kind)),
			zap.Duration("dur", time.Since(start)),
			zap.Error(err),
		)
		return perr
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return &ports.ProviderError{Provider: g.name, Kind: ports.ProviderRateLimited}
	}
	if resp.StatusCode >= 400 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return &ports.ProviderError{
			Provider: g.name,
			Kind:     ports.ProviderBadResponse,
			Detail:   fmt.Sprintf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &ports.ProviderError{
			Provider: g.name,
			Kind:     ports.ProviderBadResponse,
			Detail:   "undecodable body",
			Err:      err,
		}
	}

	g.log.Debug("provider call ok",
		zap.String("url", req.URL.Path),
		zap.Duration("dur", time.Since(start)),
	)
	return nil
}

func (g *gateway) transportError(err error) *ports.ProviderError {
	kind := ports.ProviderUnreachable

	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind = ports.ProviderTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		kind = ports.ProviderTimeout
	}

	return &ports.ProviderError{Provider: g.name, Kind: kind, Err: err}
}

// badResponse builds the error used when a 2xx body fails shape validation.
// Malformed success responses are rejected here rather than letting partial
// data travel upward.
func (g *gateway) badResponse(format string, args ...any) *ports.ProviderError {
	return &ports.ProviderError{
		Provider: g.name,
		Kind:     ports.ProviderBadResponse,
		Detail:   fmt.Sprintf(format, args...),
	}
}
