package gateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"venue_go/internal/venue"
)

// HTTPResponse is the transport-level result of one venue call.
type HTTPResponse struct {
	Status int
	Body   []byte
}

// HTTPExecutor performs one already-built, already-signed request.
// Implementations must not mutate the spec.
type HTTPExecutor interface {
	Execute(ctx context.Context, spec *venue.RequestSpec) (*HTTPResponse, error)
}

// NetHTTPExecutor executes requests over net/http.
type NetHTTPExecutor struct {
	client *http.Client
}

// NewNetHTTPExecutor returns an executor with the given per-request
// timeout. Zero means no timeout beyond the context's.
func NewNetHTTPExecutor(timeout time.Duration) *NetHTTPExecutor {
	return &NetHTTPExecutor{client: &http.Client{Timeout: timeout}}
}

func (e *NetHTTPExecutor) Execute(ctx context.Context, spec *venue.RequestSpec) (*HTTPResponse, error) {
	var body io.Reader
	if len(spec.Body) > 0 {
		body = bytes.NewReader(spec.Body)
	}

	req, err := http.NewRequestWithContext(ctx, spec.Method, spec.URL(), body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, v := range spec.Headers {
		req.Header.Set(k, v)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// Venue error payloads are small; cap reads so a misbehaving venue
	// cannot exhaust memory.
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return &HTTPResponse{Status: resp.StatusCode, Body: raw}, nil
}
