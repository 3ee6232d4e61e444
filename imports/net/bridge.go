package net

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/aidoku-host/wasmhost/hostapi"
)

// DefaultBridge is a *net/http-backed hostapi.HttpBridge, grounded on the
// same blocking-client-with-timeout shape as the teacher's outgoing HTTP
// handler. Most embedders wire their own bridge (to route through an
// existing rate limiter, proxy, or event-loop-safe transport); this one is
// a reasonable default for tests and simple hosts.
type DefaultBridge struct {
	Client *http.Client
}

// NewDefaultBridge builds a DefaultBridge with a 30-second timeout.
func NewDefaultBridge() *DefaultBridge {
	return &DefaultBridge{Client: &http.Client{Timeout: 30 * time.Second}}
}

func (b *DefaultBridge) Do(ctx context.Context, req hostapi.HttpRequest) (hostapi.HttpResponse, error) {
	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return hostapi.HttpResponse{}, err
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := b.Client.Do(httpReq)
	if err != nil {
		return hostapi.HttpResponse{}, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return hostapi.HttpResponse{}, err
	}

	headers := make(map[string]string, len(resp.Header))
	for k := range resp.Header {
		headers[http.CanonicalHeaderKey(k)] = resp.Header.Get(k)
	}

	return hostapi.HttpResponse{Status: resp.StatusCode, Headers: headers, Body: respBody}, nil
}
