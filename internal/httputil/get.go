// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared by the registry and
// geocoding clients.
package httputil

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxErrorBody caps how much of a failed response body is kept for the error message.
const maxErrorBody = 512

// StatusError is returned when an upstream API answers with a non-2xx
// status. Requests are never retried; the caller decides what to do.
type StatusError struct {
	Service    string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s API returned HTTP %d", e.Service, e.StatusCode)
	}
	return fmt.Sprintf("%s API returned HTTP %d: %s", e.Service, e.StatusCode, e.Body)
}

// GetJSON issues one GET to reqURL and decodes a 2xx JSON body into v.
//
// The request runs under its own timeout derived from ctx; a zero timeout
// leaves only ctx (and the client's own timeout) in charge. Non-2xx
// responses produce a *StatusError carrying the status code and the start
// of the body; the body is always drained so the connection can be reused.
func GetJSON(ctx context.Context, client *http.Client, service, reqURL, userAgent string, timeout time.Duration, v any) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s API request: %w", service, err)
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Service:    service,
			URL:        reqURL,
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("parsing %s response: %w", service, err)
	}
	return nil
}
