// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package geocode suggests place names for a partial location using the
// Mapbox geocoding API. The suggestions feed the registry's location
// filter.
package geocode

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/trial-finder/internal/httputil"
	"github.com/pdiddy/trial-finder/pkg/types"
)

const serviceName = "Mapbox"

const defaultBaseURL = "https://api.mapbox.com/geocoding/v5/mapbox.places"

// ErrNoToken is returned by Suggest when the client has no access token.
var ErrNoToken = errors.New("mapbox access token not configured")

// Mapbox queries the places endpoint.
type Mapbox struct {
	HTTP   *http.Client
	Config types.GeocodeConfig
	token  string
}

// NewMapbox returns a client that authenticates with token.
func NewMapbox(token string, cfg types.GeocodeConfig) *Mapbox {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	return &Mapbox{HTTP: &http.Client{}, Config: cfg, token: token}
}

type placesResponse struct {
	Features []struct {
		PlaceName string `json:"place_name"`
	} `json:"features"`
}

// Suggest returns place names matching the partial query q, best match
// first. A blank q yields no suggestions and no request.
func (m *Mapbox) Suggest(ctx context.Context, q string) ([]string, error) {
	if m.token == "" {
		return nil, ErrNoToken
	}
	q = strings.TrimSpace(q)
	if q == "" {
		return []string{}, nil
	}

	params := url.Values{}
	params.Set("access_token", m.token)
	params.Set("autocomplete", "true")
	if m.Config.Country != "" {
		params.Set("country", m.Config.Country)
	}
	reqURL := strings.TrimSuffix(m.Config.BaseURL, "/") + "/" + url.PathEscape(q) + ".json?" + params.Encode()

	var resp placesResponse
	if err := httputil.GetJSON(ctx, m.HTTP, serviceName, reqURL, m.Config.UserAgent, m.Config.Timeout, &resp); err != nil {
		return nil, redact(err, m.token)
	}

	places := make([]string, 0, len(resp.Features))
	for _, f := range resp.Features {
		if f.PlaceName != "" {
			places = append(places, f.PlaceName)
		}
	}
	return places, nil
}

// redact strips the access token from URLs carried by err. A transport
// error is rebuilt around a redacted *url.Error, since the wrapping
// message was formatted with the original URL.
func redact(err error, token string) error {
	escaped := url.QueryEscape(token)
	var se *httputil.StatusError
	if errors.As(err, &se) {
		se.URL = strings.ReplaceAll(se.URL, escaped, "REDACTED")
		return err
	}
	var ue *url.Error
	if errors.As(err, &ue) {
		return fmt.Errorf("%s API request: %w", serviceName, &url.Error{
			Op:  ue.Op,
			URL: strings.ReplaceAll(ue.URL, escaped, "REDACTED"),
			Err: ue.Err,
		})
	}
	return err
}
