// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package registry fetches study records from the ClinicalTrials.gov API v2,
// following continuation tokens until a target count is reached.
package registry

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/trial-finder/internal/httputil"
	"github.com/pdiddy/trial-finder/internal/logging"
	"github.com/pdiddy/trial-finder/internal/normalize"
	"github.com/pdiddy/trial-finder/internal/query"
	"github.com/pdiddy/trial-finder/pkg/types"
)

// serviceName labels transport errors from this client.
const serviceName = "ClinicalTrials.gov"

const defaultMaxPages = 100

// Page is one decoded registry response.
type Page struct {
	Records       []normalize.Record
	NextPageToken string
	// TotalCount is the registry's match count, or -1 when not reported.
	TotalCount int
}

// Client queries the registry's studies endpoint.
type Client struct {
	HTTP   *http.Client
	Config types.RegistryConfig
	Logger *logrus.Logger
}

// NewClient returns a client for cfg. A nil logger discards output.
func NewClient(httpClient *http.Client, cfg types.RegistryConfig, logger *logrus.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{HTTP: httpClient, Config: cfg, Logger: logging.OrDiscard(logger)}
}

// FetchPage issues one GET with params. A non-2xx status fails with
// *httputil.StatusError; a body that is not an object or has no studies
// list fails with normalize.ErrSchema.
func (c *Client) FetchPage(ctx context.Context, params url.Values) (Page, error) {
	reqURL := c.Config.BaseURL + "?" + params.Encode()

	var raw any
	if err := httputil.GetJSON(ctx, c.HTTP, serviceName, reqURL, c.Config.UserAgent, c.Config.Timeout, &raw); err != nil {
		return Page{}, err
	}
	body, ok := raw.(map[string]any)
	if !ok {
		return Page{}, fmt.Errorf("decoding %s page: %w: body is %T", serviceName, normalize.ErrSchema, raw)
	}

	records, err := normalize.Records(body)
	if err != nil {
		return Page{}, fmt.Errorf("decoding %s page: %w", serviceName, err)
	}

	page := Page{
		Records:       records,
		NextPageToken: normalize.String(body, "", "nextPageToken"),
		TotalCount:    -1,
	}
	if n, ok := body["totalCount"].(float64); ok {
		page.TotalCount = int(n)
	}
	return page, nil
}

// StopReason tells why the pagination loop ended.
type StopReason string

const (
	StopTarget    StopReason = "target reached"
	StopExhausted StopReason = "no more pages"
	// StopNoProgress: the server returned a token but no records.
	StopNoProgress StopReason = "page without records"
	// StopRepeatedToken: the server returned the token it was just given.
	StopRepeatedToken StopReason = "repeated page token"
	StopMaxPages      StopReason = "page limit reached"
)

// FetchResult is the outcome of a pagination run.
type FetchResult struct {
	Records    []normalize.Record
	Pages      int
	TotalCount int
	Stopped    StopReason
}

// FetchStudies collects up to target records starting from params.
//
// The target is checked before every request and each page is consumed
// whole; the accumulated list is then truncated to target, so a run that
// overshoots on its last page still returns exactly target records. The
// loop also stops when the server has no next token, returns a token with
// an empty page, repeats the token it was sent, or after MaxPages requests.
// Those guard stops return what was collected without an error.
//
// Any failed request aborts the whole run: no partial result is returned
// alongside an error.
func (c *Client) FetchStudies(ctx context.Context, params url.Values, target int) (FetchResult, error) {
	maxPages := c.Config.MaxPages
	if maxPages <= 0 {
		maxPages = defaultMaxPages
	}

	res := FetchResult{TotalCount: -1, Stopped: StopExhausted}
	next := query.WithPageToken(params, "")
	next.Set(query.ParamCount, "true")
	sentToken := ""

	for {
		if target > 0 && len(res.Records) >= target {
			res.Stopped = StopTarget
			break
		}
		if res.Pages >= maxPages {
			res.Stopped = StopMaxPages
			break
		}

		page, err := c.FetchPage(ctx, next)
		if err != nil {
			return FetchResult{}, fmt.Errorf("fetching page %d: %w", res.Pages+1, err)
		}
		res.Pages++
		if page.TotalCount >= 0 {
			res.TotalCount = page.TotalCount
		}
		res.Records = append(res.Records, page.Records...)

		c.Logger.WithFields(logrus.Fields{
			"page":      res.Pages,
			"records":   len(page.Records),
			"collected": len(res.Records),
			"has_next":  page.NextPageToken != "",
		}).Debug("fetched registry page")

		if page.NextPageToken == "" {
			res.Stopped = StopExhausted
			break
		}
		if len(page.Records) == 0 {
			res.Stopped = StopNoProgress
			break
		}
		if page.NextPageToken == sentToken {
			res.Stopped = StopRepeatedToken
			break
		}

		sentToken = page.NextPageToken
		next = query.WithPageToken(params, sentToken)
	}

	if target > 0 && len(res.Records) > target {
		res.Records = res.Records[:target]
	}
	if res.Stopped == StopNoProgress || res.Stopped == StopRepeatedToken || res.Stopped == StopMaxPages {
		c.Logger.WithFields(logrus.Fields{
			"pages":     res.Pages,
			"collected": len(res.Records),
			"reason":    string(res.Stopped),
		}).Warn("pagination stopped early")
	}
	return res, nil
}
