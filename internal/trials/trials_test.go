// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package trials

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/trial-finder/internal/httputil"
	"github.com/pdiddy/trial-finder/internal/normalize"
	"github.com/pdiddy/trial-finder/internal/query"
	"github.com/pdiddy/trial-finder/internal/registry"
	"github.com/pdiddy/trial-finder/pkg/types"
)

// registryStub serves pageCount pages of studies. Each study has two
// locations. Requests are recorded.
type registryStub struct {
	pageCount int

	mu       sync.Mutex
	requests []url.Values
}

func (s *registryStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	s.mu.Lock()
	s.requests = append(s.requests, q)
	s.mu.Unlock()

	page := 1
	if tok := q.Get(query.ParamPageToken); tok != "" {
		page, _ = strconv.Atoi(tok)
	}
	size, _ := strconv.Atoi(q.Get(query.ParamPageSize))

	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, `{"studies":[`)
	for i := 0; i < size; i++ {
		if i > 0 {
			fmt.Fprint(w, ",")
		}
		fmt.Fprintf(w, `{"protocolSection":{
			"identificationModule":{"nctId":"NCT%03d%05d","briefTitle":"Study %d.%d"},
			"designModule":{"phases":["PHASE2"]},
			"contactsLocationsModule":{"locations":[
				{"facility":"Site A","city":"Boston","state":"MA","country":"United States"},
				{"facility":"Site B","city":"Denver","state":"CO","country":"United States"}
			]}}}`, page, i, page, i)
	}
	fmt.Fprint(w, `]`)
	if page < s.pageCount {
		fmt.Fprintf(w, `,"nextPageToken":"%d"`, page+1)
	}
	if q.Get(query.ParamCount) == "true" {
		fmt.Fprint(w, `,"totalCount":312`)
	}
	fmt.Fprint(w, `}`)
}

func (s *registryStub) snapshot() []url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]url.Values(nil), s.requests...)
}

func newSearcher(ts *httptest.Server, pageSize int, geo Suggester) *Searcher {
	client := registry.NewClient(ts.Client(), types.RegistryConfig{
		HTTPConfig: types.HTTPConfig{Timeout: 5 * time.Second},
		BaseURL:    ts.URL,
		PageSize:   pageSize,
		MaxPages:   100,
	}, nil)
	return NewSearcher(client, geo, nil)
}

type fakeGeocoder struct {
	places []string
	err    error
	got    string
}

func (f *fakeGeocoder) Suggest(_ context.Context, q string) ([]string, error) {
	f.got = q
	return f.places, f.err
}

func TestSearchSingle(t *testing.T) {
	stub := &registryStub{pageCount: 5}
	ts := httptest.NewServer(stub)
	defer ts.Close()

	c := types.Criteria{Condition: "asthma", AgeGroup: types.AgeAdult, MaxResults: 20}
	res, err := newSearcher(ts, 100, nil).Search(context.Background(), c, Options{})
	require.NoError(t, err)

	assert.NotEmpty(t, res.RunID)
	assert.Len(t, res.Records, 20)
	assert.Len(t, res.Studies, 20)
	assert.Equal(t, 20, res.Table.Len())
	assert.Equal(t, normalize.CompactColumns, res.Table.Columns)
	assert.Equal(t, 1, res.Pages)
	assert.Equal(t, 312, res.TotalCount)
	assert.Equal(t, registry.StopTarget, res.Stopped)
	assert.False(t, res.Empty())

	reqs := stub.snapshot()
	require.Len(t, reqs, 1)
	assert.Equal(t, "20", reqs[0].Get(query.ParamPageSize))
	assert.Equal(t, "asthma", reqs[0].Get(query.ParamCondition))
	assert.Equal(t, "AREA[MinimumAge]RANGE[18 years, 64 years]", reqs[0].Get(query.ParamAdvanced))
}

func TestSearchPagedCapsAtTarget(t *testing.T) {
	stub := &registryStub{pageCount: 10}
	ts := httptest.NewServer(stub)
	defer ts.Close()

	c := types.Criteria{Condition: "asthma", MaxResults: 25}
	res, err := newSearcher(ts, 10, nil).Search(context.Background(), c, Options{Paged: true})
	require.NoError(t, err)

	assert.Len(t, res.Records, 25)
	assert.Equal(t, 3, res.Pages)
	assert.Len(t, stub.snapshot(), 3)
	assert.Equal(t, "Study 3.4", res.Studies[24].Title)
}

func TestSearchPagedNeverAsksForMoreThanTarget(t *testing.T) {
	stub := &registryStub{pageCount: 10}
	ts := httptest.NewServer(stub)
	defer ts.Close()

	c := types.Criteria{Condition: "asthma", MaxResults: 15}
	_, err := newSearcher(ts, 100, nil).Search(context.Background(), c, Options{Paged: true})
	require.NoError(t, err)
	assert.Equal(t, "15", stub.snapshot()[0].Get(query.ParamPageSize))
}

func TestSearchExpandedLocations(t *testing.T) {
	stub := &registryStub{pageCount: 1}
	ts := httptest.NewServer(stub)
	defer ts.Close()

	c := types.Criteria{Condition: "asthma", MaxResults: 10}
	res, err := newSearcher(ts, 100, nil).Search(context.Background(), c, Options{ExpandLocations: true})
	require.NoError(t, err)

	assert.Len(t, res.Studies, 10)
	assert.Equal(t, 20, res.Table.Len())
	assert.Equal(t, normalize.ExpandedColumns, res.Table.Columns)
	assert.Equal(t, registry.StopExhausted, res.Stopped)
}

func TestSearchRejectsCountOutOfRange(t *testing.T) {
	stub := &registryStub{}
	ts := httptest.NewServer(stub)
	defer ts.Close()
	s := newSearcher(ts, 100, nil)

	for _, tc := range []struct {
		count int
		opts  Options
	}{
		{5, Options{}},
		{101, Options{}},
		{1001, Options{Paged: true}},
	} {
		_, err := s.Search(context.Background(), types.Criteria{MaxResults: tc.count}, tc.opts)
		require.ErrorIs(t, err, ErrInvalidCriteria, "count %d", tc.count)
		assert.False(t, IsNoData(err))
	}

	_, err := s.Search(context.Background(), types.Criteria{MaxResults: 500}, Options{Paged: true})
	assert.NoError(t, err)
	assert.Empty(t, stub.snapshot()[1:], "only the valid search reaches the registry")
}

func TestSearchRejectsUnknownStatus(t *testing.T) {
	stub := &registryStub{}
	ts := httptest.NewServer(stub)
	defer ts.Close()

	c := types.Criteria{Condition: "asthma", Status: "BOGUS", MaxResults: 10}
	_, err := newSearcher(ts, 100, nil).Search(context.Background(), c, Options{})
	require.ErrorIs(t, err, ErrInvalidCriteria)
	assert.Contains(t, err.Error(), "unknown status")
	assert.Empty(t, stub.snapshot())
}

func TestSearchTransportErrorIsNoData(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	_, err := newSearcher(ts, 100, nil).Search(context.Background(), types.Criteria{MaxResults: 10}, Options{})
	require.Error(t, err)
	assert.True(t, IsNoData(err))

	var se *httputil.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusServiceUnavailable, se.StatusCode)
}

func TestSearchSchemaErrorIsNoData(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"studies":"nope"}`)
	}))
	defer ts.Close()

	_, err := newSearcher(ts, 100, nil).Search(context.Background(), types.Criteria{MaxResults: 10}, Options{Paged: true})
	assert.ErrorIs(t, err, normalize.ErrSchema)
	assert.True(t, IsNoData(err))
}

func TestSearchZeroStudies(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"studies":[]}`)
	}))
	defer ts.Close()

	res, err := newSearcher(ts, 100, nil).Search(context.Background(), types.Criteria{MaxResults: 10}, Options{})
	require.NoError(t, err)
	assert.True(t, res.Empty())
	assert.Zero(t, res.Table.Len())
	assert.Equal(t, normalize.CompactColumns, res.Table.Columns)
}

func TestSearchResolvesLocation(t *testing.T) {
	stub := &registryStub{pageCount: 1}
	ts := httptest.NewServer(stub)
	defer ts.Close()

	geo := &fakeGeocoder{places: []string{"Boston, Massachusetts, United States", "Boston Heights, Ohio"}}
	c := types.Criteria{Location: "bost", MaxResults: 10}
	res, err := newSearcher(ts, 100, geo).Search(context.Background(), c, Options{ResolveLocation: true})
	require.NoError(t, err)

	assert.Equal(t, "bost", geo.got)
	assert.Equal(t, "Boston, Massachusetts, United States", res.Criteria.Location)
	assert.Equal(t, "Boston, Massachusetts, United States", stub.snapshot()[0].Get(query.ParamLocation))
}

func TestSearchKeepsLocationWhenLookupFails(t *testing.T) {
	stub := &registryStub{pageCount: 1}
	ts := httptest.NewServer(stub)
	defer ts.Close()

	geo := &fakeGeocoder{err: errors.New("boom")}
	c := types.Criteria{Location: "Boston", MaxResults: 10}
	res, err := newSearcher(ts, 100, geo).Search(context.Background(), c, Options{ResolveLocation: true})
	require.NoError(t, err)
	assert.Equal(t, "Boston", res.Criteria.Location)
}

func TestSearchIgnoresResolveWithoutGeocoder(t *testing.T) {
	stub := &registryStub{pageCount: 1}
	ts := httptest.NewServer(stub)
	defer ts.Close()

	c := types.Criteria{Location: "Boston", MaxResults: 10}
	res, err := newSearcher(ts, 100, nil).Search(context.Background(), c, Options{ResolveLocation: true})
	require.NoError(t, err)
	assert.Equal(t, "Boston", res.Criteria.Location)
}

func TestIsNoData(t *testing.T) {
	assert.False(t, IsNoData(nil))
	assert.True(t, IsNoData(context.DeadlineExceeded))
	assert.False(t, IsNoData(fmt.Errorf("%w: bad", ErrInvalidCriteria)))
}
