package rest

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnines/repsly-export/pkg/auth"
	"github.com/saturnines/repsly-export/pkg/errors"
	"github.com/saturnines/repsly-export/pkg/pagination"
	"github.com/saturnines/repsly-export/pkg/record"
)

func newAuth(t *testing.T) *auth.BasicAuth {
	t.Helper()
	h, err := auth.NewBasicAuth("user", "pass")
	require.NoError(t, err)
	return h
}

func TestFetchBuildsRequest(t *testing.T) {
	var gotPath, gotQuery, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"Clients": [{"ClientID": 1}], "MetaCollectionResult": {"LastID": 1}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/v3/export/", newAuth(t))
	body, err := c.Fetch(context.Background(), &pagination.Request{
		Segments: []string{"clients", "0"},
		Query:    map[string]string{"skip": "50"},
	})
	require.NoError(t, err)

	assert.Equal(t, "/v3/export/clients/0", gotPath)
	assert.Equal(t, "skip=50", gotQuery)
	assert.Equal(t, "Basic dXNlcjpwYXNz", gotAuth)

	last, ok := record.Lookup(body, "MetaCollectionResult", "LastID")
	require.True(t, ok)
	assert.Equal(t, int64(1), last)
}

func TestFetchNon200IsResponseError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"Message": "denied"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, newAuth(t)).Fetch(context.Background(), &pagination.Request{Segments: []string{"clients", "0"}})
	assert.True(t, errors.Is(err, errors.ErrHTTPResponse), "got %v", err)
	assert.True(t, errors.IsFetchFailure(err))
}

func TestFetchTransportErrorIsRequestError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, nil, WithTimeout(time.Second)).Fetch(context.Background(), &pagination.Request{Segments: []string{"x"}})
	assert.True(t, errors.Is(err, errors.ErrHTTPRequest), "got %v", err)
}

func TestFetchInvalidJSONIsDecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Clients": [`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, nil).Fetch(context.Background(), &pagination.Request{Segments: []string{"clients", "0"}})
	assert.True(t, errors.Is(err, errors.ErrDecode), "got %v", err)
	assert.False(t, errors.IsFetchFailure(err))
}

func TestBuilderEscapesSegments(t *testing.T) {
	b := NewBuilder("https://api.repsly.com/v3/export/")
	assert.Equal(t, "https://api.repsly.com/v3/export/clients/0", b.URL("clients", "0"))
	assert.Equal(t, "https://api.repsly.com/v3/export/visits/2024-01-01T00:00:00", b.URL("visits", "2024-01-01T00:00:00"))
	assert.Equal(t, "https://api.repsly.com/v3/export/importStatus/a%20b", b.URL("importStatus", "a b"))
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestFetchThroughCustomTransport(t *testing.T) {
	var got *http.Request
	rt := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		got = r
		return &http.Response{
			StatusCode: http.StatusOK,
			Header:     http.Header{"Content-Type": []string{"application/json"}},
			Body:       io.NopCloser(strings.NewReader(`[{"ID": 7}]`)),
			Request:    r,
		}, nil
	})

	c := NewClient("https://api.repsly.com/v3/export", newAuth(t),
		WithTransport(rt),
		WithHeader("User-Agent", "repsly-export-test"),
	)
	body, err := c.Fetch(context.Background(), &pagination.Request{Segments: []string{"pricelistsItems", "10"}})
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Equal(t, "/v3/export/pricelistsItems/10", got.URL.Path)
	assert.Equal(t, "repsly-export-test", got.Header.Get("User-Agent"))
	assert.Equal(t, "Basic dXNlcjpwYXNz", got.Header.Get("Authorization"))

	items, ok := body.([]interface{})
	require.True(t, ok)
	assert.Len(t, items, 1)
}
