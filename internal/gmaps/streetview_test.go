package gmaps

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/motomuse/service-routes/internal/geo"
)

func testStreetView(t *testing.T, handler http.HandlerFunc) *StreetView {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	sv := NewStreetView("test-key", zap.NewNop())
	sv.baseURL = srv.URL
	sv.httpc = srv.Client()
	return sv
}

func TestCoverage_OK(t *testing.T) {
	sv := testStreetView(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasPrefix(r.URL.Path, "/metadata"))
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		_, _ = w.Write([]byte(`{"status": "OK"}`))
	})

	covered, err := sv.Coverage(context.Background(), geo.Point{Lat: 52.0, Lng: 5.0})
	require.NoError(t, err)
	assert.True(t, covered)
}

func TestCoverage_ZeroResults(t *testing.T) {
	sv := testStreetView(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status": "ZERO_RESULTS"}`))
	})

	covered, err := sv.Coverage(context.Background(), geo.Point{Lat: 52.0, Lng: 5.0})
	require.NoError(t, err)
	assert.False(t, covered)
}

func TestCoverage_RetriesOnServerError(t *testing.T) {
	calls := 0
	sv := testStreetView(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"status": "OK"}`))
	})

	covered, err := sv.Coverage(context.Background(), geo.Point{Lat: 52.0, Lng: 5.0})
	require.NoError(t, err)
	assert.True(t, covered)
	assert.Equal(t, 2, calls)
}

func TestCoverage_ClientErrorIsNotRetried(t *testing.T) {
	calls := 0
	sv := testStreetView(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := sv.Coverage(context.Background(), geo.Point{Lat: 52.0, Lng: 5.0})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestImageURL_CameraParameters(t *testing.T) {
	sv := NewStreetView("test-key", zap.NewNop())

	raw := sv.ImageURL(geo.Point{Lat: 52.123456, Lng: 5.654321}, 137.4)

	assert.Contains(t, raw, "size=400x240")
	assert.Contains(t, raw, "heading=137")
	assert.Contains(t, raw, "fov=90")
	assert.Contains(t, raw, "pitch=10")
	assert.Contains(t, raw, "key=test-key")
}

func TestParseLatLng(t *testing.T) {
	p, ok := parseLatLng("52.37, 4.89")
	require.True(t, ok)
	assert.Equal(t, geo.Point{Lat: 52.37, Lng: 4.89}, p)

	_, ok = parseLatLng("Amsterdam")
	assert.False(t, ok)

	_, ok = parseLatLng("52.37")
	assert.False(t, ok)
}
