package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image/png"
	"io"
	"math"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/rs/zerolog"
)

// fakeMap returns lon + lat over land and NaN where lat < 0.
type fakeMap struct {
	calls int
	err   error
}

func (m *fakeMap) Sample(ctx context.Context, lon, lat []float64, fill float64) ([]float64, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	out := make([]float64, len(lon))
	for k := range lon {
		out[k] = fill
		if lat[k] >= 0 {
			out[k] = lon[k] + lat[k]
		}
	}
	return out, nil
}

func newTestServer(t *testing.T, m *fakeMap) *httptest.Server {
	t.Helper()
	srv := &Server{ElevationMap: m, Logger: zerolog.Nop()}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func get(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	assert.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	assert.NoError(t, err)
	return resp, body
}

func TestElevation(t *testing.T) {
	ts := newTestServer(t, &fakeMap{})

	resp, body := get(t, ts.URL+"/elevation?lon=10,20.5&lat=1,-1")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var result struct {
		Lon       []float64  `json:"lon"`
		Elevation []*float64 `json:"elevation"`
	}
	assert.NoError(t, json.Unmarshal(body, &result))
	assert.Equal(t, []float64{10, 20.5}, result.Lon)
	assert.Equal(t, 2, len(result.Elevation))
	assert.Equal(t, 11.0, *result.Elevation[0])
	assert.Zero(t, result.Elevation[1])
}

func TestElevationBadRequest(t *testing.T) {
	m := &fakeMap{}
	ts := newTestServer(t, m)

	for _, q := range []string{
		"",
		"?lon=1",
		"?lon=1,2&lat=1",
		"?lon=x&lat=1",
	} {
		resp, _ := get(t, ts.URL+"/elevation"+q)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "query %q", q)
	}
	assert.Equal(t, 0, m.calls)
}

func TestElevationUpstreamFailure(t *testing.T) {
	ts := newTestServer(t, &fakeMap{err: errors.New("catalog unavailable")})
	resp, body := get(t, ts.URL+"/elevation?lon=1&lat=1")
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Contains(t, string(body), "catalog unavailable")
}

func TestRelief(t *testing.T) {
	m := &fakeMap{}
	ts := newTestServer(t, m)

	resp, body := get(t, ts.URL+"/relief.png?west=10&south=-1&east=11&north=1&width=8&height=6")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	img, err := png.Decode(bytes.NewReader(body))
	assert.NoError(t, err)
	assert.Equal(t, 8, img.Bounds().Dx())
	assert.Equal(t, 6, img.Bounds().Dy())

	// The southern half has no data.
	_, _, _, a := img.At(0, 0).RGBA()
	assert.NotEqual(t, uint32(0), a)
	_, _, _, a = img.At(0, 5).RGBA()
	assert.Equal(t, uint32(0), a)
	assert.Equal(t, 1, m.calls)
}

func TestReliefBadRequest(t *testing.T) {
	ts := newTestServer(t, &fakeMap{})
	for _, q := range []string{
		"?west=10&south=0&east=11",
		"?west=10&south=0&east=9&north=1",
		"?west=10&south=0&east=11&north=1&width=0",
		"?west=10&south=0&east=11&north=1&width=100000&height=100000",
		"?west=10&south=0&east=11&north=1&supersample=9",
	} {
		resp, _ := get(t, ts.URL+"/relief.png"+q)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "query %q", q)
	}
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, &fakeMap{})
	resp, body := get(t, ts.URL+"/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `{"status":"ok"}`, string(body))
}

func TestNullable(t *testing.T) {
	got := nullable([]float64{1, math.NaN()})
	assert.Equal(t, 1.0, *got[0])
	assert.Zero(t, got[1])
}

func TestServeStopsOnCancel(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	assert.NoError(t, err)
	srv := &Server{ElevationMap: &fakeMap{}, Listener: l, Logger: zerolog.Nop()}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	resp, _ := get(t, "http://"+l.Addr().String()+"/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
