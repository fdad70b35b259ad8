// Package server exposes elevation sampling and relief rendering over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/larschri/nasadem/render"
)

// maxPoints bounds the number of points per elevation request.
const maxPoints = 10_000

// maxPixels bounds the size of relief images.
const maxPixels = 2048 * 2048

// Sampler provides elevation for lon/lat coordinates.
type Sampler interface {
	Sample(ctx context.Context, lon, lat []float64, fill float64) ([]float64, error)
}

type Server struct {
	ElevationMap Sampler
	Listener     net.Listener
	Logger       zerolog.Logger

	// mu serialises access to ElevationMap.
	mu sync.Mutex
}

// Sample implements render.Sampler, holding the lock for the call.
func (srv *Server) Sample(ctx context.Context, lon, lat []float64, fill float64) ([]float64, error) {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	return srv.ElevationMap.Sample(ctx, lon, lat, fill)
}

func parseFloat(req *http.Request, name string) (float64, error) {
	v, err := strconv.ParseFloat(req.URL.Query().Get(name), 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse '%s'", name)
	}
	return v, nil
}

func parseFloatList(req *http.Request, name string) ([]float64, error) {
	raw := req.URL.Query().Get(name)
	if raw == "" {
		return nil, fmt.Errorf("missing '%s'", name)
	}
	parts := strings.Split(raw, ",")
	out := make([]float64, len(parts))
	for k, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse '%s': %w", name, err)
		}
		out[k] = v
	}
	return out, nil
}

func parseInt(req *http.Request, name string, def int) (int, error) {
	raw := req.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("failed to parse '%s': %w", name, err)
	}
	return int(v), nil
}

func requestToView(req *http.Request) (render.View, error) {
	var v render.View
	var err error
	for _, p := range []struct {
		name string
		dst  *float64
	}{
		{"west", &v.West},
		{"south", &v.South},
		{"east", &v.East},
		{"north", &v.North},
	} {
		if *p.dst, err = parseFloat(req, p.name); err != nil {
			return render.View{}, err
		}
	}
	if v.Width, err = parseInt(req, "width", 512); err != nil {
		return render.View{}, err
	}
	if v.Height, err = parseInt(req, "height", 512); err != nil {
		return render.View{}, err
	}
	if v.Supersample, err = parseInt(req, "supersample", 1); err != nil {
		return render.View{}, err
	}
	if v.Supersample < 1 || v.Supersample > 4 {
		return render.View{}, fmt.Errorf("supersample must be between 1 and 4")
	}
	if v.Width*v.Height*v.Supersample*v.Supersample > maxPixels {
		return render.View{}, fmt.Errorf("image too large: %dx%d", v.Width, v.Height)
	}
	return v, nil
}

func (srv *Server) writeJSONResponse(w http.ResponseWriter, result interface{}, err error) {
	if err != nil {
		w.WriteHeader(400)
		_, err := w.Write([]byte(err.Error()))
		if err != nil {
			srv.Logger.Error().Err(err).Msg("failed to write HTTP 400 response")
		}
		return
	}

	bytes, err := json.Marshal(result)
	if err != nil {
		w.WriteHeader(500)
		_, err := w.Write([]byte(err.Error()))
		if err != nil {
			srv.Logger.Error().Err(err).Msg("failed to write HTTP 500 response")
		}
		return
	}

	w.Header().Add("Content-Type", "application/json")
	_, err = w.Write(bytes)
	if err != nil {
		srv.Logger.Error().Err(err).Msg("failed to write HTTP response")
	}
}

func (srv *Server) writeError(w http.ResponseWriter, status int, err error) {
	srv.Logger.Error().Err(err).Int("status", status).Msg("request failed")
	http.Error(w, err.Error(), status)
}

// nullable maps NaN to nil so that missing data encodes as JSON null.
func nullable(v []float64) []*float64 {
	out := make([]*float64, len(v))
	for k := range v {
		if !math.IsNaN(v[k]) {
			out[k] = &v[k]
		}
	}
	return out
}

func (srv *Server) handleElevation(w http.ResponseWriter, req *http.Request) {
	lon, err := parseFloatList(req, "lon")
	if err != nil {
		srv.writeJSONResponse(w, nil, err)
		return
	}
	lat, err := parseFloatList(req, "lat")
	if err != nil {
		srv.writeJSONResponse(w, nil, err)
		return
	}
	if len(lon) != len(lat) {
		srv.writeJSONResponse(w, nil, fmt.Errorf("got %d longitudes and %d latitudes", len(lon), len(lat)))
		return
	}
	if len(lon) > maxPoints {
		srv.writeJSONResponse(w, nil, fmt.Errorf("too many points: %d", len(lon)))
		return
	}

	elev, err := srv.Sample(req.Context(), lon, lat, math.NaN())
	if err != nil {
		srv.writeError(w, http.StatusBadGateway, err)
		return
	}
	srv.writeJSONResponse(w, map[string]interface{}{
		"lon":       lon,
		"lat":       lat,
		"elevation": nullable(elev),
	}, nil)
}

func (srv *Server) handleImageRequest(w http.ResponseWriter, req *http.Request) {
	view, err := requestToView(req)
	if err != nil {
		srv.writeJSONResponse(w, nil, err)
		return
	}

	img, err := render.CreateImage(req.Context(), view, srv)
	if errors.Is(err, render.ErrEmptyView) {
		srv.writeJSONResponse(w, nil, err)
		return
	}
	if err != nil {
		srv.writeError(w, http.StatusBadGateway, err)
		return
	}

	w.Header().Add("Content-Type", "image/png")
	err = (&png.Encoder{CompressionLevel: png.BestSpeed}).Encode(w, img)
	if err != nil {
		srv.Logger.Error().Err(err).Msg("failed during image encoding")
	}
}

func (srv *Server) handleHealth(w http.ResponseWriter, req *http.Request) {
	srv.writeJSONResponse(w, map[string]string{"status": "ok"}, nil)
}

// Handler returns the HTTP routes of srv.
func (srv *Server) Handler() http.Handler {
	m := http.NewServeMux()
	m.HandleFunc("/elevation", srv.handleElevation)
	m.HandleFunc("/relief.png", srv.handleImageRequest)
	m.HandleFunc("/health", srv.handleHealth)
	return m
}

// shutdownWhenDone invokes http.Server.Shutdown when the given context is cancelled.
// This function will block until context cancellation.
func (srv *Server) shutdownWhenDone(ctx context.Context, server *http.Server) {
	srv.Logger.Info().Str("addr", srv.Listener.Addr().String()).Msg("server started")
	<-ctx.Done()

	c, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	srv.Logger.Info().Msg("terminating server")
	if err := server.Shutdown(c); err != nil {
		srv.Logger.Error().Err(err).Msg("shutdown failed")
	}
}

// Serve serves requests on srv.Listener until ctx is cancelled.
func (srv *Server) Serve(ctx context.Context) error {
	server := http.Server{
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go srv.shutdownWhenDone(ctx, &server)

	err := server.Serve(srv.Listener)

	if ctx.Err() == nil {
		return err
	}

	srv.Logger.Info().Msg("server stopped")
	return nil
}
