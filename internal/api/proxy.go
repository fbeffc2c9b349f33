package api

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/lox/airguard/internal/metrics"
	"github.com/lox/airguard/internal/openaq"
)

// handleAir proxies the latest OpenAQ measurements for a coordinate. The
// upstream status, content type and body are passed through unchanged.
func (s *Server) handleAir(w http.ResponseWriter, r *http.Request) {
	status := s.serveAir(w, r)
	metrics.ProxyRequestsTotal.WithLabelValues(strconv.Itoa(status)).Inc()
}

func (s *Server) serveAir(w http.ResponseWriter, r *http.Request) int {
	lat, latErr := parseCoordinate(r.URL.Query().Get("lat"), 90)
	lon, lonErr := parseCoordinate(r.URL.Query().Get("lon"), 180)
	if latErr != nil || lonErr != nil {
		writeError(w, http.StatusBadRequest, "lat and lon query parameters must be valid coordinates")
		return http.StatusBadRequest
	}

	if s.upstream == nil || !s.upstream.Configured() {
		writeError(w, http.StatusServiceUnavailable, "air quality upstream is not configured")
		return http.StatusServiceUnavailable
	}

	if s.limiter != nil && !s.limiter.Allow() {
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return http.StatusTooManyRequests
	}

	resp, err := s.upstream.FetchLatest(r.Context(), lat, lon)
	if errors.Is(err, openaq.ErrNoAPIKey) {
		writeError(w, http.StatusServiceUnavailable, "air quality upstream is not configured")
		return http.StatusServiceUnavailable
	}
	if err != nil {
		s.logger.Warn("air proxy upstream failed", "lat", lat, "lon", lon, "error", err)
		writeError(w, http.StatusBadGateway, "failed to load")
		return http.StatusBadGateway
	}

	if resp.ContentType != "" {
		w.Header().Set("Content-Type", resp.ContentType)
	}
	w.WriteHeader(resp.StatusCode)
	w.Write(resp.Body)
	return resp.StatusCode
}

func parseCoordinate(s string, limit float64) (float64, error) {
	if s == "" {
		return 0, errors.New("missing")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || v < -limit || v > limit {
		return 0, errors.New("out of range")
	}
	return v, nil
}
