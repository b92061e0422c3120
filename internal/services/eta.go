package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/chachabrian/tripshare-backend/internal/observability"
	"github.com/chachabrian/tripshare-backend/pkg/utils"
)

const (
	// DefaultRouteTimeout bounds the routing oracle call.
	DefaultRouteTimeout = 6 * time.Second
	// DefaultFallbackSpeedKmh is the nominal speed assumed for the
	// straight-line estimate.
	DefaultFallbackSpeedKmh = 40.0
)

// Coord is a WGS84 coordinate pair.
type Coord struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Estimate is the result of a distance/ETA computation. Fallback marks a
// degraded straight-line estimate.
type Estimate struct {
	DurationSeconds float64 `json:"durationSeconds"`
	DistanceMeters  float64 `json:"distanceMeters"`
	ETAText         string  `json:"etaText"`
	DistanceText    string  `json:"distanceText"`
	Fallback        bool    `json:"fallback"`
}

// Estimator answers distance/duration queries against an OSRM-compatible
// routing server, degrading to a haversine estimate when the server fails.
type Estimator struct {
	endpoint         string
	client           *http.Client
	fallbackSpeedKmh float64
	log              *logrus.Logger
}

func NewEstimator(endpoint string, timeout time.Duration, fallbackSpeedKmh float64, log *logrus.Logger) *Estimator {
	if timeout <= 0 {
		timeout = DefaultRouteTimeout
	}
	if fallbackSpeedKmh <= 0 {
		fallbackSpeedKmh = DefaultFallbackSpeedKmh
	}
	return &Estimator{
		endpoint:         endpoint,
		client:           &http.Client{Timeout: timeout},
		fallbackSpeedKmh: fallbackSpeedKmh,
		log:              log,
	}
}

// Estimate returns the route distance/duration between two coordinates. A
// routing failure is absorbed into the fallback path; the only error cases
// are out-of-range coordinates.
func (e *Estimator) Estimate(ctx context.Context, from, to Coord) (*Estimate, error) {
	if !utils.ValidLatLng(from.Lat, from.Lng) || !utils.ValidLatLng(to.Lat, to.Lng) {
		return nil, fmt.Errorf("estimate: invalid coordinates (%.6f,%.6f)->(%.6f,%.6f)",
			from.Lat, from.Lng, to.Lat, to.Lng)
	}

	durationSec, distanceM, err := e.route(ctx, from, to)
	if err != nil {
		if e.log != nil {
			e.log.WithError(err).WithFields(logrus.Fields{
				"fromLat": from.Lat, "fromLng": from.Lng,
				"toLat": to.Lat, "toLng": to.Lng,
			}).Warn("routing unavailable, using straight-line estimate")
		}
		observability.ETARequestsTotal.WithLabelValues("fallback").Inc()
		distanceM = utils.HaversineMeters(from.Lat, from.Lng, to.Lat, to.Lng)
		durationSec = distanceM / (e.fallbackSpeedKmh * 1000 / 3600)
		return &Estimate{
			DurationSeconds: durationSec,
			DistanceMeters:  distanceM,
			ETAText:         FormatDuration(durationSec),
			DistanceText:    FormatDistance(distanceM),
			Fallback:        true,
		}, nil
	}

	observability.ETARequestsTotal.WithLabelValues("ok").Inc()
	return &Estimate{
		DurationSeconds: durationSec,
		DistanceMeters:  distanceM,
		ETAText:         FormatDuration(durationSec),
		DistanceText:    FormatDistance(distanceM),
		Fallback:        false,
	}, nil
}

// route queries OSRM: /route/v1/driving/{lng},{lat};{lng},{lat}?overview=false
func (e *Estimator) route(ctx context.Context, from, to Coord) (durationSec, distanceM float64, err error) {
	url := fmt.Sprintf("%s/route/v1/driving/%.6f,%.6f;%.6f,%.6f?overview=false",
		e.endpoint, from.Lng, from.Lat, to.Lng, to.Lat)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, 0, err
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, 0, fmt.Errorf("%w: status %d", ErrUpstreamUnavailable, resp.StatusCode)
	}

	var out struct {
		Code   string `json:"code"`
		Routes []struct {
			Duration float64 `json:"duration"`
			Distance float64 `json:"distance"`
		} `json:"routes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	if out.Code != "Ok" || len(out.Routes) == 0 {
		return 0, 0, fmt.Errorf("%w: no route (%s)", ErrUpstreamUnavailable, out.Code)
	}
	return out.Routes[0].Duration, out.Routes[0].Distance, nil
}

// FormatDuration renders a duration in seconds for display. Durations of an
// hour or more render as "{h}h {m}m", under a minute as "<1 min".
func FormatDuration(seconds float64) string {
	mins := int(seconds / 60)
	if mins < 1 {
		return "<1 min"
	}
	if mins >= 60 {
		return fmt.Sprintf("%dh %dm", mins/60, mins%60)
	}
	return fmt.Sprintf("%d min", mins)
}

// FormatDistance renders meters for display, switching to one-decimal
// kilometers at 1000 m.
func FormatDistance(meters float64) string {
	if meters >= 1000 {
		return fmt.Sprintf("%.1f km", meters/1000)
	}
	return fmt.Sprintf("%d m", int(math.Round(meters)))
}
