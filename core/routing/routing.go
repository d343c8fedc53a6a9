// Package routing defines the contract with the external point-to-point
// routing service.
package routing

import (
	"context"
	"errors"
	"strings"
)

// ErrUnavailable indicates the routing service could not be reached or timed
// out. Callers degrade to an advisory "unknown" feasibility status instead of
// failing the request.
var ErrUnavailable = errors.New("routing: service unavailable")

// Estimate is a point-to-point travel estimate.
type Estimate struct {
	Minutes    int     `json:"minutes"`
	DistanceKM float64 `json:"distance_km"`
}

// Router resolves travel time between two free-text addresses.
type Router interface {
	TravelTime(ctx context.Context, origin, destination string) (Estimate, error)
}

// Normalize canonicalizes an address for equality checks. Two locations that
// normalize equal are treated as requiring zero travel.
func Normalize(addr string) string {
	return strings.Join(strings.Fields(strings.ToLower(addr)), " ")
}

// SameLocation reports whether two addresses normalize to the same place.
func SameLocation(a, b string) bool {
	return Normalize(a) == Normalize(b)
}
