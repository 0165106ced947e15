package domain

import (
	"context"

	"github.com/paulmach/orb/geojson"
)

// ZoneResolver dereferences an NWS zone URI to its polygon geometry.
type ZoneResolver interface {
	ResolveZone(ctx context.Context, zoneRef string) (*geojson.Geometry, error)
}
