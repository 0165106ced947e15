package domain

import (
	"fmt"
	"math"

	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/simplify"
)

// DefaultSimplifyTolerance is the Douglas-Peucker threshold in degrees.
const DefaultSimplifyTolerance = 0.05

// earthRadiusKm is the IUGG mean Earth radius.
const earthRadiusKm = 6371.0088

// geometryOp describes one pass over every ring and line of a geometry.
type geometryOp struct {
	simplify  bool
	tolerance float64
}

// ProcessGeometry simplifies g at the given tolerance and rewinds its rings so
// outer rings are clockwise and holes counter-clockwise. The input is never
// modified; on error the caller should keep using it.
func ProcessGeometry(g *geojson.Geometry, tolerance float64) (*geojson.Geometry, error) {
	return apply(g, geometryOp{simplify: tolerance > 0, tolerance: tolerance})
}

// Rewind normalizes ring winding without simplifying.
func Rewind(g *geojson.Geometry) (*geojson.Geometry, error) {
	return apply(g, geometryOp{})
}

func apply(g *geojson.Geometry, op geometryOp) (*geojson.Geometry, error) {
	if g == nil {
		return nil, geometryErrorf("geometry is null")
	}
	src := g.Geometry()
	if isEmptyGeometry(src) {
		return nil, geometryErrorf("geometry %q is empty", g.Type)
	}
	out, err := op.walk(orb.Clone(src))
	if err != nil {
		return nil, err
	}
	return geojson.NewGeometry(out), nil
}

func (op geometryOp) walk(g orb.Geometry) (orb.Geometry, error) {
	switch v := g.(type) {
	case orb.Polygon:
		return op.polygon(v)
	case orb.MultiPolygon:
		out := make(orb.MultiPolygon, 0, len(v))
		for i, p := range v {
			q, err := op.polygon(p)
			if err != nil {
				return nil, &GeometryProcessingError{Reason: fmt.Sprintf("polygon %d", i), Err: err}
			}
			out = append(out, q)
		}
		return out, nil
	case orb.Collection:
		out := make(orb.Collection, 0, len(v))
		for _, member := range v {
			m, err := op.walk(member)
			if err != nil {
				return nil, err
			}
			out = append(out, m)
		}
		return out, nil
	case orb.LineString:
		if err := checkFinite(v); err != nil {
			return nil, err
		}
		if op.simplify && len(v) > 2 {
			return simplify.DouglasPeucker(op.tolerance).LineString(v), nil
		}
		return v, nil
	case orb.MultiLineString:
		out := make(orb.MultiLineString, 0, len(v))
		for _, ls := range v {
			m, err := op.walk(ls)
			if err != nil {
				return nil, err
			}
			out = append(out, m.(orb.LineString))
		}
		return out, nil
	case orb.Point:
		return v, checkFinite([]orb.Point{v})
	case orb.MultiPoint:
		return v, checkFinite(v)
	default:
		return nil, geometryErrorf("unsupported geometry %T", g)
	}
}

func (op geometryOp) polygon(p orb.Polygon) (orb.Polygon, error) {
	if len(p) == 0 {
		return nil, geometryErrorf("polygon has no rings")
	}
	out := make(orb.Polygon, 0, len(p))
	for i, r := range p {
		if err := validateRing(r); err != nil {
			return nil, &GeometryProcessingError{Reason: fmt.Sprintf("ring %d", i), Err: err}
		}
		if op.simplify {
			r = simplifyRing(r, op.tolerance)
		}
		rewound, err := rewindRing(r, i == 0)
		if err != nil {
			return nil, &GeometryProcessingError{Reason: fmt.Sprintf("ring %d", i), Err: err}
		}
		out = append(out, rewound)
	}
	return out, nil
}

func validateRing(r orb.Ring) error {
	if len(r) < 4 {
		return geometryErrorf("ring has %d positions, need at least 4", len(r))
	}
	if !r.Closed() {
		return geometryErrorf("ring is not closed")
	}
	return checkFinite(r)
}

func checkFinite(points []orb.Point) error {
	for i, p := range points {
		if math.IsNaN(p[0]) || math.IsNaN(p[1]) || math.IsInf(p[0], 0) || math.IsInf(p[1], 0) {
			return geometryErrorf("position %d is not finite", i)
		}
	}
	return nil
}

// simplifyRing keeps the input when simplification would collapse the ring.
func simplifyRing(r orb.Ring, tolerance float64) orb.Ring {
	s := simplify.DouglasPeucker(tolerance).Ring(r.Clone())
	if len(s) < 4 || !s.Closed() {
		return r
	}
	return s
}

func rewindRing(r orb.Ring, outer bool) (orb.Ring, error) {
	want := orb.CCW
	if outer {
		want = orb.CW
	}
	switch r.Orientation() {
	case want:
		return r, nil
	case 0:
		return nil, geometryErrorf("ring has zero area")
	default:
		r.Reverse()
		return r, nil
	}
}

// OuterRingsClockwise reports whether every polygon shell in g winds
// clockwise and every hole counter-clockwise.
func OuterRingsClockwise(g *geojson.Geometry) bool {
	if g == nil {
		return false
	}
	ok := true
	eachPolygon(g.Geometry(), func(p orb.Polygon) {
		for i, r := range p {
			if (i == 0 && r.Orientation() != orb.CW) || (i > 0 && r.Orientation() != orb.CCW) {
				ok = false
			}
		}
	})
	return ok
}

// SphericalAreaKm2 returns the area covered by the polygons of g on the
// sphere. Ring orientation is ignored.
func SphericalAreaKm2(g *geojson.Geometry) float64 {
	if g == nil {
		return 0
	}
	var steradians float64
	eachPolygon(g.Geometry(), func(p orb.Polygon) {
		if len(p) == 0 {
			return
		}
		a := loopArea(p[0])
		for _, hole := range p[1:] {
			a -= loopArea(hole)
		}
		steradians += math.Max(a, 0)
	})
	return steradians * earthRadiusKm * earthRadiusKm
}

// loopArea builds an s2 loop from the ring. s2 takes the interior to the
// left of the path, so a clockwise ring yields the complement; anything
// larger than a hemisphere is inverted.
func loopArea(r orb.Ring) float64 {
	pts := make([]s2.Point, 0, len(r))
	for i, p := range r {
		if i > 0 && p == r[i-1] {
			continue
		}
		pts = append(pts, s2.PointFromLatLng(s2.LatLngFromDegrees(p.Lat(), p.Lon())))
	}
	if len(pts) > 1 && pts[0] == pts[len(pts)-1] {
		pts = pts[:len(pts)-1]
	}
	if len(pts) < 3 {
		return 0
	}
	a := s2.LoopFromPoints(pts).Area()
	if a > 2*math.Pi {
		a = 4*math.Pi - a
	}
	return a
}

func eachPolygon(g orb.Geometry, fn func(orb.Polygon)) {
	switch v := g.(type) {
	case orb.Polygon:
		fn(v)
	case orb.MultiPolygon:
		for _, p := range v {
			fn(p)
		}
	case orb.Collection:
		for _, member := range v {
			eachPolygon(member, fn)
		}
	}
}

func isEmptyGeometry(g orb.Geometry) bool {
	switch v := g.(type) {
	case nil:
		return true
	case orb.Collection:
		return len(v) == 0
	case orb.Polygon:
		return len(v) == 0
	case orb.MultiPolygon:
		return len(v) == 0
	}
	return false
}
