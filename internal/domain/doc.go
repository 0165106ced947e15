// Package domain models National Weather Service (NWS) active alerts and the
// geometry work needed to draw them on a map.
//
// # Data Source
//
// Alerts come from the NWS public API at https://api.weather.gov/alerts/active,
// served as a GeoJSON FeatureCollection. Each feature is one alert. Most alerts
// arrive without inline geometry and instead list the forecast, county or fire
// zones they cover in properties.affectedZones, e.g.
//
//	"https://api.weather.gov/zones/forecast/TXZ192"
//
// Each zone URI dereferences to a GeoJSON feature whose geometry member is the
// zone polygon. See [ParseZoneGeometry].
//
// # Per-zone records
//
// An alert covering several zones becomes one record per zone, in
// affectedZones order. Every copy carries the same properties and the polygon
// of its own zone, recorded in [Alert.Zone].
//
// # Winding
//
// The presentation layer projects polygons on the sphere (d3-geo), where the
// interior of a ring is the area to the right of its path. Outer rings are
// therefore wound clockwise and holes counter-clockwise, the reverse of the
// RFC 7946 recommendation. See [ProcessGeometry].
//
// # Colours
//
// Alerts are coloured by the first keyword of [ColourRules] found in the
// lowercased headline, falling back to [DefaultColour]:
//
//	heat #EB96AA | red #C54B6C | fire #C54B6C | flood #B6D8F2
//	wind #5784BA | thunderstorm #F7CE76 | otherwise #BEB4C5
package domain
