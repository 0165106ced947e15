package domain

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/paulmach/orb/geojson"
)

// AlertProperties mirrors the subset of NWS alert properties the map uses.
type AlertProperties struct {
	ID            string     `json:"id,omitempty"`
	AreaDesc      string     `json:"areaDesc,omitempty"`
	AffectedZones []string   `json:"affectedZones"`
	Sent          *time.Time `json:"sent,omitempty"`
	Effective     *time.Time `json:"effective,omitempty"`
	Onset         *time.Time `json:"onset,omitempty"`
	Expires       *time.Time `json:"expires,omitempty"`
	Ends          *time.Time `json:"ends,omitempty"`
	Status        string     `json:"status,omitempty"`
	MessageType   string     `json:"messageType,omitempty"`
	Severity      string     `json:"severity,omitempty"`
	Certainty     string     `json:"certainty,omitempty"`
	Urgency       string     `json:"urgency,omitempty"`
	Event         string     `json:"event,omitempty"`
	SenderName    string     `json:"senderName,omitempty"`
	Headline      string     `json:"headline,omitempty"`
	Description   string     `json:"description,omitempty"`
	Instruction   string     `json:"instruction,omitempty"` // optional; null in the feed when absent
}

// Alert is a single NWS alert feature, optionally enriched with zone geometry.
type Alert struct {
	ID         string            `json:"id,omitempty"`
	Type       string            `json:"type"`
	Geometry   *geojson.Geometry `json:"geometry"`
	Properties AlertProperties   `json:"properties"`

	// Enrichment fields.
	RelevantColour string  `json:"relevant_colour,omitempty"`
	Zone           string  `json:"zone,omitempty"` // zone URI the geometry was taken from
	AreaSqKm       float64 `json:"area_sq_km,omitempty"`
}

// AlertCollection is the FeatureCollection returned by the active-alerts feed.
type AlertCollection struct {
	Type       string      `json:"type"`
	Title      string      `json:"title,omitempty"`
	Updated    *time.Time  `json:"updated,omitempty"`
	Features   []Alert     `json:"features"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// Pagination links the next page of a paged feed response.
type Pagination struct {
	Next string `json:"next"`
}

// NextPage returns the URL of the following page, or "" on the last page.
func (c AlertCollection) NextPage() string {
	if c.Pagination == nil {
		return ""
	}
	return c.Pagination.Next
}

// Stage identifies which point of a poll cycle a snapshot was taken at.
type Stage string

const (
	StageRaw      Stage = "raw"
	StageEnriched Stage = "enriched"
)

// ParseStage validates a stage name.
func ParseStage(s string) (Stage, error) {
	switch Stage(s) {
	case StageRaw, StageEnriched:
		return Stage(s), nil
	default:
		return "", fmt.Errorf("unknown stage %q", s)
	}
}

// Snapshot is the alert collection handed to presentation sinks.
type Snapshot struct {
	RunID       string
	Stage       Stage
	GeneratedAt time.Time
	Alerts      []Alert
}

type snapshotJSON struct {
	Type        string    `json:"type"`
	RunID       string    `json:"run_id"`
	Stage       Stage     `json:"stage"`
	GeneratedAt time.Time `json:"generated_at"`
	Features    []Alert   `json:"features"`
}

// MarshalJSON renders the snapshot as a GeoJSON FeatureCollection with
// run metadata as foreign members.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	features := s.Alerts
	if features == nil {
		features = []Alert{}
	}
	return json.Marshal(snapshotJSON{
		Type:        "FeatureCollection",
		RunID:       s.RunID,
		Stage:       s.Stage,
		GeneratedAt: s.GeneratedAt,
		Features:    features,
	})
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var raw snapshotJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = Snapshot{
		RunID:       raw.RunID,
		Stage:       raw.Stage,
		GeneratedAt: raw.GeneratedAt,
		Alerts:      raw.Features,
	}
	return nil
}

// ParseAlertCollection decodes the active-alerts feed body.
func ParseAlertCollection(data []byte) (AlertCollection, error) {
	var fc AlertCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return AlertCollection{}, fmt.Errorf("parse alert collection: %w", err)
	}
	if fc.Type != "FeatureCollection" {
		return AlertCollection{}, fmt.Errorf("parse alert collection: unexpected type %q", fc.Type)
	}
	return fc, nil
}

// ParseZoneGeometry extracts the geometry member of a zone document.
// A zone without geometry is reported as an error.
func ParseZoneGeometry(data []byte) (*geojson.Geometry, error) {
	var zone struct {
		Geometry *geojson.Geometry `json:"geometry"`
	}
	if err := json.Unmarshal(data, &zone); err != nil {
		return nil, fmt.Errorf("parse zone: %w", err)
	}
	if zone.Geometry == nil || isEmptyGeometry(zone.Geometry.Geometry()) {
		return nil, fmt.Errorf("parse zone: geometry is null")
	}
	return zone.Geometry, nil
}

// CopyForZone returns an independent copy of the alert carrying the given
// zone geometry.
func (a Alert) CopyForZone(zone string, g *geojson.Geometry) Alert {
	out := a
	out.Properties.AffectedZones = slices.Clone(a.Properties.AffectedZones)
	out.Geometry = g
	out.Zone = zone
	return out
}
