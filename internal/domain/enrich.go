package domain

import (
	"context"
	"log/slog"
)

// EnrichWithZones returns the records an alert expands to: the alert itself
// when it already has geometry, otherwise one copy per affected zone in
// affectedZones order. A zone that fails to resolve is logged and skipped;
// only context cancellation is returned as an error.
func EnrichWithZones(ctx context.Context, alert Alert, resolver ZoneResolver, logger *slog.Logger) ([]Alert, error) {
	if alert.Geometry != nil {
		return []Alert{alert}, nil
	}

	zones := alert.Properties.AffectedZones
	if len(zones) == 0 {
		logger.Warn("dropping alert without geometry source",
			"alert_id", alert.ID,
			"event", alert.Properties.Event,
		)
		return nil, nil
	}

	out := make([]Alert, 0, len(zones))
	for _, zone := range zones {
		g, err := resolver.ResolveZone(ctx, zone)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			logger.Warn("zone resolution failed, skipping zone",
				"alert_id", alert.ID,
				"zone", zone,
				"error", err,
			)
			continue
		}
		out = append(out, alert.CopyForZone(zone, g))
	}
	return out, nil
}

// FinalizeAlert simplifies and rewinds the alert geometry, records its area
// and assigns its colour. A geometry failure is returned alongside the alert,
// which keeps its previous geometry.
func FinalizeAlert(alert Alert, tolerance float64) (Alert, error) {
	var geomErr error
	if g, err := ProcessGeometry(alert.Geometry, tolerance); err != nil {
		geomErr = err
	} else {
		alert.Geometry = g
	}
	alert.AreaSqKm = SphericalAreaKm2(alert.Geometry)
	alert.RelevantColour = Classify(alert.Properties.Headline)
	return alert, geomErr
}

// PrepareRaw rewinds inline geometry and colours an unenriched alert for the
// initial render. Alerts without geometry are only coloured.
func PrepareRaw(alert Alert) (Alert, error) {
	alert.RelevantColour = Classify(alert.Properties.Headline)
	if alert.Geometry == nil {
		return alert, nil
	}
	g, err := Rewind(alert.Geometry)
	if err != nil {
		return alert, err
	}
	alert.Geometry = g
	return alert, nil
}
