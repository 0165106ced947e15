// Command genmock builds snapshot fixtures from saved NWS responses. It runs
// the real pipeline offline: the feed is read from a file and zone geometry
// from a directory of zone documents named after the zone ID
// (e.g. zones/TXZ119.json for .../zones/forecast/TXZ119).
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -feed testdata/active.json \
//	  -zones testdata/zones \
//	  -raw-out data/mock/alerts_raw.geojson \
//	  -enriched-out data/mock/alerts_enriched.geojson
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/paulmach/orb/geojson"

	"github.com/couchcryptid/nws-alert-map/internal/adapter/geojsonfile"
	"github.com/couchcryptid/nws-alert-map/internal/domain"
	"github.com/couchcryptid/nws-alert-map/internal/observability"
	"github.com/couchcryptid/nws-alert-map/internal/pipeline"
)

// Fixed so fixtures regenerate byte-for-byte apart from the run ID.
var generatedAt = time.Date(2024, time.April, 26, 15, 0, 0, 0, time.UTC)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	feedPath := flag.String("feed", "", "saved active-alerts feed response")
	zoneDir := flag.String("zones", "", "directory of saved zone responses")
	rawOut := flag.String("raw-out", "", "output path for the raw snapshot")
	enrichedOut := flag.String("enriched-out", "", "output path for the enriched snapshot")
	tolerance := flag.Float64("tolerance", domain.DefaultSimplifyTolerance, "simplification tolerance in degrees")
	flag.Parse()

	if *feedPath == "" || *zoneDir == "" || *enrichedOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -feed, -zones, -enriched-out")
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	metrics := observability.NewMetricsForTesting()

	sink := stageFiles{
		domain.StageEnriched: geojsonfile.NewWriter(*enrichedOut, logger),
	}
	if *rawOut != "" {
		sink[domain.StageRaw] = geojsonfile.NewWriter(*rawOut, logger)
	}
	rec := &recordingPublisher{next: sink}

	resolver := fileZoneResolver{dir: *zoneDir}
	enricher := pipeline.NewEnricher(resolver, *tolerance, 4, logger, metrics)
	p := pipeline.New(fileFeed{path: *feedPath}, enricher, rec, logger, metrics,
		clockwork.NewFakeClockAt(generatedAt), pipeline.Options{})

	if err := p.RunOnce(context.Background()); err != nil {
		return err
	}
	if err := errors.Join(rec.errs...); err != nil {
		return fmt.Errorf("writing fixtures: %w", err)
	}

	printStats(rec.enriched)
	return nil
}

type fileFeed struct{ path string }

func (f fileFeed) FetchActiveAlerts(_ context.Context) (domain.AlertCollection, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return domain.AlertCollection{}, err
	}
	return domain.ParseAlertCollection(data)
}

type fileZoneResolver struct{ dir string }

func (r fileZoneResolver) ResolveZone(_ context.Context, zoneRef string) (*geojson.Geometry, error) {
	data, err := os.ReadFile(filepath.Join(r.dir, path.Base(zoneRef)+".json"))
	if err != nil {
		return nil, err
	}
	return domain.ParseZoneGeometry(data)
}

// stageFiles writes each stage to its own file; stages without a file are
// skipped.
type stageFiles map[domain.Stage]*geojsonfile.Writer

func (s stageFiles) Publish(ctx context.Context, snap domain.Snapshot) error {
	w, ok := s[snap.Stage]
	if !ok {
		return nil
	}
	return w.Publish(ctx, snap)
}

// recordingPublisher keeps publish errors, which the pipeline only logs, and
// the enriched alerts for the summary.
type recordingPublisher struct {
	next     pipeline.Publisher
	errs     []error
	enriched []domain.Alert
}

func (r *recordingPublisher) Publish(ctx context.Context, snap domain.Snapshot) error {
	if snap.Stage == domain.StageEnriched {
		r.enriched = snap.Alerts
	}
	err := r.next.Publish(ctx, snap)
	if err != nil {
		r.errs = append(r.errs, err)
	}
	return err
}

func printStats(alerts []domain.Alert) {
	byColour := map[string]int{}
	zones := map[string]struct{}{}
	var area float64
	for i := range alerts {
		byColour[alerts[i].RelevantColour]++
		zones[alerts[i].Zone] = struct{}{}
		area += alerts[i].AreaSqKm
	}

	fmt.Printf("Features: %d across %d zones\n", len(alerts), len(zones))
	fmt.Printf("Total area: %.0f km²\n", area)

	colours := make([]string, 0, len(byColour))
	for c := range byColour {
		colours = append(colours, c)
	}
	sort.Strings(colours)
	fmt.Println("\nBy colour:")
	for _, c := range colours {
		fmt.Printf("  %s: %d\n", c, byColour[c])
	}
}
