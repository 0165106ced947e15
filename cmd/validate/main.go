// Command validate checks the integrity of an alert snapshot written by the
// service (OUTPUT_PATH) or downloaded from /alerts: every feature has
// geometry with clockwise outer rings, a colour from the palette that matches
// its headline, and no feature appears twice.
//
// Usage:
//
//	go run ./cmd/validate -snapshot data/alerts.geojson
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/couchcryptid/nws-alert-map/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	snapshotPath := flag.String("snapshot", "", "path to a snapshot GeoJSON file")
	flag.Parse()

	if *snapshotPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	os.Exit(run(*snapshotPath, os.Stdout))
}

func run(path string, out io.Writer) int {
	fmt.Fprintln(out, "=== Alert Snapshot Validation ===")
	fmt.Fprintln(out)

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(out, "FATAL: read snapshot: %v\n", err)
		return 1
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		fmt.Fprintf(out, "FATAL: decode snapshot: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateMetadata(snap),
		validateGeometry(snap),
		validateColours(snap),
		validateUniqueness(snap),
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(out, "  %-36s %s\n", p.name, status)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Snapshot: run %s, stage %s, %d features\n", snap.RunID, snap.Stage, len(snap.Alerts))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(out, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(out, "\nValidation FAILED.")
	return 1
}

// ── Phase 1: Metadata ──

func validateMetadata(snap domain.Snapshot) *phase {
	p := &phase{name: "Phase 1: Snapshot metadata"}
	if snap.RunID == "" {
		p.errorf("run_id is empty")
	}
	if _, err := domain.ParseStage(string(snap.Stage)); err != nil {
		p.errorf("stage: %v", err)
	}
	if snap.GeneratedAt.IsZero() {
		p.errorf("generated_at is missing")
	}
	return p
}

// ── Phase 2: Geometry ──
// Raw snapshots may carry alerts whose zones are not resolved yet.

func validateGeometry(snap domain.Snapshot) *phase {
	p := &phase{name: "Phase 2: Geometry"}
	for i, a := range snap.Alerts {
		if a.Geometry == nil {
			if snap.Stage == domain.StageEnriched {
				p.errorf("feature %d (%s): geometry is null", i, label(a))
			}
			continue
		}
		if !domain.OuterRingsClockwise(a.Geometry) {
			p.errorf("feature %d (%s): rings not wound outer clockwise, holes counter-clockwise", i, label(a))
		}
	}
	return p
}

// ── Phase 3: Colours ──

func validateColours(snap domain.Snapshot) *phase {
	p := &phase{name: "Phase 3: Colour classification"}
	palette := domain.Palette()
	for i, a := range snap.Alerts {
		if a.RelevantColour == "" {
			p.errorf("feature %d (%s): relevant_colour is empty", i, label(a))
			continue
		}
		if _, ok := palette[a.RelevantColour]; !ok {
			p.errorf("feature %d (%s): colour %s not in palette", i, label(a), a.RelevantColour)
		}
		if want := domain.Classify(a.Properties.Headline); a.RelevantColour != want {
			p.errorf("feature %d (%s): colour %s, headline %q classifies as %s", i, label(a), a.RelevantColour, a.Properties.Headline, want)
		}
	}
	return p
}

// ── Phase 4: Uniqueness ──

func validateUniqueness(snap domain.Snapshot) *phase {
	p := &phase{name: "Phase 4: Duplicate features"}
	seen := make(map[string]int, len(snap.Alerts))
	for i, a := range snap.Alerts {
		fp, err := domain.Fingerprint(a)
		if err != nil {
			p.errorf("feature %d (%s): fingerprint: %v", i, label(a), err)
			continue
		}
		if first, dup := seen[fp]; dup {
			p.errorf("feature %d (%s) duplicates feature %d", i, label(a), first)
			continue
		}
		seen[fp] = i
	}
	return p
}

func label(a domain.Alert) string {
	return domain.RecordKey(a)
}
