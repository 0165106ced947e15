package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Fingerprint is a SHA-256 digest of the alert's JSON encoding. Two alerts
// with equal fingerprints are value-identical.
func Fingerprint(a Alert) (string, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Dedupe drops value-identical alerts, keeping the first occurrence. Alerts
// that cannot be encoded are kept.
func Dedupe(alerts []Alert) []Alert {
	seen := make(map[string]struct{}, len(alerts))
	out := make([]Alert, 0, len(alerts))
	for _, a := range alerts {
		fp, err := Fingerprint(a)
		if err == nil {
			if _, dup := seen[fp]; dup {
				continue
			}
			seen[fp] = struct{}{}
		}
		out = append(out, a)
	}
	return out
}

// RecordKey identifies a per-zone record for downstream consumers.
func RecordKey(a Alert) string {
	id := a.ID
	if id == "" {
		id = a.Properties.ID
	}
	if a.Zone == "" {
		return id
	}
	return id + "|" + a.Zone
}
