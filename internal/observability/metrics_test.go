package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNewMetricsForTesting_Independent(t *testing.T) {
	a := NewMetricsForTesting()
	b := NewMetricsForTesting()

	a.ZoneCacheLookups.WithLabelValues("hit").Inc()

	assert.InDelta(t, 1, testutil.ToFloat64(a.ZoneCacheLookups.WithLabelValues("hit")), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(b.ZoneCacheLookups.WithLabelValues("hit")), 0)
}
