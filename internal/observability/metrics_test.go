package observability

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMetricsVerdictSnapshot(t *testing.T) {
	m := NewMetrics()

	m.RecordVerdict("visit", "OK")
	m.RecordVerdict("visit", "OK")
	m.RecordVerdict("promo", "ALREADY_USED")

	snap := m.Snapshot()
	require.Equal(t, int64(2), snap["visit|OK"])
	require.Equal(t, int64(1), snap["promo|ALREADY_USED"])

	// Snapshot is a copy; mutating it must not touch the counters.
	snap["visit|OK"] = 99
	require.Equal(t, int64(2), m.Snapshot()["visit|OK"])
}
