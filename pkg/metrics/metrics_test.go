package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()
	m.PageFetched("clients")
	m.PageFetched("clients")
	m.FetchFailed("clients")
	m.RowsAppended("clients", 7)
	m.EndpointFinished("visits", time.Second, true)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.pagesFetched.WithLabelValues("clients")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.fetchFailures.WithLabelValues("clients")))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.rowsExported.WithLabelValues("clients")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.endpointFailures.WithLabelValues("visits")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.PageFetched("x")
	m.RunCompleted(time.Now(), 1)
	assert.NoError(t, m.WriteTextfile("ignored"))
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.RowsAppended("clients", 3)
	m.RunCompleted(time.Unix(1700000000, 0), 3)

	path := filepath.Join(t.TempDir(), "repsly.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `repsly_export_rows_total{endpoint="clients"} 3`)
	assert.Contains(t, string(data), "repsly_export_last_run_rows 3")
}
