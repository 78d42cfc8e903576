package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPumpMetrics(t *testing.T) {
	m := newPumpMetrics()
	m.ObserveChunk("stdin", 10)
	m.ObserveChunk("stdin", 5)
	m.ObserveExit("stdin", ReasonFailed)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Chunks.WithLabelValues("stdin")))
	assert.Equal(t, 15.0, testutil.ToFloat64(m.Bytes.WithLabelValues("stdin")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Exits.WithLabelValues("stdin", ReasonFailed)))
	assert.Zero(t, testutil.ToFloat64(m.Exits.WithLabelValues("stdin", ReasonStopped)))
}

func TestRegisterOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, Register(reg))
	require.NoError(t, Register(reg))
	Get().ObserveChunk("exec", 3)
	n, err := testutil.GatherAndCount(reg, "pumper_chunks_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
