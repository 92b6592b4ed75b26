package metrics_test

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/minigrad/internal/metrics"
	"github.com/born-ml/minigrad/internal/tensor"
)

func TestGraphCollector(t *testing.T) {
	g := tensor.NewGraph(tensor.WithName("mlp"))
	x, err := g.Ones(tensor.Shape{2, 4}, true)
	require.NoError(t, err)
	x.EnsureGrad()

	c := metrics.NewGraphCollector()
	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(c))

	assert.Equal(t, 0, testutil.CollectAndCount(c), "nothing observed yet")

	c.Observe(g)
	assert.Equal(t, 8, testutil.CollectAndCount(c))

	expected := `
# HELP minigrad_graph_live_bytes Bytes held by live data and gradient buffers.
# TYPE minigrad_graph_live_bytes gauge
minigrad_graph_live_bytes{graph="` + g.ID().String() + `",name="mlp"} 128
`
	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected), "minigrad_graph_live_bytes"))

	// Snapshots do not follow the graph until observed again.
	x.Release()
	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected), "minigrad_graph_live_bytes"))
	c.Observe(g)
	assert.Equal(t, 0.0, gaugeValue(t, reg, "minigrad_graph_live_nodes"))

	c.Forget(g)
	assert.Equal(t, 0, testutil.CollectAndCount(c))
}

func TestTraining(t *testing.T) {
	reg := prometheus.NewRegistry()
	tr, err := metrics.NewTraining(reg, metrics.NewGraphCollector())
	require.NoError(t, err)

	tr.Loss.Set(0.25)
	tr.Epochs.Inc()
	tr.Epochs.Inc()
	tr.ObserveBackward(3 * time.Millisecond)

	assert.Equal(t, 0.25, testutil.ToFloat64(tr.Loss))
	assert.Equal(t, 2.0, testutil.ToFloat64(tr.Epochs))
	assert.Equal(t, 1, testutil.CollectAndCount(tr.Backward))

	_, err = metrics.NewTraining(reg, nil)
	assert.Error(t, err, "duplicate registration")
}

func gaugeValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == name {
			require.Len(t, mf.GetMetric(), 1)
			return mf.GetMetric()[0].GetGauge().GetValue()
		}
	}
	t.Fatalf("metric %s not found", name)
	return 0
}
