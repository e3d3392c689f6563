package engine

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ritzau/refgraph/pkg/model"
	"github.com/ritzau/refgraph/pkg/registry"
)

func newInstrumented(t *testing.T, opts ...Option) (*Engine, *prometheus.Registry) {
	t.Helper()

	reg := prometheus.NewRegistry()
	return New(append(opts, WithMetrics(reg))...), reg
}

func TestMetrics_Registrations(t *testing.T) {
	e, _ := newInstrumented(t)

	require.NoError(t, e.AddReference("A", "B"))
	require.NoError(t, e.AddReference("A", "B"))
	require.NoError(t, e.AddReference("A", "C", WithKind(model.KindMirror)))

	assert.Equal(t, 2.0, testutil.ToFloat64(e.metrics.ReferencesRegistered.WithLabelValues("component")))
	assert.Equal(t, 1.0, testutil.ToFloat64(e.metrics.ReferencesRegistered.WithLabelValues("mirror")))
	assert.Equal(t, 3.0, testutil.ToFloat64(e.metrics.GraphNodes))
	assert.Equal(t, 2.0, testutil.ToFloat64(e.metrics.GraphEdges))
}

func TestMetrics_Errors(t *testing.T) {
	e, _ := newInstrumented(t, WithCanonicalizer(registry.PackageCanonicalizer{}))

	require.Error(t, e.AddReference("A", "B", WithInstanceCount(0)))
	require.Error(t, e.AddReference("", "B"))

	assert.Equal(t, 1.0, testutil.ToFloat64(e.metrics.RegistrationErrors.WithLabelValues(reasonInvalidCount)))
	assert.Equal(t, 1.0, testutil.ToFloat64(e.metrics.RegistrationErrors.WithLabelValues(reasonNormalization)))
}

func TestMetrics_ClearResetsSize(t *testing.T) {
	e, _ := newInstrumented(t)

	require.NoError(t, e.AddReference("A", "B"))
	e.Clear()

	assert.Equal(t, 0.0, testutil.ToFloat64(e.metrics.GraphNodes))
	assert.Equal(t, 0.0, testutil.ToFloat64(e.metrics.GraphEdges))
}

func TestMetrics_QueryDuration(t *testing.T) {
	e, reg := newInstrumented(t)

	require.NoError(t, e.AddReference("A", "B"))
	e.GetDependencies("A")
	e.GetReferences("B")
	e.DetectCircularRefs()

	count, err := testutil.GatherAndCount(reg, "refgraph_query_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestMetrics_Disabled(t *testing.T) {
	e := New()

	require.Nil(t, e.metrics)
	require.NoError(t, e.AddReference("A", "B"))
	e.GetDependencies("A")
	e.Clear()
}
