package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestStorageMetrics(t *testing.T) {
	const path = "/var/lib/dirstore"

	r := prometheus.NewRegistry()
	m := NewStorageMetrics(r)

	m.SetContainersCount(path, 3)
	m.AddLostContainers(path, 2)
	m.IncRebuilds(path)
	m.AddWrittenBytes(path, 100)
	m.AddWrittenBytes(path, 28)
	m.AddOperationDuration(path, "PUT", time.Millisecond)
	m.SetSafetyState(path, false)
	m.IncRecoveries(path)

	labels := prometheus.Labels{pathLabelKey: path}
	require.EqualValues(t, 3, testutil.ToFloat64(m.containers.With(labels)))
	require.EqualValues(t, 2, testutil.ToFloat64(m.lostContainers.With(labels)))
	require.EqualValues(t, 1, testutil.ToFloat64(m.rebuilds.With(labels)))
	require.EqualValues(t, 128, testutil.ToFloat64(m.writtenBytes.With(labels)))
	require.EqualValues(t, 0, testutil.ToFloat64(m.stable.With(labels)))
	require.EqualValues(t, 1, testutil.ToFloat64(m.recoveries.With(labels)))

	m.SetSafetyState(path, true)
	require.EqualValues(t, 1, testutil.ToFloat64(m.stable.With(labels)))

	require.Equal(t, 1, testutil.CollectAndCount(m.opDuration))

	require.Panics(t, func() { NewStorageMetrics(r) }, "double registration")
}
