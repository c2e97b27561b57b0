package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	dirStorageSubsystem = "storage"

	opLabelKey = "op"
)

type dirStorageMetrics struct {
	opDuration *prometheus.HistogramVec

	containers     *prometheus.GaugeVec
	lostContainers *prometheus.CounterVec
	rebuilds       *prometheus.CounterVec
	writtenBytes   *prometheus.CounterVec
}

func newDirStorageMetrics() dirStorageMetrics {
	return dirStorageMetrics{
		opDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: dirStorageSubsystem,
			Name:      "operation_time",
			Help:      "Storage operations handling time",
		}, []string{pathLabelKey, opLabelKey}),

		containers: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: dirStorageSubsystem,
			Name:      "containers",
			Help:      "Number of container files",
		}, []string{pathLabelKey}),

		lostContainers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: dirStorageSubsystem,
			Name:      "lost_containers_total",
			Help:      "Number of containers dropped by rebuilds because they could not be read",
		}, []string{pathLabelKey}),

		rebuilds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: dirStorageSubsystem,
			Name:      "rebuilds_total",
			Help:      "Number of completed rebuilds",
		}, []string{pathLabelKey}),

		writtenBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: dirStorageSubsystem,
			Name:      "written_bytes_total",
			Help:      "Payload bytes accepted by write operations",
		}, []string{pathLabelKey}),
	}
}

func (m dirStorageMetrics) register(r prometheus.Registerer) {
	r.MustRegister(m.opDuration)
	r.MustRegister(m.containers)
	r.MustRegister(m.lostContainers)
	r.MustRegister(m.rebuilds)
	r.MustRegister(m.writtenBytes)
}

func (m dirStorageMetrics) AddOperationDuration(path, op string, d time.Duration) {
	m.opDuration.With(prometheus.Labels{pathLabelKey: path, opLabelKey: op}).Observe(d.Seconds())
}

func (m dirStorageMetrics) SetContainersCount(path string, n int) {
	m.containers.With(prometheus.Labels{pathLabelKey: path}).Set(float64(n))
}

func (m dirStorageMetrics) AddLostContainers(path string, n int) {
	m.lostContainers.With(prometheus.Labels{pathLabelKey: path}).Add(float64(n))
}

func (m dirStorageMetrics) IncRebuilds(path string) {
	m.rebuilds.With(prometheus.Labels{pathLabelKey: path}).Inc()
}

func (m dirStorageMetrics) AddWrittenBytes(path string, n int) {
	m.writtenBytes.With(prometheus.Labels{pathLabelKey: path}).Add(float64(n))
}
