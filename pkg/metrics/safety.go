package metrics

import "github.com/prometheus/client_golang/prometheus"

const safetySubsystem = "safety"

type safetyMetrics struct {
	stable     *prometheus.GaugeVec
	recoveries *prometheus.CounterVec
}

func newSafetyMetrics() safetyMetrics {
	return safetyMetrics{
		stable: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: safetySubsystem,
			Name:      "stable",
			Help:      "Storage safety flag: 1 between operations, 0 while an operation is in progress or failed",
		}, []string{pathLabelKey}),

		recoveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: safetySubsystem,
			Name:      "recoveries_total",
			Help:      "Number of rebuilds triggered by unstable flag on open",
		}, []string{pathLabelKey}),
	}
}

func (m safetyMetrics) register(r prometheus.Registerer) {
	r.MustRegister(m.stable)
	r.MustRegister(m.recoveries)
}

func (m safetyMetrics) SetSafetyState(path string, stable bool) {
	var v float64
	if stable {
		v = 1
	}
	m.stable.With(prometheus.Labels{pathLabelKey: path}).Set(v)
}

func (m safetyMetrics) IncRecoveries(path string) {
	m.recoveries.With(prometheus.Labels{pathLabelKey: path}).Inc()
}
