package metrics

import "github.com/prometheus/client_golang/prometheus"

func registerVersionMetric(r prometheus.Registerer, namespace string, version string) {
	g := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "version",
		Help:      "Application version",
		ConstLabels: prometheus.Labels{
			"version": version,
		},
	})

	r.MustRegister(g)
	g.Set(1)
}
