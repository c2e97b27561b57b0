package metrics

import (
	"github.com/nspcc-dev/dirstore/misc"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "dirstore"

// pathLabelKey is a label of the storage directory.
const pathLabelKey = "path"

// StorageMetrics groups metrics of directory storages. Single instance
// serves any number of storages distinguished by their path.
type StorageMetrics struct {
	dirStorageMetrics
	safetyMetrics
}

// NewStorageMetrics creates storage metrics and registers them in r.
func NewStorageMetrics(r prometheus.Registerer) *StorageMetrics {
	dirStorage := newDirStorageMetrics()
	dirStorage.register(r)

	safety := newSafetyMetrics()
	safety.register(r)

	registerVersionMetric(r, namespace, misc.Version)

	return &StorageMetrics{
		dirStorageMetrics: dirStorage,
		safetyMetrics:     safety,
	}
}
