package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	RowsProcessed  *prometheus.CounterVec
	APIErrors      prometheus.Counter
	RequestSeconds *prometheus.HistogramVec
	CacheHits      *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		RowsProcessed: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "enrichment_rows_processed_total",
			Help: "Total number of table rows processed, by outcome.",
		}, []string{"status"}),
		APIErrors: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "enrichment_provider_api_errors_total",
			Help: "Total number of errors received from the geolocation provider APIs.",
		}),
		RequestSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "enrichment_provider_request_duration_seconds",
			Help:    "Duration of requests to the geolocation provider APIs.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
		CacheHits: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "enrichment_cache_hits_total",
			Help: "Total number of coordinate lookups served from the per-run cache.",
		}, []string{"provider"}),
	}
}
