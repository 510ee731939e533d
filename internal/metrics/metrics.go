// Package metrics 端点的 Prometheus 指标
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "plugin_endpoints"

var (
	// Downloads 下载接口的处理结果, outcome 见 api 包的 outcome 常量
	Downloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "downloads_total",
		Help:      "Download requests by outcome.",
	}, []string{"outcome"})

	DownloadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "download_duration_seconds",
		Help:      "Time spent handling a download request.",
		Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
	})

	ArchivesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "archives_created_total",
		Help:      "Archives packaged from installed plugins.",
	})

	ArchivesSwept = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "archives_swept_total",
		Help:      "Expired archives removed by the retention sweep.",
	})
)
