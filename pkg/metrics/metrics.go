// Package metrics 定义建模与打分链路的 Prometheus 指标。
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// 建模
	ModelBuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "itemcf_model_build_duration_seconds",
			Help:    "Duration of item-item similarity model builds in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		},
	)

	ModelItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "itemcf_model_items",
			Help: "Number of items in the most recently built model",
		},
	)

	ModelNeighbors = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "itemcf_model_neighbor_entries",
			Help: "Number of retained positive-similarity neighbor entries in the most recently built model",
		},
	)

	ModelZeroVarianceItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "itemcf_model_zero_variance_items",
			Help: "Number of items whose centered rating vector has zero norm",
		},
	)

	// 打分
	Predictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "itemcf_predictions_total",
			Help: "Total number of target items scored, by outcome",
		},
		[]string{"outcome"}, // "defined", "undefined"
	)

	SkippedRatings = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "itemcf_skipped_ratings_total",
			Help: "User ratings skipped during centering because the item has no mean in the model",
		},
	)

	// Pipeline
	NodeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "itemcf_pipeline_node_duration_seconds",
			Help:    "Duration of pipeline node processing in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"node", "kind"},
	)

	NodeErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "itemcf_pipeline_node_errors_total",
			Help: "Total number of pipeline node failures",
		},
		[]string{"node", "kind"},
	)
)

const (
	OutcomeDefined   = "defined"
	OutcomeUndefined = "undefined"
)

// RecordModelBuild 记录一次建模的耗时与规模。
func RecordModelBuild(d time.Duration, items, neighbors, zeroVariance int) {
	ModelBuildDuration.Observe(d.Seconds())
	ModelItems.Set(float64(items))
	ModelNeighbors.Set(float64(neighbors))
	ModelZeroVarianceItems.Set(float64(zeroVariance))
}

// RecordPredictions 记录一次打分请求的结果分布。
func RecordPredictions(defined, undefined, skipped int) {
	Predictions.WithLabelValues(OutcomeDefined).Add(float64(defined))
	Predictions.WithLabelValues(OutcomeUndefined).Add(float64(undefined))
	SkippedRatings.Add(float64(skipped))
}

// RecordNode 记录 Pipeline 节点耗时。
func RecordNode(node, kind string, d time.Duration, err error) {
	NodeDuration.WithLabelValues(node, kind).Observe(d.Seconds())
	if err != nil {
		NodeErrors.WithLabelValues(node, kind).Inc()
	}
}
