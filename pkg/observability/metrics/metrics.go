package metrics

import (
	"fmt"
	"net/http"
	"sync/atomic"
)

var (
	predictionsTotal    atomic.Int64
	predictionFailures  atomic.Int64
	conditionFailures   atomic.Int64
	invalidProfiles     atomic.Int64
	resultCacheHits     atomic.Int64
	resultCacheMisses   atomic.Int64
	predictionLatencyMs atomic.Int64
)

func Init() {}

func ObservePrediction(latencyMs int64, failedConditions int) {
	predictionsTotal.Add(1)
	conditionFailures.Add(int64(failedConditions))
	predictionLatencyMs.Store(latencyMs)
}

func ObservePredictionFailure() {
	predictionFailures.Add(1)
}

func ObserveInvalidProfile() {
	invalidProfiles.Add(1)
}

func ObserveCache(hit bool) {
	if hit {
		resultCacheHits.Add(1)
	} else {
		resultCacheMisses.Add(1)
	}
}

func WritePrometheus(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	fmt.Fprintf(w, "# HELP nutriscan_predictions_total Number of prediction requests completed.\n")
	fmt.Fprintf(w, "# TYPE nutriscan_predictions_total counter\n")
	fmt.Fprintf(w, "nutriscan_predictions_total %d\n", predictionsTotal.Load())

	fmt.Fprintf(w, "# HELP nutriscan_prediction_failures_total Number of prediction requests that failed entirely.\n")
	fmt.Fprintf(w, "# TYPE nutriscan_prediction_failures_total counter\n")
	fmt.Fprintf(w, "nutriscan_prediction_failures_total %d\n", predictionFailures.Load())

	fmt.Fprintf(w, "# HELP nutriscan_condition_failures_total Number of per-condition error markers returned.\n")
	fmt.Fprintf(w, "# TYPE nutriscan_condition_failures_total counter\n")
	fmt.Fprintf(w, "nutriscan_condition_failures_total %d\n", conditionFailures.Load())

	fmt.Fprintf(w, "# HELP nutriscan_invalid_profiles_total Number of requests rejected for out-of-range profile values.\n")
	fmt.Fprintf(w, "# TYPE nutriscan_invalid_profiles_total counter\n")
	fmt.Fprintf(w, "nutriscan_invalid_profiles_total %d\n", invalidProfiles.Load())

	fmt.Fprintf(w, "# HELP nutriscan_result_cache_hits_total Number of predictions served from the result cache.\n")
	fmt.Fprintf(w, "# TYPE nutriscan_result_cache_hits_total counter\n")
	fmt.Fprintf(w, "nutriscan_result_cache_hits_total %d\n", resultCacheHits.Load())

	fmt.Fprintf(w, "# HELP nutriscan_result_cache_misses_total Number of predictions computed after a cache miss.\n")
	fmt.Fprintf(w, "# TYPE nutriscan_result_cache_misses_total counter\n")
	fmt.Fprintf(w, "nutriscan_result_cache_misses_total %d\n", resultCacheMisses.Load())

	fmt.Fprintf(w, "# HELP nutriscan_prediction_latency_ms Latency of the most recent prediction in milliseconds.\n")
	fmt.Fprintf(w, "# TYPE nutriscan_prediction_latency_ms gauge\n")
	fmt.Fprintf(w, "nutriscan_prediction_latency_ms %d\n", predictionLatencyMs.Load())
}
