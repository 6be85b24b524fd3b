package web

import "github.com/prometheus/client_golang/prometheus"

var (
	submitCodeRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "online_judge_evaluator",
			Subsystem: "submission",
			Name:      "submit_code_requests_total",
			Help:      "SubmitCode requests total.",
		},
		[]string{"code", "reason"},
	)
	submitCodeDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "online_judge_evaluator",
			Subsystem: "submission",
			Name:      "submit_code_duration_seconds",
			Help:      "SubmitCode duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"code", "reason"},
	)
	runCodeRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "online_judge_evaluator",
			Subsystem: "submission",
			Name:      "run_code_requests_total",
			Help:      "RunCode requests total.",
		},
		[]string{"code", "reason"},
	)
	runCodeDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "online_judge_evaluator",
			Subsystem: "submission",
			Name:      "run_code_duration_seconds",
			Help:      "RunCode duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"code", "reason"},
	)
)

func init() {
	prometheus.MustRegister(
		submitCodeRequestsTotal,
		submitCodeDurationSeconds,
		runCodeRequestsTotal,
		runCodeDurationSeconds,
	)
}
