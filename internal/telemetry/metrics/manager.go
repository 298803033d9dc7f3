package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Manager struct {
	// counters
	CounterRequests            *prometheus.CounterVec
	CounterHandleRequestPanic  prometheus.Counter
	CounterRateLimitedRequests prometheus.Counter
	CounterIngestions          prometheus.Counter
	CounterReplayedIngestions  prometheus.Counter
	CounterRejectedPayloads    *prometheus.CounterVec
	CounterManualActivities    prometheus.Counter
	CounterWeightUpdates       prometheus.Counter
	CounterScheduledWorkouts   prometheus.Counter
	CounterStorageErrors       *prometheus.CounterVec

	// gauges
	GaugeRequests      prometheus.Gauge
	GaugeLifeSignal    prometheus.Gauge
	GaugeCurrentStreak prometheus.Gauge

	// histograms
	HistogramRequestDuration   *prometheus.HistogramVec
	HistogramIngestionDuration prometheus.Histogram
}

func NewTestManager() *Manager {
	return NewManager("backend", "test_server", prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("backend", "test_server", reg), reg
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	counterRequests := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request",
		Help:      "The total number of incoming requests",
	}, []string{"method", "status"})
	counterHandleRequestPanic := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "handle_request_panic",
		Help:      "The total number of serve request panics",
	})
	counterRateLimitedRequests := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "rate_limited_requests",
		Help:      "The total number of rate limited requests",
	})
	counterIngestions := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "analysis_ingestions",
		Help:      "The total number of analysis results folded into the profile",
	})
	counterReplayedIngestions := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "replayed_ingestions",
		Help:      "The total number of retried ingestions answered with an already stored session",
	})
	counterRejectedPayloads := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "rejected_payloads",
		Help:      "The total number of rejected analysis payloads and manual entries",
	}, []string{"kind"})
	counterManualActivities := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "manual_activities",
		Help:      "The total number of logged manual activities",
	})
	counterWeightUpdates := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "weight_updates",
		Help:      "The total number of weight updates",
	})
	counterScheduledWorkouts := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "scheduled_workouts",
		Help:      "The total number of scheduled workouts",
	})
	counterStorageErrors := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "storage_errors",
		Help:      "The total number of failed persistence operations",
	}, []string{"op"})

	gaugeRequests := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "current_requests",
		Help:      "Current number of requests served",
	})
	gaugeLifeSignal := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "life_signal",
		Help:      "Shows whether the service is alive",
	})
	gaugeCurrentStreak := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "current_streak_days",
		Help:      "Activity streak of the profile, in days",
	})

	histogramRequestDuration := factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request_duration_seconds",
		Help:      "Histogram of response time for requests in seconds",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"route", "method", "status_code"})
	histogramIngestionDuration := factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "ingestion_duration_seconds",
		Help:      "Duration of validating and persisting one analysis result",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	})

	return &Manager{
		CounterRequests:            counterRequests,
		CounterHandleRequestPanic:  counterHandleRequestPanic,
		CounterRateLimitedRequests: counterRateLimitedRequests,
		CounterIngestions:          counterIngestions,
		CounterReplayedIngestions:  counterReplayedIngestions,
		CounterRejectedPayloads:    counterRejectedPayloads,
		CounterManualActivities:    counterManualActivities,
		CounterWeightUpdates:       counterWeightUpdates,
		CounterScheduledWorkouts:   counterScheduledWorkouts,
		CounterStorageErrors:       counterStorageErrors,
		GaugeRequests:              gaugeRequests,
		GaugeLifeSignal:            gaugeLifeSignal,
		GaugeCurrentStreak:         gaugeCurrentStreak,
		HistogramRequestDuration:   histogramRequestDuration,
		HistogramIngestionDuration: histogramIngestionDuration,
	}
}
