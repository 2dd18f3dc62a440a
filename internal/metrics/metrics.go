package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "player",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests by method, path and status code.",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "player",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds.",
		Buckets:   []float64{0.05, 0.1, 0.3, 0.5, 1, 2, 5, 10, 30},
	}, []string{"method", "path"})

	ActiveSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "player",
		Name:      "active_sessions",
		Help:      "Number of currently mounted playback sessions.",
	})

	EngineInitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "player",
		Name:      "engine_inits_total",
		Help:      "Total streaming engine initializations by playback path.",
	}, []string{"path"})

	PlaybackErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "player",
		Name:      "playback_errors_total",
		Help:      "Total terminal playback errors by class.",
	}, []string{"class"})

	SubtitleOpsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "player",
		Name:      "subtitle_operations_total",
		Help:      "Total subtitle translate/synchronize operations by outcome.",
	}, []string{"operation", "outcome"})

	SubtitleTracksAdded = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "player",
		Name:      "subtitle_tracks_added_total",
		Help:      "Total subtitle tracks added by origin.",
	}, []string{"origin"})

	UpNextNavigationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "player",
		Name:      "upnext_navigations_total",
		Help:      "Total automatic navigations triggered by the up-next countdown.",
	})

	ProgressSavesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "player",
		Name:      "progress_saves_total",
		Help:      "Total playback progress persistence attempts by outcome.",
	}, []string{"outcome"})

	ActionsAppliedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "player",
		Name:      "actions_applied_total",
		Help:      "Total actions applied to session state machines.",
	})
)

func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		ActiveSessions,
		EngineInitsTotal,
		PlaybackErrorsTotal,
		SubtitleOpsTotal,
		SubtitleTracksAdded,
		UpNextNavigationsTotal,
		ProgressSavesTotal,
		ActionsAppliedTotal,
	)
}
