package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AnalysisRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sensitivity_analysis_runs_total",
		Help: "Total number of analysis runs, by terminal state",
	}, []string{"state"})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sensitivity_stage_duration_seconds",
		Help:    "Duration of analysis pipeline stages",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300},
	}, []string{"stage"})

	FramesExtractedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sensitivity_frames_extracted_total",
		Help: "Total number of frames extracted across all runs",
	})

	FramesScoredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sensitivity_frames_scored_total",
		Help: "Total number of frames scored across all runs",
	})

	ActiveRuns = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sensitivity_active_runs",
		Help: "Number of analysis runs currently in flight",
	})

	VerdictsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sensitivity_verdicts_total",
		Help: "Total number of verdicts produced, by outcome",
	}, []string{"verdict"})

	VideoUploadsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sensitivity_video_uploads_total",
		Help: "Total number of accepted video uploads",
	})
)
