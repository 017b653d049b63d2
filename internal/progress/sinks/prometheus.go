package sinks

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Hiromu1612/tabelog-scraper/internal/progress"
)

// PrometheusSink exports scrape progress metrics. It owns the collectors for
// job lifecycle and per-item extraction outcomes.
type PrometheusSink struct {
	jobsStarted   prometheus.Counter
	jobsCompleted *prometheus.CounterVec
	jobsRunning   prometheus.Gauge
	jobRuntime    *prometheus.HistogramVec
	pagesTotal    prometheus.Counter
	itemsTotal    *prometheus.CounterVec
	itemDuration  prometheus.Histogram
}

// NewPrometheusSink registers the collectors against the provided registry.
func NewPrometheusSink(reg prometheus.Registerer) (*PrometheusSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PrometheusSink{
		jobsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scraper_jobs_started_total",
			Help: "Total scrape jobs that have started.",
		}),
		jobsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scraper_jobs_completed_total",
			Help: "Total scrape jobs completed partitioned by result.",
		}, []string{"result"}),
		jobsRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "scraper_jobs_running",
			Help: "Current number of running scrape jobs (0 or 1).",
		}),
		jobRuntime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "scraper_job_runtime_seconds",
			Help:    "Wall time per completed scrape job.",
			Buckets: []float64{5, 15, 30, 60, 120, 300, 600, 1200, 3600},
		}, []string{"result"}),
		pagesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scraper_pages_total",
			Help: "Total result pages walked.",
		}),
		itemsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scraper_items_total",
			Help: "Total detail pages processed partitioned by outcome.",
		}, []string{"outcome"}),
		itemDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "scraper_item_duration_seconds",
			Help:    "Per-item navigation and extraction latency.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}),
	}
	for _, collector := range []prometheus.Collector{
		s.jobsStarted,
		s.jobsCompleted,
		s.jobsRunning,
		s.jobRuntime,
		s.pagesTotal,
		s.itemsTotal,
		s.itemDuration,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("register progress collector: %w", err)
		}
	}
	return s, nil
}

// Consume updates the collectors for one event.
func (s *PrometheusSink) Consume(_ context.Context, evt progress.Event) error {
	switch evt.Stage {
	case progress.StageJobStart:
		s.jobsStarted.Inc()
		s.jobsRunning.Set(1)
	case progress.StageJobDone, progress.StageJobStop:
		s.jobsCompleted.WithLabelValues("completed").Inc()
		s.jobsRunning.Set(0)
		s.jobRuntime.WithLabelValues("completed").Observe(evt.Dur.Seconds())
	case progress.StageJobError:
		s.jobsCompleted.WithLabelValues("error").Inc()
		s.jobsRunning.Set(0)
		s.jobRuntime.WithLabelValues("error").Observe(evt.Dur.Seconds())
	case progress.StagePageDone:
		s.pagesTotal.Inc()
	case progress.StageItemDone:
		s.itemsTotal.WithLabelValues("ok").Inc()
		s.itemDuration.Observe(evt.Dur.Seconds())
	case progress.StageItemError:
		s.itemsTotal.WithLabelValues("error").Inc()
	}
	return nil
}

// Close implements the Sink interface; it performs no action.
func (s *PrometheusSink) Close(context.Context) error {
	return nil
}
