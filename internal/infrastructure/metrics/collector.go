// Package metrics expone métricas Prometheus del proceso de cobranza.
package metrics

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/Cobranza-api/internal/application/collections"
	"github.com/jhoicas/Cobranza-api/internal/domain/entity"
)

// Nombres de métricas.
const (
	MetricRunsTotal           = "cobranza_runs_total"
	MetricLinesProcessedTotal = "cobranza_lines_processed_total"
	MetricRunDurationSeconds  = "cobranza_run_duration_seconds"
	MetricLastRunTimestamp    = "cobranza_last_run_timestamp_seconds"
)

var _ collections.Recorder = (*Collector)(nil)

// Collector implementa collections.Recorder sobre un registry propio.
type Collector struct {
	registry       *prometheus.Registry
	runsTotal      *prometheus.CounterVec
	linesProcessed *prometheus.CounterVec
	runDuration    prometheus.Histogram
	lastRun        prometheus.Gauge
}

// NewCollector registra las métricas; withRuntime agrega las de proceso y Go.
func NewCollector(withRuntime bool) *Collector {
	reg := prometheus.NewRegistry()
	c := &Collector{
		registry: reg,
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricRunsTotal,
			Help: "Corridas de control de morosidad por resultado.",
		}, []string{"outcome"}),
		linesProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricLinesProcessedTotal,
			Help: "Líneas procesadas por resultado y acción tomada.",
		}, []string{"outcome", "action"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricRunDurationSeconds,
			Help:    "Duración de las corridas ejecutadas.",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 300},
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricLastRunTimestamp,
			Help: "Instante (unix) de la última corrida ejecutada.",
		}),
	}
	reg.MustRegister(c.runsTotal, c.linesProcessed, c.runDuration, c.lastRun)
	if withRuntime {
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	return c
}

func (c *Collector) LineProcessed(status entity.LogStatus, action entity.CollectionAction) {
	c.linesProcessed.WithLabelValues(string(status), string(action)).Inc()
}

// RunFinished cuenta toda corrida; duración y timestamp sólo para las que llegaron a ejecutarse.
func (c *Collector) RunFinished(outcome collections.TaskStatus, duration time.Duration, runAt time.Time) {
	c.runsTotal.WithLabelValues(string(outcome)).Inc()
	if outcome == collections.TaskSkipped || duration <= 0 {
		return
	}
	c.runDuration.Observe(duration.Seconds())
	c.lastRun.Set(float64(runAt.Unix()))
}

// Registry expone el registry (tests y exporters adicionales).
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler handler Fiber del endpoint de scrape.
func (c *Collector) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{}))
}
