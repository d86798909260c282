package worker

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 自动排班任务的 prometheus 指标
type Metrics struct {
	registry     *prometheus.Registry
	handler      http.Handler
	jobsTotal    *prometheus.CounterVec
	jobDuration  prometheus.Histogram
	bestScore    prometheus.Histogram
	iterations   prometheus.Histogram
	stoppedEarly prometheus.Counter
	running      prometheus.Gauge
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	jobsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "roster_generation_jobs_total",
		Help: "自动排班任务数",
	}, []string{"status"})

	jobDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "roster_generation_duration_seconds",
		Help:    "自动排班任务耗时",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
	})

	bestScore := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "roster_generation_best_score",
		Help:    "自动排班最优解的分数",
		Buckets: prometheus.ExponentialBuckets(1000, 4, 10),
	})

	iterations := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "roster_generation_iterations",
		Help:    "模拟退火实际迭代次数",
		Buckets: prometheus.LinearBuckets(25000, 25000, 6),
	})

	stoppedEarly := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "roster_generation_stopped_early_total",
		Help: "因超时提前结束的自动排班任务数",
	})

	running := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "roster_generation_running",
		Help: "正在执行的自动排班任务数",
	})

	registry.MustRegister(jobsTotal, jobDuration, bestScore, iterations, stoppedEarly, running)

	return &Metrics{
		registry:     registry,
		handler:      promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		jobsTotal:    jobsTotal,
		jobDuration:  jobDuration,
		bestScore:    bestScore,
		iterations:   iterations,
		stoppedEarly: stoppedEarly,
		running:      running,
	}
}

func (m *Metrics) Handler() http.Handler {
	return m.handler
}
