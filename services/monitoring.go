package services

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/Fababum/portfolio/shared"
	"github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const (
	MONITORING_SVC          = "monitoring_svc"
	SERVICE_NAME            = "portfolio_api"
	DEFAULT_PROMETHEUS_PORT = 2112
)

// HTTP Metrics
var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"endpoint", "method", "status"},
	)

	httpRequestsActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "http_requests_active",
			Help: "Number of active concurrent HTTP requests",
		},
		[]string{"method"},
	)

	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"endpoint", "method", "status"},
	)
)

// Domain Metrics
var (
	rateLimitRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_rejections_total",
			Help: "Requests rejected by a rate limit bucket",
		},
		[]string{"bucket"},
	)

	sessionValidationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admin_session_validations_total",
			Help: "Admin session validations by result",
		},
		[]string{"result"},
	)

	loginAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admin_login_attempts_total",
			Help: "Admin login attempts by result",
		},
		[]string{"result"},
	)

	visitsTrackedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "visits_tracked_total",
			Help: "Visit tracking requests by result",
		},
		[]string{"result"},
	)

	chatRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_requests_total",
			Help: "Chat proxy requests by outcome",
		},
		[]string{"outcome"},
	)

	chatProviderDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chat_provider_duration_seconds",
			Help:    "Latency of generative provider calls",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 16, 30},
		},
	)

	// 0 = closed, 1 = half-open, 2 = open
	circuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state per upstream",
		},
		[]string{"name"},
	)
)

// System Metrics
var (
	heapAllocBytes = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "heap_alloc_bytes",
			Help: "Heap memory allocated in bytes",
		},
	)

	gcTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gc_total",
			Help: "Total number of garbage collections",
		},
	)
)

type MonitoringService struct {
	context.DefaultService

	port     int
	register *prometheus.Registry

	closed      chan struct{}
	server      *fiber.App
	lastGCCount uint32
}

func (svc MonitoringService) Id() string {
	return MONITORING_SVC
}

func (svc *MonitoringService) Configure(ctx *context.Context) error {
	port, err := strconv.Atoi(os.Getenv("PROMETHEUS_PORT"))
	if err != nil {
		port = DEFAULT_PROMETHEUS_PORT
	}
	svc.port = port
	return svc.DefaultService.Configure(ctx)
}

func (svc *MonitoringService) Start() error {
	svc.closed = make(chan struct{}, 1)
	svc.register = NewMetricsRegistry()

	go svc.updateMemoryMetrics()

	svc.server = fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusInternalServerError).SendString("Internal Server Error")
		},
	})
	svc.server.Use(recover.New())

	svc.server.Get("/metrics", svc.metricsHandler)
	svc.server.Get("/health", svc.healthHandler)

	go func() {
		log.Info().Int("port", svc.port).Msg("Prometheus metrics server started")
		if err := svc.server.Listen(fmt.Sprintf(":%v", svc.port)); err != nil {
			log.Error().Err(err).Msg("Prometheus metrics server stopped")
		}
	}()
	return nil
}

func (svc *MonitoringService) Shutdown() {
	if svc.closed != nil {
		svc.closed <- struct{}{}
	}
	if svc.server != nil {
		_ = svc.server.Shutdown()
	}
}

// NewMetricsRegistry registers the runtime collectors and every service metric.
func NewMetricsRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	reg.MustRegister(
		httpRequestsTotal,
		httpRequestsActive,
		httpRequestDurationSeconds,
		rateLimitRejectionsTotal,
		sessionValidationsTotal,
		loginAttemptsTotal,
		visitsTrackedTotal,
		chatRequestsTotal,
		chatProviderDurationSeconds,
		circuitBreakerState,
		heapAllocBytes,
		gcTotal,
	)
	return reg
}

func (svc *MonitoringService) metricsHandler(c *fiber.Ctx) error {
	handler := promhttp.HandlerFor(svc.register, promhttp.HandlerOpts{})
	return adaptor.HTTPHandler(handler)(c)
}

func (svc *MonitoringService) healthHandler(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":    "healthy",
		"service":   SERVICE_NAME,
		"timestamp": time.Now().Unix(),
	})
}

func (svc *MonitoringService) updateMemoryMetrics() {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			var m runtime.MemStats
			runtime.ReadMemStats(&m)

			heapAllocBytes.Set(float64(m.Alloc))
			if m.NumGC > svc.lastGCCount {
				gcTotal.Add(float64(m.NumGC - svc.lastGCCount))
				svc.lastGCCount = m.NumGC
			}

		case <-svc.closed:
			log.Info().Msg("Memory metrics updater stopped")
			return
		}
	}
}

// MonitoringMiddleware records request count, latency and concurrency per route.
func MonitoringMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		method := c.Method()

		httpRequestsActive.WithLabelValues(method).Inc()
		defer httpRequestsActive.WithLabelValues(method).Dec()

		err := c.Next()

		// Route pattern is only known after routing.
		endpoint := c.Route().Path
		status := c.Response().StatusCode()
		if err != nil {
			if appErr, ok := shared.GetAppError(err); ok {
				status = appErr.StatusCode
			} else if fiberErr, ok := err.(*fiber.Error); ok {
				status = fiberErr.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		statusStr := strconv.Itoa(status)

		httpRequestsTotal.WithLabelValues(endpoint, method, statusStr).Inc()
		httpRequestDurationSeconds.WithLabelValues(endpoint, method, statusStr).Observe(time.Since(start).Seconds())

		return err
	}
}
