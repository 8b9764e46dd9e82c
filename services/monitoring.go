package services

import (
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/lac-hong-legacy/ido_api/shared"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const (
	MONITORING_SVC = "monitoring_svc"
	SERVICE_NAME   = "ido_api"
)

var latencyBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}

// HTTP metrics, labelled by route pattern rather than raw path.
var (
	httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route, method and status.",
	}, []string{"endpoint", "method", "status"})

	httpRequestsFailedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Subsystem: "http",
		Name:      "requests_failed_total",
		Help:      "HTTP requests answered with 4xx or 5xx.",
	}, []string{"endpoint", "method"})

	httpRequestsActive = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Subsystem: "http",
		Name:      "requests_active",
		Help:      "In-flight HTTP requests.",
	}, []string{"method"})

	httpRequestDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds.",
		Buckets:   latencyBuckets,
	}, []string{"endpoint", "method", "status"})
)

// Domain metrics
var (
	rateLimitDecisionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rate_limit_decisions_total",
		Help: "Rate limiter outcomes (allowed, rejected, error) per policy.",
	}, []string{"policy", "decision"})

	idoInvestmentsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ido_investments_total",
		Help: "Admitted IDO investments by payment method.",
	}, []string{"payment_method"})

	idoAdmissionRejectionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ido_admission_rejections_total",
		Help: "IDO investments refused at admission, by reason.",
	}, []string{"reason"})

	analyticsEventsDroppedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "analytics_events_dropped_total",
		Help: "Analytics events dropped because the sink buffer was full.",
	})
)

type MonitoringService struct {
	context.DefaultService

	port     int
	registry *prometheus.Registry
	server   *fiber.App
}

func (svc MonitoringService) Id() string {
	return MONITORING_SVC
}

func (svc *MonitoringService) Configure(ctx *context.Context) error {
	svc.port = ctx.Service(CONFIG_SVC).(*ConfigService).Config().PrometheusPort

	return svc.DefaultService.Configure(ctx)
}

// Start serves /metrics on the Prometheus port in the background. The API
// listener is separate so scrapes are never rate limited.
func (svc *MonitoringService) Start() error {
	svc.registry = newRegistry()

	svc.server = fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusInternalServerError).SendString("Internal Server Error")
		},
	})
	svc.server.Use(recover.New())
	svc.server.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(svc.registry, promhttp.HandlerOpts{})))
	svc.server.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "healthy",
			"service":   SERVICE_NAME,
			"timestamp": time.Now().Unix(),
		})
	})

	go func() {
		if err := svc.server.Listen(fmt.Sprintf(":%v", svc.port)); err != nil {
			log.Error().Err(err).Msg("Prometheus metrics server stopped")
		}
	}()

	log.Info().Int("port", svc.port).Msg("Prometheus metrics server started")
	return nil
}

func (svc *MonitoringService) Shutdown() {
	if svc.server != nil {
		_ = svc.server.Shutdown()
	}
}

func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),

		httpRequestsTotal,
		httpRequestsFailedTotal,
		httpRequestsActive,
		httpRequestDurationSeconds,

		rateLimitDecisionsTotal,
		idoInvestmentsTotal,
		idoAdmissionRejectionsTotal,
		analyticsEventsDroppedTotal,

		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "heap_alloc_bytes",
			Help: "Heap bytes allocated and still in use.",
		}, func() float64 {
			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			return float64(m.HeapAlloc)
		}),
	)
	return reg
}

func (svc *MonitoringService) RecordRequest(method, endpoint string, status int, duration time.Duration) {
	code := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(endpoint, method, code).Inc()
	httpRequestDurationSeconds.WithLabelValues(endpoint, method, code).Observe(duration.Seconds())

	if status >= fiber.StatusBadRequest {
		httpRequestsFailedTotal.WithLabelValues(endpoint, method).Inc()
	}
}

// MonitoringMiddleware records request count, latency and failures per route pattern.
func MonitoringMiddleware(monitoringSvc *MonitoringService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		method := c.Method()

		httpRequestsActive.WithLabelValues(method).Inc()
		defer httpRequestsActive.WithLabelValues(method).Dec()

		err := c.Next()

		// the matched route is only known once the chain has run
		monitoringSvc.RecordRequest(method, c.Route().Path, responseStatus(c, err), time.Since(start))
		return err
	}
}

// responseStatus is the status the error handler will write for err.
func responseStatus(c *fiber.Ctx, err error) int {
	if err == nil {
		return c.Response().StatusCode()
	}
	if appErr, ok := shared.GetAppError(err); ok {
		return appErr.StatusCode
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return fiber.StatusInternalServerError
}
