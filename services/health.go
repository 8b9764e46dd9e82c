package services

import (
	"context"
	"runtime"
	"sync"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/lac-hong-legacy/ido_api/dto"
	"github.com/lac-hong-legacy/ido_api/model"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	HEALTH_SVC = "health_svc"

	API_VERSION = "1.0.0"

	probeTimeout = 5 * time.Second
)

// HealthProbe checks one dependency. Details is optional and only consulted
// by the detailed report.
type HealthProbe struct {
	Name    string
	Check   func(ctx context.Context) error
	Details func() map[string]interface{}
}

type probeResult struct {
	name    string
	err     error
	latency time.Duration
	details map[string]interface{}
}

type HealthService struct {
	appContext.DefaultService

	environment string
	probes      []HealthProbe
	ready       map[string]bool
	sink        EventSink
	startedAt   time.Time
	now         func() time.Time
}

// NewHealthService builds a service over explicit probes. Only probes named in
// readiness are consulted by Ready.
func NewHealthService(environment string, probes []HealthProbe, readiness []string, sink EventSink) *HealthService {
	if sink == nil {
		sink = discardSink{}
	}
	svc := &HealthService{
		environment: environment,
		probes:      probes,
		ready:       make(map[string]bool, len(readiness)),
		sink:        sink,
		startedAt:   time.Now(),
		now:         time.Now,
	}
	for _, name := range readiness {
		svc.ready[name] = true
	}
	return svc
}

func (svc HealthService) Id() string {
	return HEALTH_SVC
}

func (svc *HealthService) Configure(ctx *appContext.Context) error {
	cfg := ctx.Service(CONFIG_SVC).(*ConfigService).Config()
	svc.environment = cfg.Environment
	svc.now = time.Now
	svc.startedAt = time.Now()
	return svc.DefaultService.Configure(ctx)
}

func (svc *HealthService) Start() error {
	db := svc.Service(POSTGRES_SVC).(*PostgresService)
	redisSvc := svc.Service(REDIS_SVC).(*RedisService)
	minioSvc := svc.Service(MINIO_SVC).(*MinIOService)

	svc.probes = []HealthProbe{
		{
			Name:  "database",
			Check: func(context.Context) error { return db.Ping() },
			Details: func() map[string]interface{} {
				sqlDB, err := db.Db().DB()
				if err != nil {
					return nil
				}
				stats := sqlDB.Stats()
				return map[string]interface{}{
					"openConnections": stats.OpenConnections,
					"inUse":           stats.InUse,
					"idle":            stats.Idle,
				}
			},
		},
		{
			Name:  "cache",
			Check: redisSvc.Ping,
			Details: func() map[string]interface{} {
				stats := redisSvc.GetClient().PoolStats()
				return map[string]interface{}{
					"hits":       stats.Hits,
					"misses":     stats.Misses,
					"totalConns": stats.TotalConns,
					"idleConns":  stats.IdleConns,
				}
			},
		},
		{
			Name:  "storage",
			Check: minioSvc.Probe,
			Details: func() map[string]interface{} {
				return map[string]interface{}{"bucket": minioSvc.Bucket()}
			},
		},
	}
	svc.ready = map[string]bool{"database": true, "cache": true}
	svc.sink = svc.Service(ANALYTICS_SVC).(*AnalyticsService)
	return nil
}

// run executes the probes concurrently. A failing probe never cancels the others.
func (svc *HealthService) run(ctx context.Context, filter func(HealthProbe) bool, withDetails bool) []probeResult {
	var (
		mu      sync.Mutex
		results []probeResult
		g       errgroup.Group
	)

	for _, probe := range svc.probes {
		if filter != nil && !filter(probe) {
			continue
		}
		probe := probe
		g.Go(func() error {
			probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
			defer cancel()

			start := time.Now()
			err := probe.Check(probeCtx)
			res := probeResult{name: probe.Name, err: err, latency: time.Since(start)}
			if withDetails && probe.Details != nil {
				res.details = probe.Details()
			}
			if err != nil {
				log.Warn().Err(err).Str("dependency", probe.Name).Msg("Health probe failed")
			}

			mu.Lock()
			results = append(results, res)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func overallStatus(results []probeResult) string {
	for _, r := range results {
		if r.err != nil {
			return dto.HealthStatusUnhealthy
		}
	}
	return dto.HealthStatusHealthy
}

func statusOf(err error) string {
	if err != nil {
		return dto.HealthStatusUnhealthy
	}
	return dto.HealthStatusHealthy
}

// Check is the basic report: one status per dependency.
func (svc *HealthService) Check(ctx context.Context) *dto.HealthResponse {
	start := svc.now()
	results := svc.run(ctx, nil, false)

	services := make(map[string]string, len(results))
	for _, r := range results {
		services[r.name] = statusOf(r.err)
	}

	status := overallStatus(results)
	elapsed := svc.now().Sub(start).Milliseconds()

	svc.sink.WriteDataPoint(model.AnalyticsEvent{
		Name:    "health-check",
		Blobs:   []string{"health-check", status},
		Doubles: []float64{float64(svc.now().UnixMilli()), float64(elapsed)},
		Indexes: []string{"health"},
	})

	return &dto.HealthResponse{
		Status:       status,
		Timestamp:    svc.now().UTC().Format(time.RFC3339),
		Version:      API_VERSION,
		Environment:  svc.environment,
		Services:     services,
		ResponseTime: elapsed,
		Uptime:       int64(svc.now().Sub(svc.startedAt).Seconds()),
	}
}

// Detailed adds per dependency latency, pool statistics and runtime memory stats.
func (svc *HealthService) Detailed(ctx context.Context) *dto.DetailedHealthResponse {
	start := svc.now()
	results := svc.run(ctx, nil, true)
	checkedAt := svc.now().UTC().Format(time.RFC3339)

	services := make(map[string]dto.DependencyHealth, len(results))
	for _, r := range results {
		dep := dto.DependencyHealth{
			Status:      statusOf(r.err),
			LatencyMs:   r.latency.Milliseconds(),
			Details:     r.details,
			LastChecked: checkedAt,
		}
		if r.err != nil {
			dep.Error = r.err.Error()
		}
		services[r.name] = dep
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return &dto.DetailedHealthResponse{
		Status:       overallStatus(results),
		Timestamp:    checkedAt,
		Version:      API_VERSION,
		Environment:  svc.environment,
		ResponseTime: svc.now().Sub(start).Milliseconds(),
		Services:     services,
		System: dto.SystemStats{
			Goroutines: runtime.NumGoroutine(),
			HeapAlloc:  m.HeapAlloc,
			HeapSys:    m.HeapSys,
			NumGC:      m.NumGC,
		},
	}
}

// Ready reports whether the dependencies needed to serve traffic respond.
func (svc *HealthService) Ready(ctx context.Context) *dto.ProbeResponse {
	results := svc.run(ctx, func(p HealthProbe) bool { return svc.ready[p.Name] }, false)

	resp := &dto.ProbeResponse{
		Status:    "ready",
		Timestamp: svc.now().UTC().Format(time.RFC3339),
	}
	for _, r := range results {
		if r.err != nil {
			resp.Status = "not ready"
			resp.Error = r.name + ": " + r.err.Error()
			break
		}
	}
	return resp
}

func (svc *HealthService) Live() *dto.ProbeResponse {
	return &dto.ProbeResponse{
		Status:    "alive",
		Timestamp: svc.now().UTC().Format(time.RFC3339),
		Uptime:    int64(svc.now().Sub(svc.startedAt).Seconds()),
	}
}
