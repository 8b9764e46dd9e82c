package services

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	"github.com/lac-hong-legacy/ido_api/dto"
	"github.com/lac-hong-legacy/ido_api/model"
	"github.com/lac-hong-legacy/ido_api/shared"
	"github.com/rs/zerolog/log"
)

const RATE_LIMIT_SVC = "rate_limit_svc"

type KeyStrategy string

const (
	KeyByIP      KeyStrategy = "ip"
	KeyByUser    KeyStrategy = "user"
	KeyByIPRoute KeyStrategy = "ip+route"
)

const (
	PolicyGlobal = "global"
	PolicyStrict = "strict"
	PolicyUser   = "user"
	PolicyRoute  = "route"

	// stored windows outlive the window itself by this many seconds
	windowTTLBuffer = 10
)

// RateLimitPolicy describes one fixed-window limit.
type RateLimitPolicy struct {
	Name          string
	Prefix        string
	MaxRequests   int
	WindowSeconds int64
	KeyStrategy   KeyStrategy
}

func (p RateLimitPolicy) validate() error {
	if p.MaxRequests <= 0 {
		return fmt.Errorf("rate limit policy %q: max requests must be positive, got %d", p.Name, p.MaxRequests)
	}
	if p.WindowSeconds <= 0 {
		return fmt.Errorf("rate limit policy %q: window must be positive, got %ds", p.Name, p.WindowSeconds)
	}
	return nil
}

// Key builds the counter store key for the request. User keys are scoped to
// the route so each route keeps its own budget.
func (p RateLimitPolicy) Key(c *fiber.Ctx) string {
	ip := shared.ClientIP(c)

	switch p.KeyStrategy {
	case KeyByUser:
		subject := ip
		if userID, ok := c.Locals(shared.UserID).(string); ok && userID != "" {
			subject = userID
		}
		return fmt.Sprintf("%s:%s:%s:%s", p.Prefix, subject, c.Method(), c.Path())
	case KeyByIP:
		return fmt.Sprintf("%s:%s", p.Prefix, ip)
	default:
		return fmt.Sprintf("%s:%s:%s:%s", p.Prefix, ip, c.Method(), c.Path())
	}
}

// RateLimitService enforces fixed-window request limits backed by the counter store.
//
// Check reads the stored window and writes the incremented one without a
// compare-and-set, so concurrent requests for the same key can both be admitted
// with the last write winning. Store failures admit the request.
type RateLimitService struct {
	appContext.DefaultService

	store  CounterStore
	sink   EventSink
	now    func() time.Time
	global RateLimitPolicy
}

func (svc RateLimitService) Id() string {
	return RATE_LIMIT_SVC
}

// NewRateLimitService builds a limiter outside the service container.
func NewRateLimitService(store CounterStore, sink EventSink, global RateLimitPolicy, now func() time.Time) *RateLimitService {
	if sink == nil {
		sink = discardSink{}
	}
	if now == nil {
		now = time.Now
	}
	return &RateLimitService{store: store, sink: sink, now: now, global: global}
}

func (svc *RateLimitService) Configure(ctx *appContext.Context) error {
	cfg := ctx.Service(CONFIG_SVC).(*ConfigService).Config()

	svc.global = RateLimitPolicy{
		Name:          PolicyGlobal,
		Prefix:        "rate_limit",
		MaxRequests:   cfg.RateLimitRequests,
		WindowSeconds: cfg.RateLimitWindow,
		KeyStrategy:   KeyByIPRoute,
	}
	svc.now = time.Now

	return svc.DefaultService.Configure(ctx)
}

func (svc *RateLimitService) Start() error {
	svc.store = svc.Service(REDIS_SVC).(*RedisService)
	svc.sink = svc.Service(ANALYTICS_SVC).(*AnalyticsService)

	log.Info().
		Int("max_requests", svc.global.MaxRequests).
		Int64("window_seconds", svc.global.WindowSeconds).
		Msg("Rate limiter configured")
	return nil
}

// ==================== CORE RATE LIMITING LOGIC ====================

// Check counts one request against key under policy. A non-nil error means the
// decision could not be made and the caller should admit the request.
func (svc *RateLimitService) Check(ctx context.Context, policy RateLimitPolicy, key string) (*dto.RateLimitInfo, error) {
	if err := policy.validate(); err != nil {
		return nil, err
	}

	now := svc.now().Unix()
	ws := policy.WindowSeconds
	windowStart := (now / ws) * ws

	raw, err := svc.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read window: %w", err)
	}

	window := model.RateLimitWindow{Count: 1, WindowStart: windowStart, ResetTime: windowStart + ws}
	if raw != "" {
		var stored model.RateLimitWindow
		if err := shared.JSONAPI.UnmarshalFromString(raw, &stored); err != nil {
			return nil, fmt.Errorf("decode window: %w", err)
		}
		if stored.WindowStart >= windowStart {
			window = stored
			window.Count++
		}
	}

	info := &dto.RateLimitInfo{
		Limit:     policy.MaxRequests,
		ResetTime: window.ResetTime,
		Count:     window.Count,
	}

	if window.Count > policy.MaxRequests {
		info.Allowed = false
		info.Remaining = 0
		info.RetryAfter = window.ResetTime - now
		return info, nil
	}

	ttl := time.Duration(ws+windowTTLBuffer) * time.Second
	if err := svc.store.Set(ctx, key, window, ttl); err != nil {
		return nil, fmt.Errorf("write window: %w", err)
	}

	info.Allowed = true
	info.Remaining = max(0, policy.MaxRequests-window.Count)
	return info, nil
}

// ResetRateLimit forgets the stored window for key.
func (svc *RateLimitService) ResetRateLimit(ctx context.Context, key string) error {
	return svc.store.Delete(ctx, key)
}

// ==================== MIDDLEWARE FUNCTIONS ====================

// Limit enforces policy on every request passing through the handler.
// It panics at route registration when the policy has no positive limit or window.
func (svc *RateLimitService) Limit(policy RateLimitPolicy) fiber.Handler {
	if err := policy.validate(); err != nil {
		panic(err)
	}

	return func(c *fiber.Ctx) error {
		key := policy.Key(c)

		info, err := svc.Check(c.UserContext(), policy, key)
		if err != nil {
			log.Warn().Err(err).Str("policy", policy.Name).Str("key", key).Msg("Rate limit check error")
			rateLimitDecisionsTotal.WithLabelValues(policy.Name, "error").Inc()
			return c.Next()
		}

		svc.addRateLimitHeaders(c, info)

		if !info.Allowed {
			rateLimitDecisionsTotal.WithLabelValues(policy.Name, "rejected").Inc()
			svc.sink.WriteDataPoint(model.AnalyticsEvent{
				Name:    "rate-limit-exceeded",
				Blobs:   []string{"rate-limit-exceeded", shared.ClientIP(c), shared.UserAgent(c), c.Path()},
				Doubles: []float64{float64(svc.now().Unix()), float64(info.Count)},
				Indexes: []string{"rate-limit"},
			})
			return svc.handleRateLimitExceeded(c, policy, info)
		}

		rateLimitDecisionsTotal.WithLabelValues(policy.Name, "allowed").Inc()
		svc.sink.WriteDataPoint(model.AnalyticsEvent{
			Name:    "request",
			Blobs:   []string{"request", shared.ClientIP(c), shared.UserAgent(c), c.Method(), c.Path()},
			Doubles: []float64{float64(svc.now().Unix()), float64(info.Count)},
			Indexes: []string{"request"},
		})

		return c.Next()
	}
}

// GlobalRateLimit applies the configured per-client, per-route limit.
func (svc *RateLimitService) GlobalRateLimit() fiber.Handler {
	return svc.Limit(svc.global)
}

// StrictRateLimit applies a tighter per-client, per-route limit to sensitive endpoints.
func (svc *RateLimitService) StrictRateLimit(maxRequests int, windowSeconds int64) fiber.Handler {
	return svc.Limit(RateLimitPolicy{
		Name:          PolicyStrict,
		Prefix:        "strict_rate_limit",
		MaxRequests:   maxRequests,
		WindowSeconds: windowSeconds,
		KeyStrategy:   KeyByIPRoute,
	})
}

// UserRateLimit limits the authenticated user on one route, or the client IP for anonymous callers.
func (svc *RateLimitService) UserRateLimit(maxRequests int, windowSeconds int64) fiber.Handler {
	return svc.Limit(RateLimitPolicy{
		Name:          PolicyUser,
		Prefix:        "user_rate_limit",
		MaxRequests:   maxRequests,
		WindowSeconds: windowSeconds,
		KeyStrategy:   KeyByUser,
	})
}

// RouteRateLimit gives a single route its own per-client budget on top of the global one.
func (svc *RateLimitService) RouteRateLimit(maxRequests int, windowSeconds int64) fiber.Handler {
	return svc.Limit(RateLimitPolicy{
		Name:          PolicyRoute,
		Prefix:        "route_rate_limit",
		MaxRequests:   maxRequests,
		WindowSeconds: windowSeconds,
		KeyStrategy:   KeyByIPRoute,
	})
}

// ==================== HELPER FUNCTIONS ====================

func (svc *RateLimitService) addRateLimitHeaders(c *fiber.Ctx, info *dto.RateLimitInfo) {
	c.Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
	c.Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
	c.Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime, 10))

	if !info.Allowed {
		c.Set("Retry-After", strconv.FormatInt(info.RetryAfter, 10))
	}
}

func (svc *RateLimitService) handleRateLimitExceeded(c *fiber.Ctx, policy RateLimitPolicy, info *dto.RateLimitInfo) error {
	return c.Status(http.StatusTooManyRequests).JSON(dto.RateLimitExceededResponse{
		Error:      "Rate Limit Exceeded",
		Message:    fmt.Sprintf("Too many requests. Limit: %d requests per %d seconds", policy.MaxRequests, policy.WindowSeconds),
		RetryAfter: info.RetryAfter,
		Timestamp:  svc.now().UTC().Format(time.RFC3339),
	})
}

// ==================== ADMIN FUNCTIONS ====================

// GetRateLimitStats reports the global policy and the analytics decision totals.
func (svc *RateLimitService) GetRateLimitStats(totals func(ctx context.Context) (map[string]string, error)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		counters, err := totals(c.UserContext())
		if err != nil {
			return shared.NewInternalError(err, "Failed to read rate limit statistics")
		}

		return shared.ResponseJSON(c, http.StatusOK, "Rate limit statistics", fiber.Map{
			"global": fiber.Map{
				"max_requests":   svc.global.MaxRequests,
				"window_seconds": svc.global.WindowSeconds,
			},
			"totals":    counters,
			"timestamp": shared.Timestamp(),
		})
	}
}
