package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/lac-hong-legacy/ido_api/dto"
	"github.com/lac-hong-legacy/ido_api/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIdoService struct {
	IdoServiceInterface

	admitErr   error
	gotPool    string
	gotUser    string
	gotRequest dto.InvestRequest
	listHit    bool
}

func (f *fakeIdoService) AdmitInvestment(_ context.Context, poolID, userID string, req dto.InvestRequest) (*dto.InvestResponse, error) {
	f.gotPool, f.gotUser, f.gotRequest = poolID, userID, req
	if f.admitErr != nil {
		return nil, f.admitErr
	}
	return &dto.InvestResponse{
		InvestmentID: "inv-1",
		Amount:       req.Amount,
		TokenAmount:  req.Amount.Mul(decimal.NewFromInt(4)),
		Status:       "pending",
		Message:      "Investment submitted successfully",
	}, nil
}

func (f *fakeIdoService) ListPools(context.Context, dto.PoolListQuery, string) (*dto.PoolListResponse, bool, error) {
	return &dto.PoolListResponse{}, f.listHit, nil
}

type fakeHealthService struct {
	status string
}

func (f *fakeHealthService) Check(context.Context) *dto.HealthResponse {
	return &dto.HealthResponse{Status: f.status}
}

func (f *fakeHealthService) Detailed(context.Context) *dto.DetailedHealthResponse {
	return &dto.DetailedHealthResponse{Status: f.status}
}

func (f *fakeHealthService) Ready(context.Context) *dto.ProbeResponse {
	if f.status == dto.HealthStatusHealthy {
		return &dto.ProbeResponse{Status: "ready"}
	}
	return &dto.ProbeResponse{Status: "not ready"}
}

func (f *fakeHealthService) Live() *dto.ProbeResponse {
	return &dto.ProbeResponse{Status: "alive"}
}

func newTestApp() *fiber.App {
	return fiber.New(fiber.Config{ErrorHandler: shared.ErrorHandler(false)})
}

func asUser(userID string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(shared.UserID, userID)
		return c.Next()
	}
}

func decodeBody(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, v))
}

func investRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/pools/pool-1/invest", strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return req
}

func TestInvestCreated(t *testing.T) {
	svc := &fakeIdoService{}
	h := NewIdoHandler(svc)
	app := newTestApp()
	app.Post("/pools/:id/invest", asUser("user-1"), h.Invest)

	resp, err := app.Test(investRequest(`{"amount":50,"paymentMethod":"USDT","walletAddress":"0xabc"}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var out struct {
		Success bool               `json:"success"`
		Code    int                `json:"code"`
		Data    dto.InvestResponse `json:"data"`
	}
	decodeBody(t, resp, &out)
	assert.True(t, out.Success)
	assert.Equal(t, http.StatusCreated, out.Code)
	assert.Equal(t, "inv-1", out.Data.InvestmentID)

	assert.Equal(t, "pool-1", svc.gotPool)
	assert.Equal(t, "user-1", svc.gotUser)
	assert.True(t, svc.gotRequest.Amount.Equal(decimal.NewFromInt(50)))
}

func TestInvestValidationError(t *testing.T) {
	svc := &fakeIdoService{}
	h := NewIdoHandler(svc)
	app := newTestApp()
	app.Post("/pools/:id/invest", asUser("user-1"), h.Invest)

	resp, err := app.Test(investRequest(`{"amount":0}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var out shared.ErrorResponse
	decodeBody(t, resp, &out)
	assert.Equal(t, shared.ErrCodeValidation, out.Code)
	assert.Equal(t, "Validation failed", out.Message)
	assert.Empty(t, svc.gotPool, "service must not be called")
}

func TestInvestMalformedBody(t *testing.T) {
	h := NewIdoHandler(&fakeIdoService{})
	app := newTestApp()
	app.Post("/pools/:id/invest", asUser("user-1"), h.Invest)

	resp, err := app.Test(investRequest(`{"amount":`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var out shared.ErrorResponse
	decodeBody(t, resp, &out)
	assert.Equal(t, "Invalid request body", out.Message)
}

func TestInvestServiceErrorMapsStatus(t *testing.T) {
	svc := &fakeIdoService{admitErr: shared.NewConflictError(errors.New("hard cap"), "Pool hard cap reached")}
	h := NewIdoHandler(svc)
	app := newTestApp()
	app.Post("/pools/:id/invest", asUser("user-1"), h.Invest)

	resp, err := app.Test(investRequest(`{"amount":50,"walletAddress":"0xabc"}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	var out shared.ErrorResponse
	decodeBody(t, resp, &out)
	assert.Equal(t, shared.ErrCodeConflict, out.Code)
	assert.Equal(t, "Pool hard cap reached", out.Message)
}

func TestListPoolsCacheHeader(t *testing.T) {
	for _, tc := range []struct {
		hit  bool
		want string
	}{
		{hit: false, want: shared.CacheMiss},
		{hit: true, want: shared.CacheHit},
	} {
		h := NewIdoHandler(&fakeIdoService{listHit: tc.hit})
		app := newTestApp()
		app.Get("/pools", h.ListPools)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/pools", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, tc.want, resp.Header.Get(shared.HeaderCache))
	}
}

func TestListPoolsRejectsBadQuery(t *testing.T) {
	h := NewIdoHandler(&fakeIdoService{})
	app := newTestApp()
	app.Get("/pools", h.ListPools)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/pools?status=bogus", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHealthStatusCodes(t *testing.T) {
	tests := []struct {
		status string
		path   string
		want   int
	}{
		{dto.HealthStatusHealthy, "/health", http.StatusOK},
		{dto.HealthStatusUnhealthy, "/health", http.StatusServiceUnavailable},
		{dto.HealthStatusUnhealthy, "/health/detailed", http.StatusServiceUnavailable},
		{dto.HealthStatusHealthy, "/health/ready", http.StatusOK},
		{dto.HealthStatusUnhealthy, "/health/ready", http.StatusServiceUnavailable},
		{dto.HealthStatusUnhealthy, "/health/live", http.StatusOK},
	}

	for _, tc := range tests {
		t.Run(tc.status+tc.path, func(t *testing.T) {
			h := NewHealthHandler(&fakeHealthService{status: tc.status})
			app := newTestApp()
			app.Get("/health", h.Health)
			app.Get("/health/detailed", h.Detailed)
			app.Get("/health/ready", h.Ready)
			app.Get("/health/live", h.Live)

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, tc.path, nil))
			require.NoError(t, err)
			assert.Equal(t, tc.want, resp.StatusCode)
		})
	}
}
