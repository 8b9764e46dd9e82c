package services

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/lac-hong-legacy/ido_api/dto"
	"github.com/lac-hong-legacy/ido_api/model"
	"github.com/lac-hong-legacy/ido_api/services/repositories"
	"github.com/lac-hong-legacy/ido_api/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedReset struct {
	email, username, token string
}

type recordingMailer struct {
	sent []capturedReset
}

func (m *recordingMailer) SendPasswordResetEmail(email, username, token string) error {
	m.sent = append(m.sent, capturedReset{email, username, token})
	return nil
}

type authFixture struct {
	svc    *AuthService
	users  *repositories.UserRepository
	store  *memoryStore
	sink   *recordingSink
	mailer *recordingMailer
	clock  *fakeClock
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	f := &authFixture{
		users:  repositories.NewUserRepository(newTestPostgres(t).Db()),
		store:  newMemoryStore(),
		sink:   &recordingSink{},
		mailer: &recordingMailer{},
		clock:  &fakeClock{t: time.Now()},
	}
	f.svc = NewAuthService(f.users, NewJWTService("test-secret"), f.store, f.sink, f.mailer)
	f.svc.now = f.clock.now
	return f
}

func registerRequest(username string) dto.RegisterRequest {
	return dto.RegisterRequest{
		Email:           username + "@Example.com",
		Username:        username,
		Password:        "SecurePass123!",
		ConfirmPassword: "SecurePass123!",
		FirstName:       "Test",
		LastName:        "User",
		AcceptTerms:     true,
	}
}

func requireAppError(t *testing.T, err error, status int, message string) {
	t.Helper()
	appErr, ok := shared.GetAppError(err)
	require.True(t, ok, "expected AppError, got %v", err)
	assert.Equal(t, status, appErr.StatusCode)
	assert.Equal(t, message, appErr.Message)
}

func TestRegisterCreatesSession(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	resp, err := f.svc.Register(ctx, registerRequest("alice"), "1.2.3.4", "test-agent")
	require.NoError(t, err)

	assert.Equal(t, "alice@example.com", resp.User.Email)
	assert.Equal(t, model.RoleUser, resp.User.Role)
	assert.NotEmpty(t, resp.Tokens.AccessToken)
	assert.NotEmpty(t, resp.Tokens.RefreshToken)

	key := sessionKeyPrefix + resp.SessionID
	require.True(t, f.store.has(key))
	assert.Equal(t, 24*time.Hour, f.store.ttls[key])

	var session model.Session
	require.NoError(t, shared.JSONAPI.UnmarshalFromString(f.store.data[key], &session))
	assert.Equal(t, resp.User.ID, session.UserID)
	assert.Equal(t, "1.2.3.4", session.IPAddress)

	claims, err := f.svc.jwtSvc.VerifyToken(resp.Tokens.AccessToken, TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, resp.SessionID, claims.SessionID)
	assert.Equal(t, model.RoleUser, claims.Role)

	assert.Contains(t, f.sink.names(), "user_register")
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, registerRequest("alice"), "", "")
	require.NoError(t, err)

	_, err = f.svc.Register(ctx, registerRequest("alice"), "", "")
	requireAppError(t, err, fiber.StatusConflict, "Email already registered")

	req := registerRequest("ALICE")
	req.Email = "other@example.com"
	_, err = f.svc.Register(ctx, req, "", "")
	requireAppError(t, err, fiber.StatusConflict, "Username already taken")
}

func TestLogin(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	registered, err := f.svc.Register(ctx, registerRequest("bob"), "", "")
	require.NoError(t, err)

	_, err = f.svc.Login(ctx, dto.LoginRequest{Email: "bob@example.com", Password: "WrongPass123!"}, "", "")
	requireAppError(t, err, fiber.StatusUnauthorized, "Invalid email or password")

	_, err = f.svc.Login(ctx, dto.LoginRequest{Email: "nobody@example.com", Password: "SecurePass123!"}, "", "")
	requireAppError(t, err, fiber.StatusUnauthorized, "Invalid email or password")

	resp, err := f.svc.Login(ctx, dto.LoginRequest{Email: "BOB@example.com", Password: "SecurePass123!", Remember: true}, "", "")
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, resp.User.ID)
	assert.NotEqual(t, registered.SessionID, resp.SessionID)
	assert.Equal(t, 30*24*time.Hour, f.store.ttls[sessionKeyPrefix+resp.SessionID])

	user, err := f.users.GetUserByID(ctx, resp.User.ID)
	require.NoError(t, err)
	assert.NotNil(t, user.LastLogin)

	require.NoError(t, f.users.AdminUpdateUserStatus(ctx, user.ID, model.UserStatusSuspended))
	_, err = f.svc.Login(ctx, dto.LoginRequest{Email: "bob@example.com", Password: "SecurePass123!"}, "", "")
	requireAppError(t, err, fiber.StatusUnauthorized, "Account is not active")
}

func TestRefreshToken(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	resp, err := f.svc.Register(ctx, registerRequest("carol"), "", "")
	require.NoError(t, err)

	refreshed, err := f.svc.RefreshToken(ctx, dto.RefreshTokenRequest{RefreshToken: resp.Tokens.RefreshToken})
	require.NoError(t, err)
	claims, err := f.svc.jwtSvc.VerifyToken(refreshed.AccessToken, TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, resp.SessionID, claims.SessionID)

	_, err = f.svc.RefreshToken(ctx, dto.RefreshTokenRequest{RefreshToken: resp.Tokens.AccessToken})
	requireAppError(t, err, fiber.StatusUnauthorized, "Invalid token type")

	f.clock.t = f.clock.t.Add(25 * time.Hour)
	_, err = f.svc.RefreshToken(ctx, dto.RefreshTokenRequest{RefreshToken: resp.Tokens.RefreshToken})
	requireAppError(t, err, fiber.StatusUnauthorized, "Session expired")

	require.NoError(t, f.store.Delete(ctx, sessionKeyPrefix+resp.SessionID))
	_, err = f.svc.RefreshToken(ctx, dto.RefreshTokenRequest{RefreshToken: resp.Tokens.RefreshToken})
	requireAppError(t, err, fiber.StatusUnauthorized, "Session not found")
}

func TestPasswordResetFlow(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, registerRequest("dave"), "", "")
	require.NoError(t, err)

	require.NoError(t, f.svc.ForgotPassword(ctx, "unknown@example.com", ""))
	assert.Empty(t, f.mailer.sent)

	require.NoError(t, f.svc.ForgotPassword(ctx, "dave@example.com", ""))
	require.Len(t, f.mailer.sent, 1)
	token := f.mailer.sent[0].token
	assert.Equal(t, time.Hour, f.store.ttls[resetKeyPrefix+token])

	req := dto.ResetPasswordRequest{Token: token, Password: "BrandNew456!", ConfirmPassword: "BrandNew456!"}
	require.NoError(t, f.svc.ResetPassword(ctx, req, ""))
	assert.False(t, f.store.has(resetKeyPrefix+token))

	err = f.svc.ResetPassword(ctx, req, "")
	requireAppError(t, err, fiber.StatusUnauthorized, "Invalid or expired reset token")

	_, err = f.svc.Login(ctx, dto.LoginRequest{Email: "dave@example.com", Password: "BrandNew456!"}, "", "")
	require.NoError(t, err)

	require.NoError(t, f.svc.ForgotPassword(ctx, "dave@example.com", ""))
	f.clock.t = f.clock.t.Add(2 * time.Hour)
	err = f.svc.ResetPassword(ctx, dto.ResetPasswordRequest{Token: f.mailer.sent[1].token, Password: "Another789!"}, "")
	requireAppError(t, err, fiber.StatusUnauthorized, "Reset token has expired")
}

func newAuthApp(f *authFixture) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: shared.ErrorHandler(false)})
	app.Get("/me", f.svc.RequiredAuth(), func(c *fiber.Ctx) error {
		return c.SendString(shared.CurrentUserID(c))
	})
	app.Get("/admin", f.svc.RequiredAuth(), f.svc.RequireRole(model.RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendString("admin")
	})
	app.Get("/maybe", f.svc.OptionalAuth(), func(c *fiber.Ctx) error {
		return c.SendString("user=" + shared.CurrentUserID(c))
	})
	return app
}

func doGet(t *testing.T, app *fiber.App, path, token string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodGet, path, nil)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestAuthMiddleware(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	app := newAuthApp(f)

	resp, err := f.svc.Register(ctx, registerRequest("erin"), "", "")
	require.NoError(t, err)
	token := resp.Tokens.AccessToken

	status, body := doGet(t, app, "/me", "")
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Contains(t, body, "Missing or invalid authorization header")

	status, body = doGet(t, app, "/me", token)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, resp.User.ID, body)

	status, body = doGet(t, app, "/me", resp.Tokens.RefreshToken)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Contains(t, body, "Invalid token type")

	status, body = doGet(t, app, "/admin", token)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Contains(t, body, "Role 'admin' required")

	_, body = doGet(t, app, "/maybe", "garbage")
	assert.Equal(t, "user=", body)
	_, body = doGet(t, app, "/maybe", token)
	assert.Equal(t, "user="+resp.User.ID, body)

	f.svc.Logout(ctx, "Bearer "+token, "")
	assert.False(t, f.store.has(sessionKeyPrefix+resp.SessionID))

	status, body = doGet(t, app, "/me", token)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Contains(t, body, "Session not found or expired")

	names := strings.Join(f.sink.names(), ",")
	assert.Contains(t, names, "auth-success")
	assert.Contains(t, names, "auth-failed")
	assert.Contains(t, names, "user_logout")
}

func TestAdminPassesRoleChecks(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	app := newAuthApp(f)

	resp, err := f.svc.Register(ctx, registerRequest("root"), "", "")
	require.NoError(t, err)
	require.NoError(t, f.users.UpdateUserProfile(ctx, resp.User.ID, map[string]interface{}{"role": model.RoleAdmin}))

	// the role is read from the user row, not the token
	status, body := doGet(t, app, "/admin", resp.Tokens.AccessToken)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "admin", body)
}

func TestLogoutIgnoresBadTokens(t *testing.T) {
	f := newAuthFixture(t)
	assert.NotPanics(t, func() {
		f.svc.Logout(context.Background(), "", "")
		f.svc.Logout(context.Background(), "Bearer not-a-jwt", "")
	})
	assert.Empty(t, f.sink.names())
}
