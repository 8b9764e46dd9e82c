package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/lac-hong-legacy/ido_api/dto"
	"github.com/lac-hong-legacy/ido_api/model"
	"github.com/lac-hong-legacy/ido_api/services/repositories"
	"github.com/lac-hong-legacy/ido_api/shared"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	AUTH_SVC = "auth_svc"

	sessionKeyPrefix = "session:"
	resetKeyPrefix   = "reset:"

	sessionLifetime         = 24 * time.Hour
	rememberSessionLifetime = 30 * 24 * time.Hour
	resetTokenLifetime      = time.Hour
)

// UserStore is the user persistence the auth and user services need.
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, userID string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	IsUsernameAvailable(ctx context.Context, username, excludeUserID string) (bool, error)
	IsEmailAvailable(ctx context.Context, email string) (bool, error)
	UpdateUserProfile(ctx context.Context, userID string, updates map[string]interface{}) error
	UpdateUserPassword(ctx context.Context, userID, hashedPassword string) error
	UpdateLastLogin(ctx context.Context, userID string) error
	GetSettings(ctx context.Context, userID string) (*model.UserSettings, error)
	SaveSettings(ctx context.Context, settings *model.UserSettings) error
	GetUserStatistics(ctx context.Context, userID string) (dto.UserStatistics, error)
	AdminGetUsers(ctx context.Context, q dto.AdminUserQuery) ([]model.User, int64, error)
	AdminUpdateUserStatus(ctx context.Context, userID, status string) error
}

// PasswordResetMailer delivers reset links.
type PasswordResetMailer interface {
	SendPasswordResetEmail(email, username, token string) error
}

type AuthService struct {
	appContext.DefaultService

	users  UserStore
	jwtSvc *JWTService
	store  CounterStore
	sink   EventSink
	mailer PasswordResetMailer
	now    func() time.Time
}

func NewAuthService(users UserStore, jwtSvc *JWTService, store CounterStore, sink EventSink, mailer PasswordResetMailer) *AuthService {
	if sink == nil {
		sink = discardSink{}
	}
	return &AuthService{
		users:  users,
		jwtSvc: jwtSvc,
		store:  store,
		sink:   sink,
		mailer: mailer,
		now:    time.Now,
	}
}

func (svc AuthService) Id() string {
	return AUTH_SVC
}

func (svc *AuthService) Configure(ctx *appContext.Context) error {
	svc.now = time.Now
	return svc.DefaultService.Configure(ctx)
}

func (svc *AuthService) Start() error {
	svc.users = repositories.NewUserRepository(svc.Service(POSTGRES_SVC).(*PostgresService).Db())
	svc.jwtSvc = svc.Service(JWT_SVC).(*JWTService)
	svc.store = svc.Service(REDIS_SVC).(*RedisService)
	svc.sink = svc.Service(ANALYTICS_SVC).(*AnalyticsService)
	svc.mailer = svc.Service(EMAIL_SVC).(*EmailService)
	return nil
}

// ==================== ACCOUNT FLOWS ====================

func (svc *AuthService) Register(ctx context.Context, req dto.RegisterRequest, clientIP, userAgent string) (*dto.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	available, err := svc.users.IsEmailAvailable(ctx, email)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to check email")
	}
	if !available {
		return nil, shared.NewConflictError(nil, "Email already registered")
	}

	available, err = svc.users.IsUsernameAvailable(ctx, req.Username, "")
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to check username")
	}
	if !available {
		return nil, shared.NewConflictError(nil, "Username already taken")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to hash password")
	}

	userID, err := uuid.NewV7()
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to generate user ID")
	}

	now := svc.now()
	user := &model.User{
		ID:           userID.String(),
		Email:        email,
		Username:     req.Username,
		PasswordHash: string(hashedPassword),
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Role:         model.RoleUser,
		Status:       model.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := svc.users.CreateUser(ctx, user); err != nil {
		if IsUniqueViolation(err) {
			return nil, shared.NewConflictError(err, "Email already registered")
		}
		return nil, shared.NewInternalError(err, "Failed to create user")
	}

	resp, err := svc.issueSession(ctx, user, false, clientIP, userAgent)
	if err != nil {
		return nil, err
	}

	svc.track("user_register", user.ID, clientIP)
	log.Info().Str("user_id", user.ID).Msg("User registered")

	return resp, nil
}

func (svc *AuthService) Login(ctx context.Context, req dto.LoginRequest, clientIP, userAgent string) (*dto.AuthResponse, error) {
	user, err := svc.users.GetUserByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewUnauthorizedError(nil, "Invalid email or password")
		}
		return nil, shared.NewInternalError(err, "Failed to load user")
	}

	if !user.IsActive() {
		return nil, shared.NewUnauthorizedError(nil, "Account is not active")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, shared.NewUnauthorizedError(nil, "Invalid email or password")
	}

	resp, err := svc.issueSession(ctx, user, req.Remember, clientIP, userAgent)
	if err != nil {
		return nil, err
	}

	if err := svc.users.UpdateLastLogin(ctx, user.ID); err != nil {
		log.Warn().Err(err).Str("user_id", user.ID).Msg("Failed to update last login")
	}

	svc.track("user_login", user.ID, clientIP)

	return resp, nil
}

func (svc *AuthService) RefreshToken(ctx context.Context, req dto.RefreshTokenRequest) (*dto.RefreshResponse, error) {
	claims, err := svc.jwtSvc.VerifyToken(req.RefreshToken, TokenTypeRefresh)
	if err != nil {
		if errors.Is(err, errWrongTokenType) {
			return nil, shared.NewUnauthorizedError(err, "Invalid token type")
		}
		return nil, shared.NewUnauthorizedError(err, "Invalid refresh token")
	}

	session, err := svc.loadSession(ctx, claims.SessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, shared.NewUnauthorizedError(nil, "Session not found")
	}
	if session.ExpiresAt < svc.now().UnixMilli() {
		return nil, shared.NewUnauthorizedError(nil, "Session expired")
	}

	user, err := svc.users.GetUserByID(ctx, claims.UserID)
	if err != nil || !user.IsActive() {
		return nil, shared.NewUnauthorizedError(err, "User not found or inactive")
	}

	accessToken, err := svc.jwtSvc.GenerateAccessToken(user.ID, user.Email, user.Role, session.ID)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to generate access token")
	}

	svc.touchSession(ctx, session)

	return &dto.RefreshResponse{AccessToken: accessToken}, nil
}

// Logout removes the session behind authHeader. It never fails: a missing or
// invalid token still counts as logged out.
func (svc *AuthService) Logout(ctx context.Context, authHeader, clientIP string) {
	token, err := svc.jwtSvc.ExtractTokenFromHeader(authHeader)
	if err != nil {
		return
	}

	claims, err := svc.jwtSvc.VerifyToken(token, TokenTypeAccess)
	if err != nil {
		return
	}

	if claims.SessionID != "" {
		if err := svc.store.Delete(ctx, sessionKeyPrefix+claims.SessionID); err != nil {
			log.Warn().Err(err).Str("session_id", claims.SessionID).Msg("Failed to delete session")
		}
	}

	svc.track("user_logout", claims.UserID, clientIP)
}

// ForgotPassword stores a one-hour reset token for active accounts. Unknown or
// inactive emails are silently ignored so callers cannot probe for accounts.
func (svc *AuthService) ForgotPassword(ctx context.Context, email, clientIP string) error {
	user, err := svc.users.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return shared.NewInternalError(err, "Failed to load user")
	}
	if !user.IsActive() {
		return nil
	}

	token := uuid.NewString()
	reset := model.PasswordReset{
		UserID:    user.ID,
		Email:     user.Email,
		ExpiresAt: svc.now().Add(resetTokenLifetime).UnixMilli(),
	}
	if err := svc.store.Set(ctx, resetKeyPrefix+token, reset, resetTokenLifetime); err != nil {
		return shared.NewInternalError(err, "Failed to store reset token")
	}

	if svc.mailer != nil {
		if err := svc.mailer.SendPasswordResetEmail(user.Email, user.Username, token); err != nil {
			log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to send password reset email")
		}
	}

	svc.track("password_reset_requested", user.ID, clientIP)
	return nil
}

func (svc *AuthService) ResetPassword(ctx context.Context, req dto.ResetPasswordRequest, clientIP string) error {
	key := resetKeyPrefix + req.Token

	raw, err := svc.store.Get(ctx, key)
	if err != nil {
		return shared.NewInternalError(err, "Failed to load reset token")
	}
	if raw == "" {
		return shared.NewUnauthorizedError(nil, "Invalid or expired reset token")
	}

	var reset model.PasswordReset
	if err := shared.JSONAPI.UnmarshalFromString(raw, &reset); err != nil {
		return shared.NewUnauthorizedError(err, "Invalid or expired reset token")
	}
	if reset.ExpiresAt < svc.now().UnixMilli() {
		return shared.NewUnauthorizedError(nil, "Reset token has expired")
	}

	user, err := svc.users.GetUserByID(ctx, reset.UserID)
	if err != nil || !user.IsActive() {
		return shared.NewUnauthorizedError(err, "User not found or inactive")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return shared.NewInternalError(err, "Failed to hash password")
	}
	if err := svc.users.UpdateUserPassword(ctx, user.ID, string(hashedPassword)); err != nil {
		return shared.NewInternalError(err, "Failed to update password")
	}

	if err := svc.store.Delete(ctx, key); err != nil {
		log.Warn().Err(err).Msg("Failed to delete used reset token")
	}

	svc.track("password_reset_completed", user.ID, clientIP)
	return nil
}

// ==================== SESSIONS ====================

func (svc *AuthService) issueSession(ctx context.Context, user *model.User, remember bool, clientIP, userAgent string) (*dto.AuthResponse, error) {
	lifetime := sessionLifetime
	if remember {
		lifetime = rememberSessionLifetime
	}

	now := svc.now()
	session := model.Session{
		ID:           uuid.NewString(),
		UserID:       user.ID,
		Email:        user.Email,
		CreatedAt:    now.UnixMilli(),
		ExpiresAt:    now.Add(lifetime).UnixMilli(),
		LastActivity: now.UnixMilli(),
		IPAddress:    clientIP,
		UserAgent:    userAgent,
	}

	if err := svc.store.Set(ctx, sessionKeyPrefix+session.ID, session, lifetime); err != nil {
		return nil, shared.NewInternalError(err, "Failed to create session")
	}

	tokens, err := svc.jwtSvc.GenerateTokenPair(user.ID, user.Email, user.Role, session.ID, remember)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to generate tokens")
	}

	return &dto.AuthResponse{
		User: dto.AuthUser{
			ID:            user.ID,
			Email:         user.Email,
			Username:      user.Username,
			FirstName:     user.FirstName,
			LastName:      user.LastName,
			Role:          user.Role,
			EmailVerified: user.EmailVerified,
		},
		Tokens:    *tokens,
		SessionID: session.ID,
	}, nil
}

// loadSession returns nil, nil when the session is gone.
func (svc *AuthService) loadSession(ctx context.Context, sessionID string) (*model.Session, error) {
	if sessionID == "" {
		return nil, nil
	}
	raw, err := svc.store.Get(ctx, sessionKeyPrefix+sessionID)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to load session")
	}
	if raw == "" {
		return nil, nil
	}
	var session model.Session
	if err := shared.JSONAPI.UnmarshalFromString(raw, &session); err != nil {
		return nil, shared.NewInternalError(err, "Failed to decode session")
	}
	return &session, nil
}

// touchSession bumps lastActivity and keeps the key alive until the session expires.
func (svc *AuthService) touchSession(ctx context.Context, session *model.Session) {
	now := svc.now()
	session.LastActivity = now.UnixMilli()
	ttl := time.UnixMilli(session.ExpiresAt).Sub(now)
	if ttl <= 0 {
		return
	}
	if err := svc.store.Set(ctx, sessionKeyPrefix+session.ID, session, ttl); err != nil {
		log.Warn().Err(err).Str("session_id", session.ID).Msg("Failed to update session activity")
	}
}

func (svc *AuthService) track(event, userID, clientIP string) {
	svc.sink.WriteDataPoint(model.AnalyticsEvent{
		Name:    event,
		Blobs:   []string{event, userID, clientIP},
		Doubles: []float64{float64(svc.now().UnixMilli())},
		Indexes: []string{userID},
	})
}

// ==================== MIDDLEWARE ====================

// RequiredAuth admits requests carrying a valid access token whose session is
// still live and whose user is active.
func (svc *AuthService) RequiredAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, user, err := svc.authenticate(c)
		if err != nil {
			reason := err.Error()
			if appErr, ok := shared.GetAppError(err); ok {
				reason = appErr.Message
			}
			svc.sink.WriteDataPoint(model.AnalyticsEvent{
				Name:    "auth-failed",
				Blobs:   []string{"auth-failed", reason},
				Doubles: []float64{float64(svc.now().UnixMilli())},
				Indexes: []string{"auth"},
			})
			return err
		}

		setAuthLocals(c, claims, user)

		svc.sink.WriteDataPoint(model.AnalyticsEvent{
			Name:    "auth-success",
			Blobs:   []string{"auth-success", user.ID},
			Doubles: []float64{float64(svc.now().UnixMilli())},
			Indexes: []string{"auth"},
		})
		return c.Next()
	}
}

// OptionalAuth attaches the caller's identity when a valid token is present
// and otherwise lets the request through anonymously.
func (svc *AuthService) OptionalAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Get(fiber.HeaderAuthorization) == "" {
			return c.Next()
		}
		claims, user, err := svc.authenticate(c)
		if err != nil {
			log.Debug().Err(err).Msg("Optional auth ignored invalid credentials")
			return c.Next()
		}
		setAuthLocals(c, claims, user)
		return c.Next()
	}
}

// RequireRole must run after RequiredAuth. Admins pass every role check.
func (svc *AuthService) RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		current, _ := c.Locals(shared.UserRole).(string)
		if current == "" {
			return shared.NewUnauthorizedError(nil, "Authentication required")
		}
		if current != role && current != model.RoleAdmin {
			return shared.NewForbiddenError(nil, fmt.Sprintf("Role '%s' required", role))
		}
		return c.Next()
	}
}

func (svc *AuthService) authenticate(c *fiber.Ctx) (*CustomClaims, *model.User, error) {
	token, err := svc.jwtSvc.ExtractTokenFromHeader(c.Get(fiber.HeaderAuthorization))
	if err != nil {
		return nil, nil, shared.NewUnauthorizedError(err, "Missing or invalid authorization header")
	}

	claims, err := svc.jwtSvc.VerifyToken(token, TokenTypeAccess)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, nil, shared.NewUnauthorizedError(err, "Token has expired")
		}
		if errors.Is(err, errWrongTokenType) {
			return nil, nil, shared.NewUnauthorizedError(err, "Invalid token type")
		}
		return nil, nil, shared.NewUnauthorizedError(err, "Invalid token")
	}

	ctx := c.UserContext()
	session, err := svc.loadSession(ctx, claims.SessionID)
	if err != nil {
		return nil, nil, err
	}
	if session == nil || session.ExpiresAt < svc.now().UnixMilli() {
		return nil, nil, shared.NewUnauthorizedError(nil, "Session not found or expired")
	}

	user, err := svc.users.GetUserByID(ctx, claims.UserID)
	if err != nil || !user.IsActive() {
		return nil, nil, shared.NewUnauthorizedError(err, "User not found or inactive")
	}

	svc.touchSession(ctx, session)

	return claims, user, nil
}

func setAuthLocals(c *fiber.Ctx, claims *CustomClaims, user *model.User) {
	c.Locals(shared.UserID, user.ID)
	c.Locals(shared.UserRole, user.Role)
	c.Locals(shared.UserEmail, user.Email)
	c.Locals(shared.SessionID, claims.SessionID)
}
