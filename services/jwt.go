package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/golang-jwt/jwt/v5"
	"github.com/lac-hong-legacy/ido_api/dto"
)

const (
	JWT_SVC = "jwt_svc"

	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"

	tokenIssuer = "ido_api"
)

var (
	errMissingAuthHeader = errors.New("authorization header is missing")
	errInvalidAuthHeader = errors.New("invalid authorization header format")
	errWrongTokenType    = errors.New("invalid token type")
)

type JWTService struct {
	context.DefaultService

	AccessTokenDuration          time.Duration
	RefreshTokenDuration         time.Duration
	RememberRefreshTokenDuration time.Duration
	jwtSecretKey                 string
}

type CustomClaims struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Role      string `json:"role,omitempty"`
	SessionID string `json:"session_id"`
	Type      string `json:"type"`
	jwt.RegisteredClaims
}

// NewJWTService builds a signer outside the service container.
func NewJWTService(secret string) *JWTService {
	svc := &JWTService{jwtSecretKey: secret}
	svc.setDurations()
	return svc
}

func (svc JWTService) Id() string {
	return JWT_SVC
}

func (svc *JWTService) Configure(ctx *context.Context) error {
	cfg := ctx.Service(CONFIG_SVC).(*ConfigService).Config()

	svc.setDurations()
	svc.jwtSecretKey = cfg.SecretOrDefault()
	return svc.DefaultService.Configure(ctx)
}

func (svc *JWTService) Start() error {
	return nil
}

func (svc *JWTService) setDurations() {
	svc.AccessTokenDuration = 15 * time.Minute
	svc.RefreshTokenDuration = 7 * 24 * time.Hour
	svc.RememberRefreshTokenDuration = 30 * 24 * time.Hour
}

// GenerateTokenPair issues an access and a refresh token bound to sessionID.
func (svc *JWTService) GenerateTokenPair(userID, email, role, sessionID string, remember bool) (*dto.TokenPair, error) {
	accessToken, err := svc.sign(userID, email, role, sessionID, TokenTypeAccess, svc.AccessTokenDuration)
	if err != nil {
		return nil, err
	}

	refreshTTL := svc.RefreshTokenDuration
	if remember {
		refreshTTL = svc.RememberRefreshTokenDuration
	}
	refreshToken, err := svc.sign(userID, "", "", sessionID, TokenTypeRefresh, refreshTTL)
	if err != nil {
		return nil, err
	}

	return &dto.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (svc *JWTService) GenerateAccessToken(userID, email, role, sessionID string) (string, error) {
	return svc.sign(userID, email, role, sessionID, TokenTypeAccess, svc.AccessTokenDuration)
}

func (svc *JWTService) sign(userID, email, role, sessionID, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()

	claims := &CustomClaims{
		UserID:    userID,
		Email:     email,
		Role:      role,
		SessionID: sessionID,
		Type:      tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(svc.jwtSecretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// VerifyToken checks signature, expiry and that the token is of the expected type.
func (svc *JWTService) VerifyToken(tokenString, expectedType string) (*CustomClaims, error) {
	claims := &CustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, svc.getJWTKey,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UserID == "" {
		return nil, errors.New("invalid token claims")
	}
	if claims.Type != expectedType {
		return nil, errWrongTokenType
	}
	return claims, nil
}

func (svc *JWTService) getJWTKey(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}

	return []byte(svc.jwtSecretKey), nil
}

func (svc *JWTService) ExtractTokenFromHeader(authHeader string) (string, error) {
	if authHeader == "" {
		return "", errMissingAuthHeader
	}

	token, ok := strings.CutPrefix(authHeader, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return "", errInvalidAuthHeader
	}

	return strings.TrimSpace(token), nil
}
