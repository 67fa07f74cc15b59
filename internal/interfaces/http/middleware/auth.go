package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/mosesmbadi/easymed-sub000/internal/infrastructure/hmis"
	"github.com/mosesmbadi/easymed-sub000/internal/infrastructure/logger"
	"github.com/mosesmbadi/easymed-sub000/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Auth header constants
const (
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// Auth errors
var (
	ErrMissingToken = errors.New("authentication credentials were not provided")
	ErrInvalidToken = errors.New("token is malformed")
	ErrTokenExpired = errors.New("token has expired")
	ErrNoPrincipal  = errors.New("token does not identify a user")
)

// AuthConfig holds configuration for the bearer middleware
type AuthConfig struct {
	// Now is used to reject expired tokens before they reach the HMIS
	Now    func() time.Time
	Logger *zap.Logger
}

// BearerAuth requires an Authorization bearer token on every request.
//
// The token is issued and verified by the HMIS, which receives it unchanged on
// every upstream call. Here it is only decoded to find the desk user that owns
// payment sessions; signatures are never checked locally.
func BearerAuth(cfg AuthConfig) gin.HandlerFunc {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	parser := jwt.NewParser()

	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader(AuthHeaderKey))
		if header == "" {
			abortUnauthorized(c, ErrMissingToken)
			return
		}
		if len(header) < len(BearerPrefix) || !strings.EqualFold(header[:len(BearerPrefix)], BearerPrefix) {
			abortUnauthorized(c, ErrInvalidToken)
			return
		}
		token := strings.TrimSpace(header[len(BearerPrefix):])

		userID, err := principal(parser, token, cfg.Now())
		if err != nil {
			cfg.Logger.Debug("Rejected bearer token",
				zap.String("request_id", GetRequestID(c)),
				zap.Error(err))
			abortUnauthorized(c, err)
			return
		}

		c.Set(logger.GinUserIDKey, userID)
		ctx := hmis.WithAuthorization(c.Request.Context(), BearerPrefix+token)
		ctx = logger.WithUserID(ctx, userID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// GetUserID returns the desk user set by BearerAuth
func GetUserID(c *gin.Context) string {
	return c.GetString(logger.GinUserIDKey)
}

func principal(parser *jwt.Parser, token string, now time.Time) (string, error) {
	if token == "" {
		return "", ErrMissingToken
	}
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if exp != nil && !now.Before(exp.Time) {
		return "", ErrTokenExpired
	}

	// The HMIS issues user_id; sub is accepted for other issuers
	switch v := claims["user_id"].(type) {
	case string:
		if v != "" {
			return v, nil
		}
	case float64:
		return fmt.Sprintf("%.0f", v), nil
	}
	if sub, err := claims.GetSubject(); err == nil && sub != "" {
		return sub, nil
	}
	return "", ErrNoPrincipal
}

func abortUnauthorized(c *gin.Context, err error) {
	message := "Invalid or expired token"
	if errors.Is(err, ErrMissingToken) {
		message = "Authentication credentials were not provided"
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(
		dto.ErrCodeUnauthorized,
		message,
		GetRequestID(c),
	))
}
