package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"task-manager/internal/errs"
	"task-manager/internal/metrics"
	"task-manager/internal/models"
	"task-manager/pkg/logger"
)

const (
	accountKey      = "account_id"
	requestIDHeader = "X-Request-ID"
)

// TokenVerifier validates an access token and returns its subject.
type TokenVerifier interface {
	Verify(token string) (uuid.UUID, error)
}

// AccountResolver confirms the token subject still exists.
type AccountResolver interface {
	Profile(ctx context.Context, id uuid.UUID) (*models.Account, error)
}

// AuthMiddleware requires a valid "Bearer <JWT>" header whose subject is a live account.
func AuthMiddleware(verifier TokenVerifier, accounts AccountResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		auth := c.GetHeader("Authorization")
		const prefix = "Bearer "
		if auth == "" || !strings.HasPrefix(auth, prefix) {
			logger.Debug(ctx, "Missing or invalid Authorization header")
			unauthorized(c, "No token, authorization denied")
			return
		}
		id, err := verifier.Verify(strings.TrimSpace(auth[len(prefix):]))
		if err != nil {
			logger.Debug(ctx, "JWT verification failed", "error", err)
			unauthorized(c, "Token is not valid")
			return
		}
		if _, err := accounts.Profile(ctx, id); err != nil {
			if !errors.Is(err, errs.ErrNotFound) {
				logger.Error(ctx, "Resolve token subject failed", "error", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"status": false, "msg": "Internal Server Error"})
				return
			}
			unauthorized(c, "User not found")
			return
		}
		c.Set(accountKey, id)
		c.Request = c.Request.WithContext(logger.WithContext(ctx, logger.FromContext(ctx).With("account_id", id)))
		c.Next()
	}
}

// AccountID returns the authenticated account set by AuthMiddleware.
func AccountID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(accountKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"status": false, "msg": msg})
}

// RequestLogger tags the request context with a request id and logs completion.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Header(requestIDHeader, rid)
		ctx := logger.WithRequestID(c.Request.Context(), rid)
		c.Request = c.Request.WithContext(ctx)

		start := time.Now()
		c.Next()
		logger.Info(ctx, "Request handled",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds())
	}
}

// Metrics records request counts and latency per matched route.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		metrics.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPDuration.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
	}
}
