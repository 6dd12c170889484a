package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"malladmin/internal/handler"
	"malladmin/internal/model"
	"malladmin/internal/service"
	"malladmin/pkg/logger"
	"malladmin/pkg/metrics"
	"malladmin/pkg/rbac"
	"malladmin/pkg/trace"
	"malladmin/pkg/util"
)

// Authenticator resolves a bearer token to its caller.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*service.Principal, error)
}

// Auditor records mutating requests.
type Auditor interface {
	Record(ctx context.Context, entry *model.AuditLog)
}

// TraceMiddleware reuses the caller's X-Trace-ID or creates one, and
// echoes it on the response.
func TraceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := trace.FromHeader(c.GetHeader(trace.HeaderName))
		c.Request = c.Request.WithContext(trace.WithContext(c.Request.Context(), traceID))
		c.Header(trace.HeaderName, traceID)
		c.Next()
	}
}

func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		}
		l := logger.WithTrace(c.Request.Context(), log)
		if c.Writer.Status() >= http.StatusInternalServerError {
			l.Warn("HTTP request", fields...)
			return
		}
		l.Info("HTTP request", fields...)
	}
}

// MetricsMiddleware observes request latency by route template.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.RecordHTTPRequestDuration(c.Request.Method, path, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}

// AuthMiddleware requires a valid bearer token backed by a live session.
func AuthMiddleware(auth Authenticator, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := util.ExtractToken(c.Request)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			c.Abort()
			return
		}

		p, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, service.ErrUnauthorized) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			} else {
				logger.WithTrace(c.Request.Context(), log).Error("Failed to authenticate request", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			}
			c.Abort()
			return
		}

		handler.SetPrincipal(c, p)
		c.Next()
	}
}

// RequirePermission rejects callers whose role lacks permission.
func RequirePermission(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := handler.CurrentPrincipal(c)
		if p == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
			c.Abort()
			return
		}

		if err := rbac.CheckPermission(p.Role, permission); err != nil {
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
			c.Abort()
			return
		}

		c.Next()
	}
}

var auditActions = map[string]string{
	http.MethodPost:   "create",
	http.MethodPut:    "update",
	http.MethodPatch:  "update",
	http.MethodDelete: "delete",
}

// AuditMiddleware writes one audit entry per authenticated mutation.
// Login and logout are recorded by the auth service itself.
func AuditMiddleware(auditor Auditor, prefix string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		action, ok := auditActions[c.Request.Method]
		if !ok {
			return
		}
		p := handler.CurrentPrincipal(c)
		if p == nil {
			return
		}
		resource, rest := splitRoute(strings.TrimPrefix(c.FullPath(), prefix))
		if resource == "" || resource == "auth" {
			return
		}
		// sub-actions such as /inquiries/:id/respond or /notifications/read-all
		if seg := rest[strings.LastIndex(rest, "/")+1:]; seg != "" && !strings.HasPrefix(seg, ":") {
			action = strings.ReplaceAll(seg, "-", "_")
		}

		resourceID := c.Param("id")
		if resourceID == "" {
			resourceID = c.Param("key")
		}
		uid := p.UserID
		auditor.Record(c.Request.Context(), &model.AuditLog{
			UserID:     &uid,
			Action:     action,
			Resource:   resource,
			ResourceID: resourceID,
			IP:         c.ClientIP(),
			UserAgent:  c.Request.UserAgent(),
			StatusCode: c.Writer.Status(),
		})
	}
}

// splitRoute turns "/bookings/:id/status" into ("bookings", ":id/status").
func splitRoute(route string) (string, string) {
	route = strings.Trim(route, "/")
	resource, rest, _ := strings.Cut(route, "/")
	return resource, rest
}
