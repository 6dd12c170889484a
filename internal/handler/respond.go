package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"malladmin/internal/model"
	"malladmin/internal/query"
	"malladmin/internal/service"
	"malladmin/pkg/logger"
	"malladmin/pkg/outbox"
	"malladmin/pkg/rbac"
)

const principalKey = "principal"

// SetPrincipal stores the authenticated caller on the request.
func SetPrincipal(c *gin.Context, p *service.Principal) {
	c.Set(principalKey, p)
}

// CurrentPrincipal returns the caller set by the auth middleware, or nil.
func CurrentPrincipal(c *gin.Context) *service.Principal {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil
	}
	p, _ := v.(*service.Principal)
	return p
}

// statusFor maps service and repository errors to HTTP status codes.
func statusFor(err error) int {
	var ve *model.ValidationError
	var denied *rbac.PermissionDeniedError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden), errors.Is(err, service.ErrAccountDisabled), errors.As(err, &denied):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound), errors.Is(err, outbox.ErrEventNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrAccountLocked):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the JSON error body for err. Unexpected errors are
// logged and hidden behind a generic message.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	status := statusFor(err)
	switch status {
	case http.StatusBadRequest:
		var ve *model.ValidationError
		errors.As(err, &ve)
		c.JSON(status, gin.H{"error": ve.Error(), "field": ve.Field})
	case http.StatusInternalServerError:
		logger.WithTrace(c.Request.Context(), log).Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(status, gin.H{"error": "internal server error"})
	case http.StatusNotFound:
		c.JSON(status, gin.H{"error": "not found"})
	case http.StatusConflict:
		c.JSON(status, gin.H{"error": "conflicts with existing data"})
	case http.StatusUnauthorized:
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(status, gin.H{"error": service.ErrInvalidCredentials.Error()})
			return
		}
		c.JSON(status, gin.H{"error": "unauthorized"})
	default:
		c.JSON(status, gin.H{"error": err.Error()})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// bindJSON decodes the body into dst, answering 400 on failure.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		badRequest(c, "invalid request: "+err.Error())
		return false
	}
	return true
}

// paramID parses the :id path parameter, answering 400 on failure.
func paramID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid id")
		return 0, false
	}
	return id, true
}

// listParams parses list query parameters with the given filter keys.
func listParams(c *gin.Context, log *zap.Logger, filterKeys ...string) (query.ListParams, bool) {
	p, err := query.FromValues(c.Request.URL.Query(), filterKeys...)
	if err != nil {
		respondError(c, log, err)
		return query.ListParams{}, false
	}
	return p, true
}
