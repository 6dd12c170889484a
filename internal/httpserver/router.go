package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"malladmin/internal/handler"
	"malladmin/pkg/rbac"
)

// APIPrefix is the mount point of the JSON API.
const APIPrefix = "/api/v1"

// Handlers groups the HTTP handlers the router mounts.
type Handlers struct {
	Auth          *handler.AuthHandler
	Users         *handler.UserHandler
	Malls         *handler.MallHandler
	Shops         *handler.ShopHandler
	Bookings      *handler.BookingHandler
	Payments      *handler.PaymentHandler
	Inquiries     *handler.InquiryHandler
	Notifications *handler.NotificationHandler
	Reports       *handler.ReportHandler
	Settings      *handler.SettingHandler
	Security      *handler.SecurityHandler
	Dashboard     *handler.DashboardHandler
	Admin         *handler.AdminHandler
}

// ReadinessCheck is one dependency probed by /readyz.
type ReadinessCheck func(ctx context.Context) error

type RouterDeps struct {
	Handlers Handlers
	Auth     Authenticator
	Auditor  Auditor
	Checks   map[string]ReadinessCheck
	Logger   *zap.Logger
}

// crud is the handler set shared by the entity resources.
type crud interface {
	List(*gin.Context)
	Get(*gin.Context)
	Create(*gin.Context)
	Update(*gin.Context)
	Delete(*gin.Context)
}

func mountCRUD(g *gin.RouterGroup, path string, h crud, read, write string) *gin.RouterGroup {
	r := g.Group(path)
	r.GET("", RequirePermission(read), h.List)
	r.GET("/:id", RequirePermission(read), h.Get)
	r.POST("", RequirePermission(write), h.Create)
	r.PUT("/:id", RequirePermission(write), h.Update)
	r.DELETE("/:id", RequirePermission(write), h.Delete)
	return r
}

func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), TraceMiddleware(), MetricsMiddleware(), RequestLogger(deps.Logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.HEAD("/healthz", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	r.GET("/readyz", readyz(deps.Checks))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	h := deps.Handlers
	api := r.Group(APIPrefix)
	api.Use(AuditMiddleware(deps.Auditor, APIPrefix))

	// Public
	api.POST("/auth/login", h.Auth.Login)

	// Protected
	auth := api.Group("")
	auth.Use(AuthMiddleware(deps.Auth, deps.Logger))
	{
		auth.POST("/auth/logout", h.Auth.Logout)
		auth.GET("/auth/me", h.Auth.Me)

		auth.GET("/dashboard", RequirePermission(rbac.PermDashboardRead), h.Dashboard.Stats)

		mountCRUD(auth, "/users", h.Users, rbac.PermUsersRead, rbac.PermUsersWrite)
		mountCRUD(auth, "/malls", h.Malls, rbac.PermMallsRead, rbac.PermMallsWrite)
		mountCRUD(auth, "/shops", h.Shops, rbac.PermShopsRead, rbac.PermShopsWrite)
		bookings := mountCRUD(auth, "/bookings", h.Bookings, rbac.PermBookingsRead, rbac.PermBookingsWrite)
		bookings.PATCH("/:id/status", RequirePermission(rbac.PermBookingsWrite), h.Bookings.UpdateStatus)
		mountCRUD(auth, "/payments", h.Payments, rbac.PermPaymentsRead, rbac.PermPaymentsWrite)
		inquiries := mountCRUD(auth, "/inquiries", h.Inquiries, rbac.PermInquiriesRead, rbac.PermInquiriesWrite)
		inquiries.POST("/:id/respond", RequirePermission(rbac.PermInquiriesWrite), h.Inquiries.Respond)

		notifications := auth.Group("/notifications")
		notifications.GET("", h.Notifications.List)
		notifications.GET("/unread-count", h.Notifications.UnreadCount)
		notifications.POST("", RequirePermission(rbac.PermNotificationsWrite), h.Notifications.Create)
		notifications.POST("/read-all", h.Notifications.MarkAllRead)
		notifications.POST("/:id/read", h.Notifications.MarkRead)
		notifications.DELETE("/:id", h.Notifications.Delete)

		reports := auth.Group("/reports", RequirePermission(rbac.PermReportsRead))
		reports.GET("/revenue", h.Reports.Revenue)
		reports.GET("/occupancy", h.Reports.Occupancy)
		reports.GET("/bookings", h.Reports.Bookings)

		settings := auth.Group("/settings")
		settings.GET("", RequirePermission(rbac.PermSettingsRead), h.Settings.List)
		settings.GET("/:key", RequirePermission(rbac.PermSettingsRead), h.Settings.Get)
		settings.PUT("/:key", RequirePermission(rbac.PermSettingsWrite), h.Settings.Upsert)
		settings.DELETE("/:key", RequirePermission(rbac.PermSettingsWrite), h.Settings.Delete)

		security := auth.Group("/security")
		security.PUT("/password", h.Security.ChangePassword)
		security.GET("/sessions", h.Security.Sessions)
		security.DELETE("/sessions/:id", h.Security.RevokeSession)
		security.GET("/audit-logs", RequirePermission(rbac.PermAuditRead), h.Security.AuditLogs)

		admin := auth.Group("/admin/outbox", RequirePermission(rbac.PermOutboxAdmin))
		admin.GET("/failed", h.Admin.ListFailedEvents)
		admin.POST("/replay", h.Admin.ReplayOutboxEvent)
		admin.POST("/replay-failed", h.Admin.ReplayFailedEvents)
	}

	return r
}

func readyz(checks map[string]ReadinessCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 1*time.Second)
		defer cancel()

		for name, check := range checks {
			if err := check(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": name + "_not_ready", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	}
}
