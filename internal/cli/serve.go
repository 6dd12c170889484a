package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"malladmin/internal/handler"
	"malladmin/internal/httpserver"
	"malladmin/internal/repository"
	"malladmin/internal/service"
	"malladmin/pkg/db"
	"malladmin/pkg/outbox"
	redisclient "malladmin/pkg/redis"
	"malladmin/pkg/util"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
}

func runServe(ctx context.Context, opts *rootOptions) error {
	cfg, log, err := opts.load()
	if err != nil {
		return err
	}
	defer log.Sync()

	pool, err := db.NewConnection(cfg.DB, log)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer pool.Close()

	rdb, err := redisclient.NewRedisClient(cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer rdb.Close()

	// Repositories
	users := repository.NewUserRepository(pool)
	malls := repository.NewMallRepository(pool)
	shops := repository.NewShopRepository(pool)
	bookings := repository.NewBookingRepository(pool)
	payments := repository.NewPaymentRepository(pool)
	inquiries := repository.NewInquiryRepository(pool)
	notifications := repository.NewNotificationRepository(pool)
	settings := repository.NewSettingRepository(pool)
	audit := repository.NewAuditRepository(pool)
	reports := repository.NewReportRepository(pool)
	sessions := repository.NewSessionStore(rdb)
	outboxRepo := outbox.NewRepository(pool)

	tx := db.NewTxManager(pool)
	writer := outbox.NewWriter(outboxRepo)
	attempts := util.NewAttemptCounter(rdb, "login_failed", cfg.Security.LockoutWindow)

	// Services
	authSvc := service.NewAuthService(users, sessions, attempts, audit, service.AuthConfig{
		JWTSecret:       cfg.JWT.Secret,
		JWTIssuer:       cfg.JWT.Issuer,
		TokenTTL:        cfg.JWT.TTL,
		MaxFailedLogins: int64(cfg.Security.MaxFailedLogins),
	}, log)
	securitySvc := service.NewSecurityService(users, sessions, audit, log)

	if cfg.Admin.Email != "" {
		created, err := authSvc.Bootstrap(ctx, service.BootstrapAdmin{
			Name:     cfg.Admin.Name,
			Email:    cfg.Admin.Email,
			Password: cfg.Admin.Password,
		})
		if err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
		if created {
			log.Info("Bootstrap admin created", zap.String("email", cfg.Admin.Email))
		}
	}

	handlers := httpserver.Handlers{
		Auth:          handler.NewAuthHandler(authSvc, log),
		Users:         handler.NewUserHandler(service.NewUserService(users, sessions, tx), log),
		Malls:         handler.NewMallHandler(service.NewMallService(malls), log),
		Shops:         handler.NewShopHandler(service.NewShopService(shops), log),
		Bookings:      handler.NewBookingHandler(service.NewBookingService(bookings, tx, writer), log),
		Payments:      handler.NewPaymentHandler(service.NewPaymentService(payments, tx, writer), log),
		Inquiries:     handler.NewInquiryHandler(service.NewInquiryService(inquiries, tx, writer), log),
		Notifications: handler.NewNotificationHandler(service.NewNotificationService(notifications, users, tx, writer), log),
		Reports:       handler.NewReportHandler(service.NewReportService(reports), log),
		Settings:      handler.NewSettingHandler(service.NewSettingService(settings), log),
		Security:      handler.NewSecurityHandler(securitySvc, log),
		Dashboard: handler.NewDashboardHandler(
			service.NewDashboardService(users, malls, shops, bookings, payments, inquiries, notifications), log),
		Admin: handler.NewAdminHandler(outbox.NewReplayService(outboxRepo), log),
	}

	router := httpserver.NewRouter(httpserver.RouterDeps{
		Handlers: handlers,
		Auth:     authSvc,
		Auditor:  securitySvc,
		Checks: map[string]httpserver.ReadinessCheck{
			"db":    pool.Ping,
			"redis": func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		},
		Logger: log,
	})

	srv := httpserver.NewServer(cfg.Server.Port, router,
		cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout, log)
	return srv.Run(ctx)
}
