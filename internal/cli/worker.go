package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"malladmin/internal/events"
	"malladmin/internal/mqhandler"
	"malladmin/internal/repository"
	"malladmin/internal/service"
	"malladmin/pkg/db"
	"malladmin/pkg/mq"
	"malladmin/pkg/outbox"
	redisclient "malladmin/pkg/redis"
	"malladmin/pkg/util"
)

func newWorkerCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run the outbox dispatcher and event consumers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorker(cmd.Context(), opts)
		},
	}
}

type subscription struct {
	queue      string
	routingKey string
	handle     mq.MessageHandler
}

func runWorker(ctx context.Context, opts *rootOptions) error {
	cfg, log, err := opts.load()
	if err != nil {
		return err
	}
	defer log.Sync()

	log.Info("Starting worker")

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

	publisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		return fmt.Errorf("init mq publisher: %w", err)
	}
	defer publisher.Close()

	users := repository.NewUserRepository(pool)
	outboxRepo := outbox.NewRepository(pool)
	notifications := service.NewNotificationService(
		repository.NewNotificationRepository(pool), users, db.NewTxManager(pool), outbox.NewWriter(outboxRepo))
	deduper := util.NewDeduper(rdb, cfg.Worker.DedupTTL, log)

	alerts := mqhandler.NewStaffAlertHandler(users, notifications, deduper, log)
	delivered := mqhandler.NewNotificationDeliveredHandler(notifications, log)

	subs := []subscription{
		{"booking.created.staff_alert.q", events.BookingCreated, alerts.HandleBookingCreated},
		{"payment.recorded.staff_alert.q", events.PaymentRecorded, alerts.HandlePaymentRecorded},
		{"inquiry.created.staff_alert.q", events.InquiryCreated, alerts.HandleInquiryCreated},
		{"notification.created.delivered.q", events.NotificationCreated, delivered.HandleNotificationCreated},
	}

	consumers := make([]*mq.Consumer, 0, len(subs))
	defer func() {
		for _, c := range consumers {
			c.Close()
		}
	}()
	for _, s := range subs {
		consumer, err := mq.NewConsumer(cfg.MQ.URL, s.queue, s.routingKey, log)
		if err != nil {
			return fmt.Errorf("init consumer %s: %w", s.queue, err)
		}
		consumer.SetHandler(s.handle)
		consumers = append(consumers, consumer)
	}

	dispatcher := outbox.NewDispatcher(outboxRepo, publisher, log).
		WithInterval(cfg.Worker.DispatchInterval).
		WithBatchSize(cfg.Worker.BatchSize).
		WithMaxRetries(cfg.Worker.MaxRetries)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		dispatcher.Start(ctx)
		return nil
	})
	for i, consumer := range consumers {
		consumer := consumer
		queue := subs[i].queue
		g.Go(func() error {
			if err := consumer.StartConsuming(ctx); err != nil {
				return fmt.Errorf("consumer %s: %w", queue, err)
			}
			return nil
		})
	}

	log.Info("Worker ready", zap.Int("consumers", len(subs)))
	err = g.Wait()
	log.Info("Worker stopped")
	return err
}
