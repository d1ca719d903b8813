package workers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"camwatch/internal/domain"
	"camwatch/pkg/e"
)

type NotificationSource interface {
	BRPop(ctx context.Context, timeout time.Duration) (domain.NotificationIntent, error)
	Requeue(ctx context.Context, in domain.NotificationIntent) error
	DeadLetter(ctx context.Context, in domain.NotificationIntent) error
}

type SenderConfig struct {
	URL      string
	PoolSize int
	// Retries is the number of POST attempts per dequeue.
	Retries int
	// MaxRequeues is how many times an undelivered intent goes back on the queue
	// before it is dead-lettered.
	MaxRequeues int
	Backoff     time.Duration
	PopTimeout  time.Duration
}

// NotificationSender drains the intent queue and POSTs each intent to the webhook
// that fans out to email and push.
type NotificationSender struct {
	logger *slog.Logger
	cfg    SenderConfig
	queue  NotificationSource
	http   *http.Client
}

func NewNotificationSender(logger *slog.Logger, cfg SenderConfig, q NotificationSource) *NotificationSender {
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = 1
	}
	if cfg.Retries <= 0 {
		cfg.Retries = 3
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = time.Second
	}
	if cfg.PopTimeout <= 0 {
		cfg.PopTimeout = 5 * time.Second
	}
	return &NotificationSender{
		logger: logger,
		cfg:    cfg,
		queue:  q,
		http:   &http.Client{Timeout: 5 * time.Second},
	}
}

func (s *NotificationSender) Run(ctx context.Context) {
	s.logger.Info("notificationSender STARTED",
		slog.String("url", s.cfg.URL),
		slog.Int("pool_size", s.cfg.PoolSize),
	)

	var wg sync.WaitGroup
	for i := 0; i < s.cfg.PoolSize; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.worker(ctx)
		}()
	}
	wg.Wait()

	s.logger.Info("notificationSender STOPPED", slog.String("reason", ctx.Err().Error()))
}

func (s *NotificationSender) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		in, err := s.queue.BRPop(ctx, s.cfg.PopTimeout)
		if err != nil {
			if errors.Is(err, e.ErrQueueEmpty) || ctx.Err() != nil {
				continue
			}
			s.logger.Error("BRPop failed", slog.Any("error", err))
			sleep(ctx, 500*time.Millisecond)
			continue
		}
		s.Handle(ctx, in)
	}
}

// Handle delivers one intent, putting it back on the queue or in the dead letter list
// when every attempt fails.
func (s *NotificationSender) Handle(ctx context.Context, in domain.NotificationIntent) {
	const op = "workers.NotificationSender.Handle"

	log := s.logger.With(
		slog.String("op", op),
		slog.String("notification_id", in.ID.String()),
		slog.String("type", string(in.Type)),
	)

	err := s.sendWithRetry(ctx, in)
	if err == nil {
		return
	}

	// Queue operations must survive the shutdown that may have interrupted delivery.
	qctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if in.Attempts < s.cfg.MaxRequeues {
		if rerr := s.queue.Requeue(qctx, in); rerr != nil {
			log.Error("requeue failed", slog.Any("error", rerr))
		}
		return
	}
	log.Warn("notification dead-lettered", slog.Int("attempts", in.Attempts), slog.Any("error", err))
	if derr := s.queue.DeadLetter(qctx, in); derr != nil {
		log.Error("dead letter failed", slog.Any("error", derr))
	}
}

func (s *NotificationSender) sendWithRetry(ctx context.Context, in domain.NotificationIntent) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= s.cfg.Retries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		lastErr = s.post(ctx, body)
		if lastErr == nil {
			return nil
		}

		s.logger.Warn("notification delivery failed",
			slog.Int("attempt", attempt),
			slog.String("url", s.cfg.URL),
			slog.String("reason", lastErr.Error()),
		)
		if attempt < s.cfg.Retries {
			sleep(ctx, time.Duration(attempt)*s.cfg.Backoff)
		}
	}
	return lastErr
}

func (s *NotificationSender) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	_ = resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook responded %s", resp.Status)
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
