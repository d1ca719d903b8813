package workers

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

type RequestSweeper interface {
	SweepExpired(ctx context.Context) (int, error)
}

type MarkerExpirer interface {
	ExpireMarkers(ctx context.Context) (int64, error)
}

// ExpirySweeper moves overdue requests and markers to expired on a fixed tick. Reads expire
// lazily as well, so a missed tick only delays notifications.
type ExpirySweeper struct {
	requests RequestSweeper
	markers  MarkerExpirer
	interval time.Duration
	logger   *slog.Logger
}

func NewExpirySweeper(requests RequestSweeper, markers MarkerExpirer, interval time.Duration, logger *slog.Logger) *ExpirySweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &ExpirySweeper{
		requests: requests,
		markers:  markers,
		interval: interval,
		logger:   logger,
	}
}

func (s *ExpirySweeper) Run(ctx context.Context) {
	s.logger.Info("expirySweeper STARTED", slog.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if err := s.SweepOnce(ctx); err != nil && ctx.Err() == nil {
			s.logger.Error("sweep failed", slog.Any("error", err))
		}
		select {
		case <-ctx.Done():
			s.logger.Info("expirySweeper STOPPED", slog.String("reason", ctx.Err().Error()))
			return
		case <-ticker.C:
		}
	}
}

// SweepOnce runs a single pass over requests and markers.
func (s *ExpirySweeper) SweepOnce(ctx context.Context) error {
	const op = "workers.ExpirySweeper.SweepOnce"

	var errs []error

	n, err := s.requests.SweepExpired(ctx)
	if err != nil {
		errs = append(errs, err)
	}
	if n > 0 {
		s.logger.Info("requests expired", slog.String("op", op), slog.Int("count", n))
	}

	if s.markers != nil {
		m, err := s.markers.ExpireMarkers(ctx)
		if err != nil {
			errs = append(errs, err)
		}
		if m > 0 {
			s.logger.Info("markers expired", slog.String("op", op), slog.Int64("count", m))
		}
	}
	return errors.Join(errs...)
}
