package service

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/escolafut/escola-api/config"
	"github.com/escolafut/escola-api/internal/observability/metrics"
	"github.com/escolafut/escola-api/internal/observability/statsd"
	"github.com/escolafut/escola-api/internal/ports"
)

// maxSweepBatches bounds one sweep so a huge backlog cannot pin the loop.
const maxSweepBatches = 1000

// SessionSweeperServiceOptions groups dependencies for SessionSweeperService.
type SessionSweeperServiceOptions struct {
	Sweeper ports.ExpiredSessionSweeper // Required: store with expired-row reclamation
	Config  config.SweeperConfig        // Required: sweep interval and batch size
	Logger  *slog.Logger                // Optional: structured logger
	Metrics statsd.Sink                 // Optional: metrics sink (StatsD-compatible)
}

// SessionSweeperService periodically deletes expired session rows.
type SessionSweeperService struct {
	sweeper ports.ExpiredSessionSweeper
	config  config.SweeperConfig
	logger  *slog.Logger
	metrics statsd.Sink
}

// NewSessionSweeperService constructs a new SessionSweeperService.
func NewSessionSweeperService(opts SessionSweeperServiceOptions) (*SessionSweeperService, error) {
	if opts.Sweeper == nil {
		return nil, errors.New("ExpiredSessionSweeper is required")
	}
	if opts.Config.Interval <= 0 {
		return nil, errors.New("sweep interval must be positive")
	}
	if opts.Config.BatchSize <= 0 {
		opts.Config.BatchSize = 500
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionSweeperService{
		sweeper: opts.Sweeper,
		config:  opts.Config,
		logger:  logger.With("component", "session_sweeper"),
		metrics: opts.Metrics,
	}, nil
}

// Run sweeps at the configured interval until ctx is cancelled.
// Returns nil on graceful shutdown (context.Canceled), error otherwise.
func (s *SessionSweeperService) Run(ctx context.Context) error {
	s.logger.InfoContext(ctx, "starting session sweeper",
		"interval", s.config.Interval,
		"batch_size", s.config.BatchSize,
	)

	// Jitter keeps several instances from sweeping in lockstep.
	s.waitWithJitter(ctx)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	if _, err := s.Sweep(ctx); err != nil && !isContextCancellation(err) {
		s.logger.ErrorContext(ctx, "initial session sweep failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "session sweeper stopping", "reason", ctx.Err())
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil && !isContextCancellation(err) {
				s.logger.ErrorContext(ctx, "session sweep failed", "error", err)
			}
		}
	}
}

// Sweep deletes expired sessions in batches until a short batch is returned.
func (s *SessionSweeperService) Sweep(ctx context.Context) (int64, error) {
	start := time.Now()
	var total int64
	var err error
	for range maxSweepBatches {
		var n int64
		n, err = s.sweeper.DeleteExpired(ctx, s.config.BatchSize)
		total += n
		if err != nil {
			err = fmt.Errorf("delete expired sessions: %w", err)
			break
		}
		if n < int64(s.config.BatchSize) {
			break
		}
		if ctx.Err() != nil {
			err = ctx.Err()
			break
		}
	}

	metrics.SessionSweep(s.metrics, total, time.Since(start), suppressContextCancellation(err))
	if total > 0 {
		s.logger.InfoContext(ctx, "deleted expired sessions", "count", total)
	}
	return total, err
}

// waitWithJitter delays up to 10% of the interval.
func (s *SessionSweeperService) waitWithJitter(ctx context.Context) {
	maxJitter := int64(s.config.Interval / 10)
	if maxJitter <= 0 {
		return
	}
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		s.logger.WarnContext(ctx, "failed to generate jitter, skipping", "error", err)
		return
	}
	jitter := time.Duration(int64(binary.BigEndian.Uint64(buf[:]) % uint64(maxJitter))) // #nosec G115 - bounded by maxJitter

	select {
	case <-time.After(jitter):
	case <-ctx.Done():
	}
}

func isContextCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func suppressContextCancellation(err error) error {
	if isContextCancellation(err) {
		return nil
	}
	return err
}
