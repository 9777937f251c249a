package service

import (
	"context"
	"sync"
	"time"

	"staylock/pkg/logger"
)

// Sweeper periodically removes expired locks. The TTL index on expires_at
// removes them too, but only about once a minute, so the sweeper keeps
// diagnostics listings tidy and covers stores without TTL support.
type Sweeper struct {
	svc      LockService
	interval time.Duration
	timeout  time.Duration
	log      *logger.Logger

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

func NewSweeper(svc LockService, interval time.Duration, log *logger.Logger) *Sweeper {
	return &Sweeper{
		svc:      svc,
		interval: interval,
		timeout:  30 * time.Second,
		log:      log.Component("lock_sweeper"),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start launches the sweep loop. A non-positive interval disables it.
func (s *Sweeper) Start() {
	if s.interval <= 0 {
		s.log.Info("Lock sweeper disabled")
		close(s.doneCh)
		return
	}

	go s.run()
	s.log.Info("Lock sweeper started", "interval", s.interval)
}

func (s *Sweeper) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopCh:
			return
		}
	}
}

func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if _, err := s.svc.CleanupExpiredLocks(ctx); err != nil {
		s.log.Warn("Lock sweep failed", "error", err)
	}
}

// Stop is safe to call more than once and waits for an in-flight sweep.
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
	<-s.doneCh
}
