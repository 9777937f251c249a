package kafka_middleware

import (
	"context"
	"sync/atomic"
	"time"

	"staylock/pkg/kafka"
)

// Counters tracks message throughput for one producer or consumer. Services
// log a Snapshot on shutdown.
type Counters struct {
	succeeded atomic.Int64
	failed    atomic.Int64
	totalNs   atomic.Int64
}

type Snapshot struct {
	Succeeded   int64         `json:"succeeded"`
	Failed      int64         `json:"failed"`
	AvgDuration time.Duration `json:"avg_duration"`
}

func (c *Counters) observe(start time.Time, err error) {
	c.totalNs.Add(int64(time.Since(start)))
	if err != nil {
		c.failed.Add(1)
		return
	}
	c.succeeded.Add(1)
}

func (c *Counters) Snapshot() Snapshot {
	s := Snapshot{
		Succeeded: c.succeeded.Load(),
		Failed:    c.failed.Load(),
	}
	if total := s.Succeeded + s.Failed; total > 0 {
		s.AvgDuration = time.Duration(c.totalNs.Load() / total)
	}
	return s
}

func (c *Counters) ProducerMiddleware() kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next kafka.MessageHandler) error {
		start := time.Now()
		err := next(ctx, msg)
		c.observe(start, err)
		return err
	}
}

func (c *Counters) ConsumerMiddleware() kafka.ConsumerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next kafka.MessageHandler) error {
		start := time.Now()
		err := next(ctx, msg)
		c.observe(start, err)
		return err
	}
}
