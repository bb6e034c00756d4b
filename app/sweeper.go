package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/m3rciful/utilbot/core/logger"
)

// cronParser accepts 5-field expressions, an optional seconds field and
// descriptors such as @every 30m.
var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

type sweepable interface {
	Sweep(olderThan time.Duration) int
}

// sweeper periodically evicts idle sessions from the store.
type sweeper struct {
	store sweepable
	after time.Duration
	cron  *cron.Cron
}

func newSweeper(store sweepable, schedule string, after time.Duration) (*sweeper, error) {
	s := &sweeper{store: store, after: after, cron: cron.New(cron.WithParser(cronParser))}
	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return nil, fmt.Errorf("app: session sweep schedule %q: %w", schedule, err)
	}
	return s, nil
}

func (s *sweeper) run() {
	start := time.Now()
	n := s.store.Sweep(s.after)
	logger.Debug(context.Background(), logger.CompSession, "session.sweep",
		slog.Int("evicted", n),
		slog.Duration("duration", logger.Took(start)),
	)
}

func (s *sweeper) Start() { s.cron.Start() }

// Stop waits for a running sweep to finish.
func (s *sweeper) Stop() {
	<-s.cron.Stop().Done()
}
