// Package sender runs fire-and-forget Telegram calls on a worker pool with retries.
package sender

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"sync"
	"sync/atomic"
	"time"

	"github.com/m3rciful/utilbot/core/logger"
	"github.com/m3rciful/utilbot/core/telegram/netutil"
)

var (
	ErrQueueClosed = errors.New("sender: queue closed")
	ErrQueueFull   = errors.New("sender: queue full")

	tokenRe = regexp.MustCompile(`bot[0-9]+:[A-Za-z0-9_-]+`)
)

// Options tunes the dispatcher; zero values get defaults.
type Options struct {
	QueueSize    int
	Workers      int
	MaxRetries   int
	RetryBackoff time.Duration
	// MaxDuration bounds the time spent on one job including retries.
	MaxDuration time.Duration
}

type job struct {
	ctx    context.Context
	action string
	run    func() error
}

// Dispatcher executes queued calls asynchronously.
type Dispatcher struct {
	opts  Options
	jobs  chan job
	mu    sync.RWMutex
	done  bool
	wg    sync.WaitGroup
	fails atomic.Uint64
	sleep func(context.Context, time.Duration) error
}

// NewDispatcher starts the worker pool.
func NewDispatcher(opts Options) *Dispatcher {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = 2 * time.Second
	}
	if opts.MaxDuration <= 0 {
		opts.MaxDuration = 12 * time.Second
	}
	d := &Dispatcher{opts: opts, jobs: make(chan job, opts.QueueSize), sleep: sleepCtx}
	d.wg.Add(opts.Workers)
	for i := 0; i < opts.Workers; i++ {
		go func() {
			defer d.wg.Done()
			for j := range d.jobs {
				d.process(j)
			}
		}()
	}
	return d
}

// Enqueue schedules run. run must be safe to repeat when retries are enabled.
func (d *Dispatcher) Enqueue(ctx context.Context, action string, run func() error) error {
	if run == nil {
		return errors.New("sender: nil run function")
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.done {
		return ErrQueueClosed
	}
	select {
	case d.jobs <- job{ctx: context.WithoutCancel(ctx), action: action, run: run}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Do enqueues run, falling back to a synchronous call when the queue cannot take it.
func (d *Dispatcher) Do(ctx context.Context, action string, run func() error) error {
	if d == nil {
		return run()
	}
	err := d.Enqueue(ctx, action, run)
	if errors.Is(err, ErrQueueFull) || errors.Is(err, ErrQueueClosed) {
		logger.Warn(ctx, "tg.sender", "queue.fallback", slog.String("action", action), slog.Any("err", err))
		return run()
	}
	return err
}

// Failures returns the number of jobs that exhausted their retries.
func (d *Dispatcher) Failures() uint64 {
	return d.fails.Load()
}

// Close stops accepting jobs and waits for queued ones to finish.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.done {
		d.mu.Unlock()
		return
	}
	d.done = true
	close(d.jobs)
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) process(j job) {
	ctx, cancel := context.WithTimeout(j.ctx, d.opts.MaxDuration)
	defer cancel()

	start := time.Now()
	attempts := d.opts.MaxRetries + 1
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = j.run(); err == nil {
			logger.Debug(j.ctx, "tg.sender", "send.ok",
				slog.String("action", j.action),
				slog.Int("attempts", attempt),
				slog.Duration("duration", logger.Took(start)),
			)
			return
		}
		if !netutil.ShouldRetry(err) || attempt == attempts {
			break
		}
		wait := d.opts.RetryBackoff * time.Duration(attempt)
		if after, ok := netutil.RetryAfter(err); ok {
			wait = after
		}
		if serr := d.sleep(ctx, wait); serr != nil {
			err = errors.Join(err, serr)
			break
		}
	}
	d.fails.Add(1)
	logger.Error(j.ctx, "tg.sender", "send.fail",
		slog.String("action", j.action),
		slog.String("err", redact(err)),
		slog.Duration("duration", logger.Took(start)),
	)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// redact hides bot tokens that may leak through URL errors.
func redact(err error) string {
	if err == nil {
		return ""
	}
	return tokenRe.ReplaceAllString(err.Error(), "bot<redacted>")
}
