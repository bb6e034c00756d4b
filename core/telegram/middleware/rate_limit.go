package middleware

import (
	"log/slog"
	"sync"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/utilbot/core/logger"
	tghelpers "github.com/m3rciful/utilbot/core/telegram/helpers"
)

// pruneAt is the table size at which entries older than the interval are dropped.
const pruneAt = 1024

// RateLimitOptions configures behaviour of the rate limit middleware.
type RateLimitOptions struct {
	Interval time.Duration
	// Exclude lists update kinds ("callback", "message") that are never limited.
	Exclude map[string]struct{}
	// Bypass lets single updates through, e.g. the command that leaves a scene.
	Bypass    func(c tele.Context) bool
	OnLimited tele.HandlerFunc
	// Now defaults to time.Now.
	Now func() time.Time
}

type limiter struct {
	mu       sync.Mutex
	interval time.Duration
	seen     map[int64]time.Time
}

// allow records an update of user at now and reports whether it is far enough
// from the previous one.
func (l *limiter) allow(user int64, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if last, ok := l.seen[user]; ok && now.Sub(last) < l.interval {
		return false
	}
	if len(l.seen) >= pruneAt {
		for id, last := range l.seen {
			if now.Sub(last) >= l.interval {
				delete(l.seen, id)
			}
		}
	}
	l.seen[user] = now
	return true
}

func updateKind(c tele.Context) string {
	upd := c.Update()
	switch {
	case upd.Callback != nil:
		return "callback"
	case upd.Message != nil:
		return "message"
	}
	return "other"
}

// RateLimitMiddleware enforces a minimum interval between updates of one user.
// Limited updates are dropped after OnLimited runs.
func RateLimitMiddleware(opts RateLimitOptions) tele.MiddlewareFunc {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	l := &limiter{interval: opts.Interval, seen: make(map[int64]time.Time)}

	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil || opts.Interval <= 0 {
				return next(c)
			}
			kind := updateKind(c)
			if _, skip := opts.Exclude[kind]; skip {
				return next(c)
			}
			if opts.Bypass != nil && opts.Bypass(c) {
				return next(c)
			}
			if l.allow(user.ID, now()) {
				return next(c)
			}

			logger.LogEvent(tghelpers.BuildContext(c), logger.TG, slog.LevelWarn, "tg.rate_limit",
				slog.String("outcome", "rate_limited"),
				slog.String("kind", kind),
			)
			if opts.OnLimited != nil {
				_ = opts.OnLimited(c)
			}
			return nil
		}
	}
}
