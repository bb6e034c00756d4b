package telegram

import (
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/m3rciful/utilbot/core/config"
	"github.com/m3rciful/utilbot/core/telegram/commands"
	"github.com/m3rciful/utilbot/core/telegram/middleware"
)

// isCancel keeps the way out of a scene open while the user is throttled.
func isCancel(c tele.Context) bool {
	return c.Callback() == nil && commands.Name(c.Text()) == commands.Cancel
}

// DefaultMiddlewares builds the global chain: recover, optional rate limit, then logger.
func DefaultMiddlewares(cfg *coreconfig.Config, onLimited tele.HandlerFunc) []Middleware {
	mws := []Middleware{
		{Name: "recover", Use: middleware.RecoverMiddleware},
	}

	if cfg != nil {
		interval := time.Duration(cfg.RateLimit.IntervalMS) * time.Millisecond
		if interval > 0 {
			ex := make(map[string]struct{}, len(cfg.RateLimit.ExcludeUpdates))
			for _, t := range cfg.RateLimit.ExcludeUpdates {
				ex[strings.ToLower(strings.TrimSpace(t))] = struct{}{}
			}
			mws = append(mws, Middleware{
				Name: "rate_limit",
				Use: middleware.RateLimitMiddleware(middleware.RateLimitOptions{
					Interval:  interval,
					Exclude:   ex,
					Bypass:    isCancel,
					OnLimited: onLimited,
				}),
			})
		}
	}

	return append(mws, Middleware{Name: "logger", Use: middleware.LoggerMiddleware})
}
