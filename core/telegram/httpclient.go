package telegram

import (
	"log/slog"
	"net"
	"net/http"
	"path"
	"time"

	"github.com/m3rciful/utilbot/core/logger"
	"github.com/m3rciful/utilbot/core/telegram/netutil"
)

const (
	dialTimeout     = 5 * time.Second
	tlsHandshake    = 5 * time.Second
	idleConnTimeout = 90 * time.Second
	keepAlive       = 30 * time.Second

	// Headers of a getUpdates response arrive only after the poll window, so
	// both timeouts are the poll window plus this slack.
	pollSlack = 10 * time.Second

	defaultRetries = 3
	defaultBackoff = 2 * time.Second
)

// HTTPClientOptions tunes BuildHTTPClient.
type HTTPClientOptions struct {
	// LongPoll is the getUpdates window; zero means webhook mode.
	LongPoll time.Duration
	Retries  int
	Backoff  time.Duration
}

func (o HTTPClientOptions) withDefaults() HTTPClientOptions {
	if o.Retries <= 0 {
		o.Retries = defaultRetries
	}
	if o.Backoff <= 0 {
		o.Backoff = defaultBackoff
	}
	if o.LongPoll < 0 {
		o.LongPoll = 0
	}
	return o
}

// BuildHTTPClient returns the client the bot uses for Bot API calls. Transient
// failures (dial errors, timeouts, 5xx, flood waits) are retried with linear
// backoff.
func BuildHTTPClient(opts HTTPClientOptions) *http.Client {
	opts = opts.withDefaults()
	window := opts.LongPoll + pollSlack

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: dialTimeout, KeepAlive: keepAlive}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConnsPerHost:   16,
		IdleConnTimeout:       idleConnTimeout,
		TLSHandshakeTimeout:   tlsHandshake,
		ResponseHeaderTimeout: window,
	}
	return &http.Client{
		Timeout: window + dialTimeout,
		Transport: &retryTransport{
			base:    transport,
			retries: opts.Retries,
			backoff: opts.Backoff,
		},
	}
}

type retryTransport struct {
	base    http.RoundTripper
	retries int
	backoff time.Duration
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var lastErr error
	for attempt := 0; attempt <= t.retries; attempt++ {
		try := req
		if attempt > 0 {
			// A consumed body cannot be replayed.
			if req.Body != nil && req.GetBody == nil {
				return nil, lastErr
			}
			try = req.Clone(req.Context())
			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return nil, err
				}
				try.Body = body
			}
		}

		resp, err := t.base.RoundTrip(try)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if attempt == t.retries || !netutil.ShouldRetry(err) {
			break
		}

		delay := t.backoff * time.Duration(attempt+1)
		if wait, ok := netutil.RetryAfter(err); ok && wait > delay {
			delay = wait
		}
		// The URL path carries the token; only its last segment is logged.
		logger.TG.LogAttrs(req.Context(), slog.LevelDebug, "http_retry",
			slog.String("method", path.Base(req.URL.Path)),
			slog.Int("attempt", attempt+1),
			slog.Duration("delay", delay),
		)
		timer := time.NewTimer(delay)
		select {
		case <-req.Context().Done():
			timer.Stop()
			return nil, req.Context().Err()
		case <-timer.C:
		}
	}
	return nil, lastErr
}
