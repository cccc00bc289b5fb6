package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cli/go-gh/v2/pkg/api"
)

// ErrAbandoned marks a request dropped after a repeated abuse-detection
// signal. Enrichment callers treat it as a missing sub-result and keep
// going; top-level queries propagate it.
var ErrAbandoned = errors.New("request abandoned after repeated abuse detection")

const (
	// maxRateLimitRetries bounds recovery from standard rate limiting
	maxRateLimitRetries = 5
	// rateLimitDelayStep is added to the shared throttle on every
	// rate-limit retry, so later sequenced requests slow down too
	rateLimitDelayStep = 500 * time.Millisecond
	// noRetryAfterHint means the response did not say how long to pause
	noRetryAfterHint = time.Duration(-1)
)

// signal classifies a remote error response
type signal int

const (
	signalNone signal = iota
	signalRateLimited
	signalAbuseDetected
)

// classify inspects err for the two throttling signals the remote emits:
// standard rate limiting (quota exhausted) and abuse detection (secondary
// rate limit). retryAfter is the pause the remote requested,
// noRetryAfterHint when it did not say.
func classify(err error) (signal, time.Duration) {
	var httpErr *api.HTTPError
	if !errors.As(err, &httpErr) {
		return signalNone, noRetryAfterHint
	}
	if httpErr.StatusCode != http.StatusForbidden && httpErr.StatusCode != http.StatusTooManyRequests {
		return signalNone, noRetryAfterHint
	}

	hint := retryAfterHint(httpErr)
	message := strings.ToLower(httpErr.Message)
	if strings.Contains(message, "secondary rate limit") || strings.Contains(message, "abuse") {
		return signalAbuseDetected, hint
	}
	if httpErr.Headers.Get("X-Ratelimit-Remaining") == "0" ||
		httpErr.Headers.Get("Retry-After") != "" ||
		httpErr.StatusCode == http.StatusTooManyRequests {
		return signalRateLimited, hint
	}
	return signalNone, noRetryAfterHint
}

// retryAfterHint extracts the requested pause from the response headers,
// preferring Retry-After over the rate-limit reset timestamp
func retryAfterHint(httpErr *api.HTTPError) time.Duration {
	if value := httpErr.Headers.Get("Retry-After"); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil && seconds >= 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	if value := httpErr.Headers.Get("X-Ratelimit-Reset"); value != "" {
		if reset, err := strconv.ParseInt(value, 10, 64); err == nil {
			if until := time.Until(time.Unix(reset, 0)); until > 0 {
				return until
			}
			return 0
		}
	}
	return noRetryAfterHint
}

// withRetries runs request, recovering from the two throttling signals:
// rate limiting up to maxRateLimitRetries times with an additive increase of
// the shared throttle per attempt, abuse detection exactly once with the
// throttle doubled. A second abuse signal abandons the request with
// ErrAbandoned. Every other failure is returned as-is.
func (c *Client) withRetries(ctx context.Context, description string, request func(context.Context) error) error {
	rateLimitRetries := 0
	abuseRetried := false

	for {
		err := request(ctx)
		if err == nil {
			return nil
		}

		sig, retryAfter := classify(err)
		switch sig {
		case signalRateLimited:
			if rateLimitRetries >= maxRateLimitRetries {
				return fmt.Errorf("%s: still rate limited after %d retries: %w", description, rateLimitRetries, err)
			}
			rateLimitRetries++
			c.throttle.Increase(rateLimitDelayStep)
			c.logger.WithField("request", description).Warnf("GitHub rate limit hit, retrying (%d/%d) with inter-request delay raised to %s", rateLimitRetries, maxRateLimitRetries, c.throttle.Delay())
			if err := c.pause(ctx, retryAfter); err != nil {
				return err
			}
		case signalAbuseDetected:
			if abuseRetried {
				c.logger.WithField("request", description).Warn("GitHub abuse detection triggered twice, dropping the request")
				return fmt.Errorf("%s: %w", description, ErrAbandoned)
			}
			abuseRetried = true
			c.throttle.Double()
			c.logger.WithField("request", description).Warnf("GitHub abuse detection triggered, retrying once with inter-request delay doubled to %s", c.throttle.Delay())
			if err := c.pause(ctx, retryAfter); err != nil {
				return err
			}
		default:
			return err
		}
	}
}

// pause waits out the remote's requested pause, falling back to the current
// shared delay when the response carried no hint
func (c *Client) pause(ctx context.Context, retryAfter time.Duration) error {
	wait := retryAfter
	if wait < 0 {
		wait = c.throttle.Delay()
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
