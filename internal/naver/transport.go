// Package naver implements the two vendor clients the pipeline depends on:
// the search-ad keyword tool (monthly search volume) and the open-API
// shopping search (listings, categories, total match counts). Both share the
// same rate-limited, retrying transport.
package naver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	SearchAdBaseURL = "https://api.searchad.naver.com"
	OpenAPIBaseURL  = "https://openapi.naver.com"

	// Both APIs throttle aggressively; one request per second per client
	// keeps batch runs under the limit with the default fan-out of 3.
	DefaultRateLimitPerSecond = 1

	maxAttempts = 4
)

var (
	// ErrAuth means the configured credentials were rejected; retrying is
	// pointless until they change.
	ErrAuth = errors.New("naver: authentication failed")
	// ErrUnavailable wraps total provider failure after retries.
	ErrUnavailable = errors.New("naver: provider unavailable")
)

// limiter spaces outgoing requests evenly: each wait blocks until the next
// tick of the configured interval, so bursts collapse back to the limit.
type limiter struct {
	ticker *time.Ticker
}

func newLimiter(perSecond int) *limiter {
	if perSecond <= 0 {
		perSecond = DefaultRateLimitPerSecond
	}
	return &limiter{ticker: time.NewTicker(time.Second / time.Duration(perSecond))}
}

func (l *limiter) stop() {
	l.ticker.Stop()
}

func (l *limiter) wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-l.ticker.C:
		return nil
	}
}

// doWithRetry runs the request builder up to maxAttempts times, backing off
// on 429/5xx/timeouts. 400 and 403 are terminal: the request itself is
// wrong, retrying cannot help.
func doWithRetry(ctx context.Context, client *http.Client, build func() (*http.Request, error)) ([]byte, int, error) {
	var lastErr error
	status := 0
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		body, code, retryAfter, err := doOnce(ctx, client, build)
		status = code
		if err == nil {
			return body, code, nil
		}
		lastErr = err

		switch {
		case code == http.StatusForbidden || code == http.StatusUnauthorized:
			return nil, code, fmt.Errorf("%w: %v", ErrAuth, err)
		case code == http.StatusBadRequest:
			return nil, code, err
		case code == http.StatusTooManyRequests:
			if attempt == maxAttempts {
				break
			}
			sleep := retryAfter
			if sleep <= 0 {
				sleep = backoffDelay(attempt)
			}
			if err := sleepCtx(ctx, sleep); err != nil {
				return nil, code, err
			}
			continue
		case code >= 500 || isTimeoutError(err):
			if attempt == maxAttempts {
				break
			}
			if err := sleepCtx(ctx, backoffDelay(attempt)); err != nil {
				return nil, code, err
			}
			continue
		default:
			return nil, code, err
		}
		break
	}
	return nil, status, fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
}

func doOnce(ctx context.Context, client *http.Client, build func() (*http.Request, error)) ([]byte, int, time.Duration, error) {
	req, err := build()
	if err != nil {
		return nil, 0, 0, err
	}
	res, err := client.Do(req.WithContext(ctx))
	if err != nil {
		return nil, 0, 0, err
	}
	defer res.Body.Close()
	b, _ := io.ReadAll(io.LimitReader(res.Body, 2<<20))

	retryAfter := parseRetryAfter(res.Header.Get("Retry-After"))
	if res.StatusCode >= 400 {
		return nil, res.StatusCode, retryAfter, fmt.Errorf("status code: %d body=%s", res.StatusCode, clamp(string(b), 300))
	}
	return b, res.StatusCode, retryAfter, nil
}

func parseRetryAfter(v string) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return 0
}

func backoffDelay(attempt int) time.Duration {
	switch attempt {
	case 1:
		return 1 * time.Second
	case 2:
		return 2 * time.Second
	default:
		return 4 * time.Second
	}
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

func isTimeoutError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func clamp(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
