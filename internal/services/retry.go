package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// StatusError carries the status and body of a non-2xx proxy response.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
}

// RetryPolicy bounds how often and how long a request is retried.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryPolicy returns three attempts with backoff starting at half a second.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: 500 * time.Millisecond, MaxDelay: 8 * time.Second}
}

// retryableStatus reports whether status may be retried for the given method.
// Writes are only retried when the server refused them outright.
func retryableStatus(method string, status int) bool {
	switch status {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable:
		return true
	case http.StatusBadGateway, http.StatusGatewayTimeout, http.StatusInternalServerError, http.StatusRequestTimeout:
		return method == http.MethodGet
	}
	return false
}

func retryableNetErr(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection reset") || strings.Contains(msg, "connection refused") || strings.Contains(msg, "eof")
}

// doWithRetry sends the request built by build until it succeeds, fails permanently, or the policy is exhausted.
// The returned body is fully read and the response closed.
func doWithRetry(
	ctx context.Context,
	client *http.Client,
	policy RetryPolicy,
	build func(context.Context) (*http.Request, error),
) (*http.Response, []byte, error) {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		req, err := build(ctx)
		if err != nil {
			return nil, nil, err
		}

		resp, err := client.Do(req)
		if err != nil {
			lastErr = err
			if req.Method == http.MethodGet && retryableNetErr(err) && attempt < policy.MaxAttempts {
				if err := backoff(ctx, policy, attempt, 0); err != nil {
					return nil, nil, err
				}
				continue
			}
			return nil, nil, err
		}

		body, err := readAll(resp.Body)
		if err != nil {
			return resp, nil, fmt.Errorf("failed to read response: %w", err)
		}
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, body, nil
		}

		lastErr = &StatusError{Method: req.Method, Path: req.URL.Path, StatusCode: resp.StatusCode, Detail: errorDetail(body)}
		if retryableStatus(req.Method, resp.StatusCode) && attempt < policy.MaxAttempts {
			if err := backoff(ctx, policy, attempt, parseRetryAfter(resp)); err != nil {
				return nil, nil, err
			}
			continue
		}
		return resp, body, lastErr
	}
	return nil, nil, lastErr
}

func readAll(rc io.ReadCloser) ([]byte, error) {
	defer rc.Close()
	return io.ReadAll(rc)
}

// backoff sleeps for retryAfter when the server sent one, otherwise for an exponential delay with jitter.
func backoff(ctx context.Context, p RetryPolicy, attempt int, retryAfter time.Duration) error {
	sleep := retryAfter
	if sleep <= 0 {
		sleep = p.BaseDelay << (attempt - 1)
		if p.MaxDelay > 0 && sleep > p.MaxDelay {
			sleep = p.MaxDelay
		}
		if p.BaseDelay > 0 {
			sleep += time.Duration(rand.Int64N(int64(p.BaseDelay)/2 + 1))
		}
	}
	if p.MaxDelay > 0 && sleep > p.MaxDelay {
		sleep = p.MaxDelay
	}

	t := time.NewTimer(sleep)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// parseRetryAfter reads a Retry-After header given in seconds or as an HTTP date.
func parseRetryAfter(resp *http.Response) time.Duration {
	v := strings.TrimSpace(resp.Header.Get("Retry-After"))
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
