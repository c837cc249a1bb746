package ipc

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/dshills/gamebridge/internal/logging"
)

// RetryPolicy bounds how long a client waits for the listener to
// appear. Backoff doubles after each failed attempt up to Max.
type RetryPolicy struct {
	Attempts int
	Initial  time.Duration
	Max      time.Duration
}

// DefaultRetryPolicy covers roughly six seconds of listener startup.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts: 6,
		Initial:  100 * time.Millisecond,
		Max:      2 * time.Second,
	}
}

// Dial connects to the endpoint at path. Returns ErrNotListening when
// no listener is bound.
func Dial(path string, log *logging.Logger) (*Conn, error) {
	if log == nil {
		log = logging.Null
	}
	nc, err := net.Dial("unix", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotListening, err)
	}
	return newConn(nc, log.WithComponent("ipc")), nil
}

// DialRetry connects to the endpoint, retrying with exponential backoff
// while the listener is not up yet. After the attempt budget is spent it
// returns ErrNotListening and the caller degrades to local-only
// behavior.
func DialRetry(ctx context.Context, path string, policy RetryPolicy, log *logging.Logger) (*Conn, error) {
	if log == nil {
		log = logging.Null
	}
	if policy.Attempts < 1 {
		policy = DefaultRetryPolicy()
	}

	backoff := policy.Initial
	if backoff <= 0 {
		backoff = 100 * time.Millisecond
	}

	var lastErr error
	for attempt := 1; attempt <= policy.Attempts; attempt++ {
		conn, err := Dial(path, log)
		if err == nil {
			return conn, nil
		}
		lastErr = err

		if attempt == policy.Attempts {
			break
		}
		log.WithComponent("ipc").Debug("connect attempt %d failed, retrying in %s", attempt, backoff)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}

		backoff *= 2
		if policy.Max > 0 && backoff > policy.Max {
			backoff = policy.Max
		}
	}
	return nil, lastErr
}
