package ipc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"syscall"
	"time"
)

const dialTimeout = 2 * time.Second

// DialError reports that the daemon socket could not be reached. No request
// was sent when it is returned.
type DialError struct {
	Path string
	Err  error
}

func (e *DialError) Error() string {
	switch {
	case errors.Is(e.Err, syscall.ENOENT) || errors.Is(e.Err, os.ErrNotExist):
		return fmt.Sprintf("connect to daemon: socket %s not found; start the daemon with `cmdsock start`", e.Path)
	case errors.Is(e.Err, syscall.ECONNREFUSED):
		return fmt.Sprintf("connect to daemon: socket %s refused the connection; verify the daemon is running", e.Path)
	default:
		return fmt.Sprintf("connect to daemon: %v", e.Err)
	}
}

func (e *DialError) Unwrap() error {
	return e.Err
}

func dial(ctx context.Context, socketPath string) (net.Conn, error) {
	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "unix", socketPath)
	if err != nil {
		return nil, &DialError{Path: socketPath, Err: err}
	}
	return conn, nil
}

// Probe connects and disconnects without sending a request. The daemon reads
// zero bytes and launches nothing.
func Probe(ctx context.Context, socketPath string) error {
	conn, err := dial(ctx, socketPath)
	if err != nil {
		return err
	}
	return conn.Close()
}

// Exec sends command in a single write and copies the daemon's response to w
// until the daemon closes the connection. Only the first RequestLimit bytes
// are sent since the daemon never reads past them. Canceling ctx aborts the
// transfer.
func Exec(ctx context.Context, socketPath, command string, w io.Writer) (int64, error) {
	conn, err := dial(ctx, socketPath)
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})
	defer stop()

	if len(command) > RequestLimit {
		command = command[:RequestLimit]
	}
	// A daemon that already ran the request may close before the write
	// completes; its response is still queued for reading.
	if _, err := io.WriteString(conn, command); err != nil && !peerClosed(err) {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		return 0, fmt.Errorf("send command: %w", err)
	}
	if uc, ok := conn.(*net.UnixConn); ok {
		_ = uc.CloseWrite()
	}

	n, err := io.Copy(w, conn)
	if ctx.Err() != nil {
		return n, ctx.Err()
	}
	// The daemon closes with unread request bytes pending when a request
	// exceeds RequestLimit; the response before the reset is complete.
	if err != nil && !errors.Is(err, syscall.ECONNRESET) {
		return n, fmt.Errorf("read response: %w", err)
	}
	return n, nil
}

func peerClosed(err error) bool {
	return errors.Is(err, syscall.EPIPE) || errors.Is(err, syscall.ECONNRESET)
}

// RetryPolicy bounds ExecWithRetry.
type RetryPolicy struct {
	Attempts     int
	InitialDelay time.Duration
}

// DefaultRetryPolicy tries three times, doubling a 100ms delay between attempts.
var DefaultRetryPolicy = RetryPolicy{Attempts: 3, InitialDelay: 100 * time.Millisecond}

// ExecWithRetry runs Exec, retrying only when the daemon could not be reached.
// A command that was sent is never sent again.
func ExecWithRetry(ctx context.Context, socketPath, command string, w io.Writer, policy RetryPolicy) (int64, error) {
	attempts := policy.Attempts
	if attempts < 1 {
		attempts = 1
	}
	delay := policy.InitialDelay

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		n, err := Exec(ctx, socketPath, command, w)
		var dialErr *DialError
		if err == nil || !errors.As(err, &dialErr) {
			return n, err
		}
		lastErr = err
		if attempt == attempts {
			break
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return 0, ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}
	return 0, lastErr
}
