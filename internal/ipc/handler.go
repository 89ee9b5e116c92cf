package ipc

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"os/exec"
	"time"

	"github.com/google/uuid"

	"cmdsock/internal/history"
	"cmdsock/internal/logging"
)

// RequestLimit is the number of request bytes a connection's single read
// considers. Anything the client sends beyond it is discarded.
const RequestLimit = 8191

// DefaultShell runs requests when no shell is configured.
const DefaultShell = "/bin/sh"

// Recorder receives one entry per handled connection after it is closed.
type Recorder interface {
	Record(ctx context.Context, entry history.Entry) error
}

// Handler executes one request per connection and streams its output back.
type Handler struct {
	shell    string
	stderr   io.Writer
	recorder Recorder
	logger   *slog.Logger
}

// HandlerOption customizes a Handler.
type HandlerOption func(*Handler)

// WithStderr sets where command stderr is written. A nil writer discards it.
func WithStderr(w io.Writer) HandlerOption {
	return func(h *Handler) {
		h.stderr = w
	}
}

// WithRecorder records every handled connection.
func WithRecorder(r Recorder) HandlerOption {
	return func(h *Handler) {
		h.recorder = r
	}
}

// NewHandler builds a handler running requests through shell.
func NewHandler(shell string, logger *slog.Logger, opts ...HandlerOption) *Handler {
	if shell == "" {
		shell = DefaultShell
	}
	h := &Handler{
		shell:  shell,
		logger: logging.NewComponentLogger(logger, "handler"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle reads one request from conn, runs it, streams stdout back, and
// closes conn on every path.
func (h *Handler) Handle(conn net.Conn) {
	entry := history.Entry{ID: uuid.NewString(), StartedAt: time.Now()}
	ctx := logging.WithConnID(context.Background(), entry.ID)

	func() {
		defer conn.Close()
		h.serve(ctx, conn, &entry)
	}()

	entry.FinishedAt = time.Now()
	h.report(ctx, entry)
}

func (h *Handler) serve(ctx context.Context, conn net.Conn, entry *history.Entry) {
	buf := make([]byte, RequestLimit+1)

	n, _ := conn.Read(buf[:RequestLimit])
	if n <= 0 {
		entry.Outcome = history.OutcomeEmptyRequest
		return
	}
	entry.RequestBytes = n
	entry.Command = commandLine(buf[:n])

	logger := logging.WithContext(ctx, h.logger)
	logger.Debug("command received", logging.String("command", entry.Command), logging.Int("request_bytes", n))

	cmd := exec.Command(h.shell, "-c", entry.Command)
	cmd.Stderr = h.stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		entry.Outcome = history.OutcomeLaunchFailed
		logger.Debug("stdout pipe failed", logging.Error(err))
		return
	}
	if err := cmd.Start(); err != nil {
		entry.Outcome = history.OutcomeLaunchFailed
		logger.Debug("command launch failed", logging.Error(err))
		return
	}

	written, writeErr := stream(conn, stdout, buf)
	entry.ResponseBytes = written
	entry.Outcome = history.OutcomeCompleted
	if writeErr != nil {
		// Keep reading so the command is not blocked on a full pipe.
		entry.Outcome = history.OutcomeClientGone
		_, _ = io.Copy(io.Discard, stdout)
	}

	waitErr := cmd.Wait()
	code := cmd.ProcessState.ExitCode()
	entry.ExitCode = &code
	var exitErr *exec.ExitError
	if waitErr != nil && !errors.As(waitErr, &exitErr) {
		logger.Debug("command wait failed", logging.Error(waitErr))
	}
}

// stream copies src to dst chunk by chunk through buf, writing each chunk as
// soon as it is read. It returns the bytes written and the first write error.
// A read error ends the stream.
func stream(dst io.Writer, src io.Reader, buf []byte) (int64, error) {
	var written int64
	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			w, err := dst.Write(buf[:n])
			written += int64(w)
			if err != nil {
				return written, err
			}
		}
		if readErr != nil {
			return written, nil
		}
	}
}

// commandLine treats the request as a NUL-terminated string.
func commandLine(request []byte) string {
	if i := bytes.IndexByte(request, 0); i >= 0 {
		request = request[:i]
	}
	return string(request)
}

func (h *Handler) report(ctx context.Context, entry history.Entry) {
	logger := logging.WithContext(ctx, h.logger)
	attrs := []logging.Attr{
		logging.String("outcome", string(entry.Outcome)),
		logging.Int("request_bytes", entry.RequestBytes),
		logging.Int64("response_bytes", entry.ResponseBytes),
		logging.Duration("duration", entry.Duration()),
	}
	if entry.ExitCode != nil {
		attrs = append(attrs, logging.Int("exit_code", *entry.ExitCode))
	}

	switch entry.Outcome {
	case history.OutcomeEmptyRequest:
		logger.Debug("empty request", logging.Args(attrs...)...)
	case history.OutcomeLaunchFailed:
		logging.WarnWithContext(logger, "command launch failed", "command_launch_failed",
			append(attrs,
				logging.String("shell", h.shell),
				logging.String(logging.FieldImpact, "client received no output"),
				logging.String(logging.FieldErrorHint, "check server.shell points at an executable shell"),
			)...)
	default:
		logger.Info("connection closed", logging.Args(attrs...)...)
	}

	if h.recorder == nil {
		return
	}
	err := h.recorder.Record(ctx, entry)
	switch {
	case err == nil:
	case errors.Is(err, history.ErrClosed):
		logger.Debug("history closed before entry was recorded")
	default:
		logging.WarnWithContext(logger, "history record failed", "history_record_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "connection missing from history"),
			logging.String(logging.FieldErrorHint, "check the history database path and disk space"),
		)
	}
}
