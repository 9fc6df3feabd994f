package commands

import (
	"context"
	"time"

	"github.com/goliatone/go-capsulo/internal/logging"
	"github.com/goliatone/go-capsulo/pkg/interfaces"
	command "github.com/goliatone/go-command"
)

// DefaultCommandTimeout bounds a command execution unless overridden.
const DefaultCommandTimeout = 30 * time.Second

// HandlerOption configures a Handler instance.
type HandlerOption[T command.Message] func(*Handler[T])

// Handler wraps an editor command with message validation, a context
// deadline, outcome logging and go-errors categories.
type Handler[T command.Message] struct {
	exec      command.CommandFunc[T]
	logger    interfaces.Logger
	timeout   time.Duration
	operation string
	now       func() time.Time
}

// NewHandler creates a handler that satisfies go-command's Commander
// interface.
func NewHandler[T command.Message](fn command.CommandFunc[T], opts ...HandlerOption[T]) *Handler[T] {
	if fn == nil {
		panic("commands: handler function cannot be nil")
	}
	h := &Handler[T]{
		exec:    fn,
		logger:  logging.NoOp(),
		timeout: DefaultCommandTimeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Execute conforms to command.Commander[T].Execute.
func (h *Handler[T]) Execute(ctx context.Context, msg T) error {
	if err := command.ValidateMessage(msg); err != nil {
		return wrapValidationError(err)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}
	if err := ctx.Err(); err != nil {
		return wrapContextError(err)
	}

	fields := map[string]any{"command": command.GetMessageType(msg)}
	if h.operation != "" {
		fields["operation"] = h.operation
	}
	logger := logging.WithFields(h.logger, fields)
	logger.Debug("command.execute.start")
	started := h.now()

	err := h.exec(ctx, msg)
	took := h.now().Sub(started).Milliseconds()
	if ctxErr := ctx.Err(); ctxErr != nil {
		logger.Error("command.execute.context_error", "duration_ms", took, "error", ctxErr)
		return wrapContextError(ctxErr)
	}
	if err != nil {
		logger.Error("command.execute.failed", "duration_ms", took, "error", err)
		return wrapExecuteError(err)
	}
	logger.Info("command.execute.success", "duration_ms", took)
	return nil
}

// WithTimeout overrides the default execution timeout. Zero disables it.
func WithTimeout[T command.Message](timeout time.Duration) HandlerOption[T] {
	return func(h *Handler[T]) {
		h.timeout = max(timeout, 0)
	}
}

// WithLogger injects the logger used during execution. Defaults to a no-op logger.
func WithLogger[T command.Message](logger interfaces.Logger) HandlerOption[T] {
	return func(h *Handler[T]) {
		h.logger = logging.OrNoOp(logger)
	}
}

// WithOperation sets the operation name emitted with every log entry.
func WithOperation[T command.Message](operation string) HandlerOption[T] {
	return func(h *Handler[T]) {
		h.operation = operation
	}
}
