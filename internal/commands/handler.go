package commands

import (
	"context"
	"time"

	"github.com/drydeck/drydeck/internal/logging"
	"github.com/drydeck/drydeck/pkg/interfaces"
	command "github.com/goliatone/go-command"
)

// DefaultTimeout bounds a single command execution.
const DefaultTimeout = 30 * time.Second

// Status classifies a command outcome for observers.
type Status string

const (
	StatusSuccess      Status = "success"
	StatusInvalid      Status = "invalid"
	StatusFailed       Status = "failed"
	StatusContextError Status = "context_error"
)

// Observer receives one call per executed command.
type Observer interface {
	ObserveCommand(name string, status Status, elapsed time.Duration)
}

// ObserverFunc adapts a function into an Observer.
type ObserverFunc func(name string, status Status, elapsed time.Duration)

func (f ObserverFunc) ObserveCommand(name string, status Status, elapsed time.Duration) {
	f(name, status, elapsed)
}

// HandlerOption configures a Handler instance.
type HandlerOption[T command.Message] func(*Handler[T])

// Handler wraps a command function with validation, a deadline, structured
// logging and go-errors categorisation. It satisfies command.Commander[T].
type Handler[T command.Message] struct {
	exec      command.CommandFunc[T]
	logger    interfaces.Logger
	observer  Observer
	timeout   time.Duration
	operation string
	now       func() time.Time
}

// NewHandler creates a handler around fn.
func NewHandler[T command.Message](fn command.CommandFunc[T], opts ...HandlerOption[T]) *Handler[T] {
	if fn == nil {
		panic("commands: handler function cannot be nil")
	}
	h := &Handler[T]{
		exec:    fn,
		logger:  logging.NoOp(),
		timeout: DefaultTimeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Execute validates msg, then runs the wrapped function under the handler
// deadline.
func (h *Handler[T]) Execute(ctx context.Context, msg T) error {
	name := command.GetMessageType(msg)
	started := h.now()

	if err := command.ValidateMessage(msg); err != nil {
		h.observe(name, StatusInvalid, started)
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
		h.observe(name, StatusContextError, started)
		return wrapContextError(err)
	}

	fields := map[string]any{"command": name}
	if h.operation != "" {
		fields["operation"] = h.operation
	}
	logger := logging.WithFields(h.logger.WithContext(ctx), fields)
	logger.Debug("command.execute.start")

	if err := h.exec(ctx, msg); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			logger.Error("command.execute.context_error", "error", ctxErr)
			h.observe(name, StatusContextError, started)
			return wrapContextError(ctxErr)
		}
		logger.Error("command.execute.failed", "error", err)
		wrapped := wrapExecuteError(err)
		if isValidationFailure(wrapped) {
			h.observe(name, StatusInvalid, started)
		} else {
			h.observe(name, StatusFailed, started)
		}
		return wrapped
	}

	logger.Info("command.execute.success", "duration_ms", h.now().Sub(started).Milliseconds())
	h.observe(name, StatusSuccess, started)
	return nil
}

func (h *Handler[T]) observe(name string, status Status, started time.Time) {
	if h.observer == nil {
		return
	}
	h.observer.ObserveCommand(name, status, h.now().Sub(started))
}

// WithTimeout overrides the default execution timeout. Zero disables it.
func WithTimeout[T command.Message](timeout time.Duration) HandlerOption[T] {
	return func(h *Handler[T]) {
		if timeout < 0 {
			timeout = 0
		}
		h.timeout = timeout
	}
}

// WithLogger injects the logger used during execution.
func WithLogger[T command.Message](logger interfaces.Logger) HandlerOption[T] {
	return func(h *Handler[T]) {
		h.logger = logging.Ensure(logger)
	}
}

// WithOperation sets the operation name attached to every log entry.
func WithOperation[T command.Message](operation string) HandlerOption[T] {
	return func(h *Handler[T]) {
		h.operation = operation
	}
}

// WithObserver registers an outcome observer, typically a metrics recorder.
func WithObserver[T command.Message](observer Observer) HandlerOption[T] {
	return func(h *Handler[T]) {
		h.observer = observer
	}
}

// WithClock overrides the clock used for durations.
func WithClock[T command.Message](now func() time.Time) HandlerOption[T] {
	return func(h *Handler[T]) {
		if now != nil {
			h.now = now
		}
	}
}
