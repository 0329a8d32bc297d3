package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/kiosk/internal/logging"
	"github.com/aretw0/kiosk/pkg/dispatch"
	"github.com/aretw0/kiosk/pkg/domain"
)

// Dispatcher handles one event and returns the view to show.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev domain.Event) (*domain.View, error)
}

// Runner drives a single conversation against a Dispatcher. It opens with
// /start and then alternates output and input until the user quits, the input
// ends or the context is cancelled.
type Runner struct {
	// Handler is the strategy for IO. If nil, a TextHandler over Input/Output is used.
	Handler IOHandler

	// Logger is used for internal debug logging.
	// If nil, a no-op logger is used.
	Logger *slog.Logger

	// Identity is attached to every request that does not carry its own.
	Identity domain.Identity

	Input    io.Reader
	Output   io.Writer
	Headless bool
	Renderer ContentRenderer
}

// DefaultIdentity is used when no identity is configured.
var DefaultIdentity = domain.Identity{Username: "console"}

// NewRunner creates a new Runner with default Stdin/Stdout.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		Input:    os.Stdin,
		Output:   os.Stdout,
		Logger:   logging.NewNop(),
		Identity: DefaultIdentity,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the conversation loop. It returns nil when the conversation
// ends normally (quit, EOF or cancellation) and an error when the dispatcher
// or the handler fails.
func (r *Runner) Run(ctx context.Context, d Dispatcher) error {
	handler := r.resolveHandler()
	logger := r.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	req := dispatch.Request{Command: domain.CommandStart}
	for {
		if req.Identity == (domain.Identity{}) {
			req.Identity = r.Identity
		}

		ev, err := req.Event()
		if err != nil {
			if err := handler.SystemOutput(ctx, err.Error()); err != nil {
				return fmt.Errorf("output error: %w", err)
			}
		} else {
			view, err := d.Dispatch(ctx, ev)
			if err != nil {
				return fmt.Errorf("dispatch error: %w", err)
			}
			logger.Debug("view rendered", "session", ev.Identity.Key(), "kind", ev.Kind, "actions", len(view.Actions))
			if err := handler.Output(ctx, view); err != nil {
				return fmt.Errorf("output error: %w", err)
			}
		}

		req, err = handler.Input(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				logger.Debug("conversation ended", "reason", err)
				return nil
			}
			return fmt.Errorf("input error: %w", err)
		}
	}
}

// resolveHandler ensures a valid IOHandler is set.
func (r *Runner) resolveHandler() IOHandler {
	if r.Handler != nil {
		return r.Handler
	}
	th := NewTextHandler(r.Input, r.Output, WithTextHandlerRenderer(r.Renderer))
	if !r.Headless && r.Output != nil {
		fmt.Fprintln(r.Output, "--- Kiosk chat (type /quit to leave, #N to pick an option) ---")
	}
	// Memoized so repeated Run calls share one input pump.
	r.Handler = th
	return th
}
