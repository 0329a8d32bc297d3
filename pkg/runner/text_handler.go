package runner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/kiosk/pkg/dispatch"
	"github.com/aretw0/kiosk/pkg/domain"
)

// TextHandler implements the console chat: views are printed with numbered
// actions and lines are read from the input stream.
type TextHandler struct {
	Reader   *bufio.Reader
	Writer   io.Writer
	Renderer ContentRenderer

	mu      sync.Mutex
	offered []domain.ActionRef

	inputChan chan inputResult
	startOnce sync.Once
}

type inputResult struct {
	text string
	err  error
}

// TextHandlerOption defines configuration for TextHandler.
type TextHandlerOption func(*TextHandler)

// WithTextHandlerRenderer configures the content renderer.
func WithTextHandlerRenderer(renderer ContentRenderer) TextHandlerOption {
	return func(h *TextHandler) {
		h.Renderer = renderer
	}
}

// NewTextHandler creates a handler for standard text IO.
func NewTextHandler(r io.Reader, w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{
		Reader: bufio.NewReader(r),
		Writer: w,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *TextHandler) initPump() {
	h.startOnce.Do(func() {
		h.inputChan = make(chan inputResult)
		go h.pump()
	})
}

// pump reads lines in the background so Input can honour context cancellation.
func (h *TextHandler) pump() {
	for {
		text, err := h.Reader.ReadString('\n')
		if text != "" {
			h.inputChan <- inputResult{text: text}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				close(h.inputChan)
				return
			}
			h.inputChan <- inputResult{err: err}
			// Backoff so a persistently failing reader does not spin.
			time.Sleep(50 * time.Millisecond)
		}
	}
}

func (h *TextHandler) Output(ctx context.Context, view *domain.View) error {
	if view == nil {
		return nil
	}
	if view.Text != "" {
		output := view.Text
		if h.Renderer != nil {
			if rendered, err := h.Renderer(view.Text); err == nil {
				output = rendered
			}
		}
		fmt.Fprintln(h.Writer, strings.TrimSpace(output))
	}
	if view.Media != "" {
		fmt.Fprintf(h.Writer, "[image] %s\n", view.Media)
	}
	for i, a := range view.Actions {
		fmt.Fprintf(h.Writer, "  [%d] %s\n", i+1, a.Label)
	}

	// An ignored view keeps the previous options selectable.
	if !view.Ignored || len(view.Actions) > 0 {
		h.mu.Lock()
		h.offered = view.Actions
		h.mu.Unlock()
	}
	return nil
}

func (h *TextHandler) Input(ctx context.Context) (dispatch.Request, error) {
	h.initPump()

	for {
		select {
		case <-ctx.Done():
			return dispatch.Request{}, ctx.Err()
		default:
			fmt.Fprint(h.Writer, "> ")
		}

		select {
		case <-ctx.Done():
			return dispatch.Request{}, ctx.Err()
		case res, ok := <-h.inputChan:
			if !ok {
				return dispatch.Request{}, io.EOF
			}
			if res.err != nil {
				return dispatch.Request{}, res.err
			}

			line := strings.TrimSpace(res.text)
			if line == "" {
				continue
			}
			clean, err := SanitizeInput(line)
			if err != nil {
				fmt.Fprintf(h.Writer, "Error: %v. Please try again.\n", err)
				continue
			}

			h.mu.Lock()
			offered := h.offered
			h.mu.Unlock()

			req, err := parseLine(clean, offered)
			if errors.Is(err, io.EOF) {
				return dispatch.Request{}, io.EOF
			}
			if err != nil {
				fmt.Fprintf(h.Writer, "Error: %v. Please try again.\n", err)
				continue
			}
			return req, nil
		}
	}
}

func (h *TextHandler) SystemOutput(ctx context.Context, msg string) error {
	fmt.Fprintf(h.Writer, "\n[System] %s\n", msg)
	return nil
}
