package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/aretw0/kiosk/pkg/dispatch"
	"github.com/aretw0/kiosk/pkg/domain"
)

// JSONHandler implements the IOHandler interface for structured JSON-Lines communication.
//
// Each input line is either a request object such as {"data":"category|flowers"}
// or a plain line following the console grammar. Each view is written as
// one JSON object per line.
type JSONHandler struct {
	Reader  *bufio.Reader
	Writer  io.Writer
	Encoder *json.Encoder

	mu      sync.Mutex
	offered []domain.ActionRef
}

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		Reader:  bufio.NewReader(r),
		Writer:  w,
		Encoder: json.NewEncoder(w),
	}
}

func (h *JSONHandler) Output(ctx context.Context, view *domain.View) error {
	if view == nil {
		return nil
	}
	h.mu.Lock()
	if !view.Ignored || len(view.Actions) > 0 {
		h.offered = view.Actions
	}
	h.mu.Unlock()
	return h.Encoder.Encode(view)
}

func (h *JSONHandler) Input(ctx context.Context) (dispatch.Request, error) {
	for {
		if err := ctx.Err(); err != nil {
			return dispatch.Request{}, err
		}

		text, err := h.Reader.ReadString('\n')
		text = strings.TrimSpace(text)
		if text == "" {
			if err != nil {
				return dispatch.Request{}, err
			}
			continue
		}

		req, perr := h.decode(text)
		if errors.Is(perr, io.EOF) {
			return dispatch.Request{}, io.EOF
		}
		if perr != nil {
			_ = h.SystemOutput(ctx, perr.Error())
			if err != nil {
				return dispatch.Request{}, err
			}
			continue
		}
		return req, nil
	}
}

func (h *JSONHandler) decode(line string) (dispatch.Request, error) {
	if strings.HasPrefix(line, "{") {
		var req dispatch.Request
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			return dispatch.Request{}, err
		}
		if req.Text != "" {
			clean, err := SanitizeInput(req.Text)
			if err != nil {
				return dispatch.Request{}, err
			}
			req.Text = clean
		}
		return req, nil
	}

	// Quoted JSON strings are unwrapped; anything else is taken as typed.
	var val string
	if err := json.Unmarshal([]byte(line), &val); err == nil {
		line = val
	}
	clean, err := SanitizeInput(line)
	if err != nil {
		return dispatch.Request{}, err
	}

	h.mu.Lock()
	offered := h.offered
	h.mu.Unlock()
	return parseLine(clean, offered)
}

// SystemOutput emits {"system": msg}.
func (h *JSONHandler) SystemOutput(ctx context.Context, msg string) error {
	return h.Encoder.Encode(map[string]string{"system": msg})
}
