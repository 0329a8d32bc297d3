package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aretw0/kiosk/pkg/dispatch"
	"github.com/aretw0/kiosk/pkg/domain"
)

// ErrNoSuchOption is returned when "#N" does not match an offered action.
var ErrNoSuchOption = errors.New("no such option")

// IOHandler defines the strategy for interacting with the user.
// This allows switching between Text (CLI/TUI) and JSON (Structured) modes.
type IOHandler interface {
	// Output presents a view to the user.
	Output(ctx context.Context, view *domain.View) error

	// Input reads the next request. The identity may be left empty for the
	// Runner to fill in. io.EOF ends the conversation.
	Input(ctx context.Context) (dispatch.Request, error)

	// SystemOutput presents a meta-message (e.g. an input error) that is not
	// part of the conversation.
	SystemOutput(ctx context.Context, msg string) error
}

// ContentRenderer transforms view text before it is printed, e.g. markdown to ANSI.
type ContentRenderer func(string) (string, error)

// Console line grammar:
//
//	/quit, /exit  end the conversation
//	/<command>    a command such as /start or /faqs
//	#<n>          select the n-th action of the last view
//	anything else free text
func parseLine(line string, offered []domain.ActionRef) (dispatch.Request, error) {
	switch {
	case line == "/quit" || line == "/exit":
		return dispatch.Request{}, io.EOF
	case strings.HasPrefix(line, "/") && len(line) > 1:
		return dispatch.Request{Command: line[1:]}, nil
	case strings.HasPrefix(line, "#"):
		n, err := strconv.Atoi(strings.TrimSpace(line[1:]))
		if err != nil || n < 1 || n > len(offered) {
			return dispatch.Request{}, fmt.Errorf("%w: %s", ErrNoSuchOption, line)
		}
		return dispatch.Request{Data: offered[n-1].Data}, nil
	default:
		return dispatch.Request{Text: line}, nil
	}
}
