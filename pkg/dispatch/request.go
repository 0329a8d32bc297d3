package dispatch

import (
	"errors"
	"strings"

	"github.com/aretw0/kiosk/pkg/domain"
)

// ErrInvalidRequest is returned when a Request does not carry exactly one input.
var ErrInvalidRequest = errors.New("request must set exactly one of command, data or text")

// Request is the transport-neutral wire form of an inbound event, shared by
// the console, HTTP and MCP transports.
type Request struct {
	Identity domain.Identity `json:"identity"`
	Command  string          `json:"command,omitempty"`
	Data     string          `json:"data,omitempty"`
	Text     string          `json:"text,omitempty"`
}

// Event converts the request into a domain event.
func (r Request) Event() (domain.Event, error) {
	set := 0
	for _, v := range []string{r.Command, r.Data, r.Text} {
		if v != "" {
			set++
		}
	}
	if set != 1 {
		return domain.Event{}, ErrInvalidRequest
	}

	switch {
	case r.Command != "":
		return domain.Event{
			Identity: r.Identity,
			Kind:     domain.EventCommand,
			Command:  strings.TrimPrefix(strings.TrimSpace(r.Command), "/"),
		}, nil
	case r.Data != "":
		return ParseSelection(r.Identity, r.Data), nil
	default:
		return domain.Event{Identity: r.Identity, Kind: domain.EventText, Text: r.Text}, nil
	}
}
