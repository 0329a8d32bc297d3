package runner_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/kiosk"
	"github.com/aretw0/kiosk/internal/testutils"
	"github.com/aretw0/kiosk/pkg/dispatch"
	"github.com/aretw0/kiosk/pkg/domain"
	"github.com/aretw0/kiosk/pkg/runner"
)

type stubDispatcher struct {
	mu     sync.Mutex
	events []domain.Event
	err    error
}

func (s *stubDispatcher) Dispatch(_ context.Context, ev domain.Event) (*domain.View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	if s.err != nil {
		return nil, s.err
	}
	return &domain.View{Text: "ok " + string(ev.Kind)}, nil
}

func TestRunner_OpensWithStartAndStopsAtEOF(t *testing.T) {
	d := &stubDispatcher{}
	out := &bytes.Buffer{}
	id := domain.Identity{Username: "alice"}
	r := runner.NewRunner(runner.WithIO(strings.NewReader("hello\n"), out), runner.WithIdentity(id))

	require.NoError(t, r.Run(context.Background(), d))

	require.Len(t, d.events, 2)
	assert.Equal(t, domain.Event{Identity: id, Kind: domain.EventCommand, Command: domain.CommandStart}, d.events[0])
	assert.Equal(t, domain.Event{Identity: id, Kind: domain.EventText, Text: "hello"}, d.events[1])
	assert.Contains(t, out.String(), "--- Kiosk chat")
	assert.Contains(t, out.String(), "ok text")
}

func TestRunner_Headless(t *testing.T) {
	out := &bytes.Buffer{}
	r := runner.NewRunner(runner.WithIO(strings.NewReader(""), out), runner.WithHeadless(true))

	require.NoError(t, r.Run(context.Background(), &stubDispatcher{}))
	assert.True(t, strings.HasPrefix(out.String(), "ok command"))
}

func TestRunner_DispatchErrorStops(t *testing.T) {
	d := &stubDispatcher{err: errors.New("store down")}
	r := runner.NewRunner(runner.WithIO(strings.NewReader("hello\n"), &bytes.Buffer{}))

	err := r.Run(context.Background(), d)
	assert.ErrorContains(t, err, "store down")
	assert.Len(t, d.events, 1)
}

func TestRunner_RequestIdentityWins(t *testing.T) {
	d := &stubDispatcher{}
	in := strings.NewReader(`{"identity":{"username":"bob"},"command":"faqs"}` + "\n")
	r := runner.NewRunner(runner.WithInputHandler(runner.NewJSONHandler(in, &bytes.Buffer{})))

	require.NoError(t, r.Run(context.Background(), d))
	require.Len(t, d.events, 2)
	assert.Equal(t, runner.DefaultIdentity, d.events[0].Identity)
	assert.Equal(t, "bob", d.events[1].Identity.Username)
}

// scripted replays requests, including one that is not a valid request.
type scripted struct {
	reqs   []dispatch.Request
	system []string
	views  []*domain.View
}

func (s *scripted) Output(_ context.Context, v *domain.View) error {
	s.views = append(s.views, v)
	return nil
}

func (s *scripted) Input(ctx context.Context) (dispatch.Request, error) {
	if len(s.reqs) == 0 {
		return dispatch.Request{}, context.Canceled
	}
	req := s.reqs[0]
	s.reqs = s.reqs[1:]
	return req, nil
}

func (s *scripted) SystemOutput(_ context.Context, msg string) error {
	s.system = append(s.system, msg)
	return nil
}

func TestRunner_InvalidRequestIsReported(t *testing.T) {
	h := &scripted{reqs: []dispatch.Request{{}, {Text: "hi"}}}
	r := runner.NewRunner(runner.WithInputHandler(h))

	err := r.Run(context.Background(), &stubDispatcher{})
	assert.ErrorIs(t, err, context.Canceled, "a handler error with a live context is returned")
	assert.Equal(t, []string{dispatch.ErrInvalidRequest.Error()}, h.system)
	assert.Len(t, h.views, 2)
}

func TestRunner_AgainstShop(t *testing.T) {
	cat, err := testutils.LoadCatalog()
	require.NoError(t, err)
	shop, err := kiosk.New(cat)
	require.NoError(t, err)

	out := &bytes.Buffer{}
	in := strings.NewReader("#2\n/quit\n")
	r := runner.NewRunner(runner.WithIO(in, out), runner.WithHeadless(true), runner.WithIdentity(domain.Identity{Username: "Alice"}))

	require.NoError(t, r.Run(context.Background(), shop))

	assert.Contains(t, out.String(), dispatch.TextSelectCountry)
	assert.Contains(t, out.String(), "You selected Spain")
	sess, err := shop.Session(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "Spain", sess.Country)
}
