package runner

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/kiosk/pkg/dispatch"
	"github.com/aretw0/kiosk/pkg/domain"
)

var testView = &domain.View{
	Text:  "Pick one",
	Media: "https://example.com/rose.png",
	Actions: []domain.ActionRef{
		domain.NewActionRef("Flowers", domain.Action{Kind: domain.ActionViewCategory, Category: "flowers"}),
		domain.NewActionRef("Back", domain.Action{Kind: domain.ActionMainMenu}),
	},
}

func TestTextHandler_Output(t *testing.T) {
	out := &bytes.Buffer{}
	handler := NewTextHandler(strings.NewReader(""), out, WithTextHandlerRenderer(func(s string) (string, error) {
		return "Rendered: " + s, nil
	}))

	require.NoError(t, handler.Output(context.Background(), testView))

	assert.Equal(t, "Rendered: Pick one\n[image] https://example.com/rose.png\n  [1] Flowers\n  [2] Back\n", out.String())
}

func TestTextHandler_Input(t *testing.T) {
	in := strings.NewReader("/start\n#1\n  hello there  \n#9\n\n#2\n/quit\nnever read\n")
	out := &bytes.Buffer{}
	handler := NewTextHandler(in, out)
	ctx := context.Background()
	require.NoError(t, handler.Output(ctx, testView))

	req, err := handler.Input(ctx)
	require.NoError(t, err)
	assert.Equal(t, dispatch.Request{Command: "start"}, req)

	req, err = handler.Input(ctx)
	require.NoError(t, err)
	assert.Equal(t, dispatch.Request{Data: "category|flowers"}, req)

	req, err = handler.Input(ctx)
	require.NoError(t, err)
	assert.Equal(t, dispatch.Request{Text: "hello there"}, req)

	// "#9" is out of range and the blank line is skipped.
	req, err = handler.Input(ctx)
	require.NoError(t, err)
	assert.Equal(t, dispatch.Request{Data: "main_menu"}, req)
	assert.Contains(t, out.String(), "no such option")

	_, err = handler.Input(ctx)
	assert.ErrorIs(t, err, io.EOF)
}

func TestTextHandler_IgnoredViewKeepsOptions(t *testing.T) {
	handler := NewTextHandler(strings.NewReader("#1\n"), &bytes.Buffer{})
	ctx := context.Background()
	require.NoError(t, handler.Output(ctx, testView))
	require.NoError(t, handler.Output(ctx, &domain.View{Text: "Please choose a payment method.", Ignored: true}))

	req, err := handler.Input(ctx)
	require.NoError(t, err)
	assert.Equal(t, "category|flowers", req.Data)
}

func TestTextHandler_InputEOF(t *testing.T) {
	handler := NewTextHandler(strings.NewReader("last line without newline"), &bytes.Buffer{})

	req, err := handler.Input(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "last line without newline", req.Text)

	_, err = handler.Input(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestTextHandler_InputRejectsOversized(t *testing.T) {
	t.Setenv(EnvMaxInputSize, "8")
	out := &bytes.Buffer{}
	handler := NewTextHandler(strings.NewReader("much too long\nshort\n"), out)

	req, err := handler.Input(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "short", req.Text)
	assert.Contains(t, out.String(), "Please try again")
}

func TestTextHandler_InputCancel(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	handler := NewTextHandler(pr, &bytes.Buffer{})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := handler.Input(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestParseLine(t *testing.T) {
	offered := testView.Actions

	tests := []struct {
		line    string
		want    dispatch.Request
		wantErr error
	}{
		{"/faqs", dispatch.Request{Command: "faqs"}, nil},
		{"/exit", dispatch.Request{}, io.EOF},
		{"/", dispatch.Request{Text: "/"}, nil},
		{"# 2", dispatch.Request{Data: "main_menu"}, nil},
		{"#0", dispatch.Request{}, ErrNoSuchOption},
		{"#x", dispatch.Request{}, ErrNoSuchOption},
		{"12", dispatch.Request{Text: "12"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := parseLine(tt.line, offered)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
