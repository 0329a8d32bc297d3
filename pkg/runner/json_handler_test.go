package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/kiosk/pkg/dispatch"
	"github.com/aretw0/kiosk/pkg/domain"
)

func TestJSONHandler_Output(t *testing.T) {
	out := &bytes.Buffer{}
	handler := NewJSONHandler(strings.NewReader(""), out)

	require.NoError(t, handler.Output(context.Background(), testView))

	var got domain.View
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, *testView, got)
	assert.Equal(t, 1, strings.Count(out.String(), "\n"), "one view per line")
}

func TestJSONHandler_Input(t *testing.T) {
	lines := strings.Join([]string{
		`{"data":"category|flowers"}`,
		`{"identity":{"username":"bob"},"text":"Jane\u0007 Doe"}`,
		`"#2"`,
		``,
		`{broken`,
		`/start`,
		`/quit`,
	}, "\n")
	out := &bytes.Buffer{}
	handler := NewJSONHandler(strings.NewReader(lines), out)
	ctx := context.Background()
	require.NoError(t, handler.Output(ctx, testView))

	req, err := handler.Input(ctx)
	require.NoError(t, err)
	assert.Equal(t, dispatch.Request{Data: "category|flowers"}, req)

	req, err = handler.Input(ctx)
	require.NoError(t, err)
	assert.Equal(t, "bob", req.Identity.Username)
	assert.Equal(t, "Jane Doe", req.Text)

	req, err = handler.Input(ctx)
	require.NoError(t, err)
	assert.Equal(t, dispatch.Request{Data: "main_menu"}, req)

	req, err = handler.Input(ctx)
	require.NoError(t, err)
	assert.Equal(t, dispatch.Request{Command: "start"}, req)
	assert.Contains(t, out.String(), `"system"`, "the broken line is reported")

	_, err = handler.Input(ctx)
	assert.ErrorIs(t, err, io.EOF)
}

func TestJSONHandler_SystemOutput(t *testing.T) {
	out := &bytes.Buffer{}
	handler := NewJSONHandler(strings.NewReader(""), out)
	require.NoError(t, handler.SystemOutput(context.Background(), "hello"))
	assert.JSONEq(t, `{"system":"hello"}`, out.String())
}
