package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		" warn": slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}

	_, err := ParseLevel("verbose")
	require.Error(t, err)
}

func TestNew_JSONCarriesComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Format: "json", Component: ComponentAuth, Output: &buf})

	logger.Debug("hidden")
	logger.Info("visible", FieldUserID, "u1")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	require.Equal(t, "visible", lines[0]["msg"])
	require.Equal(t, ComponentAuth, lines[0][FieldComponent])
	require.Equal(t, "u1", lines[0][FieldUserID])
	require.Equal(t, ComponentAuth, logger.Component())
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Format: "json", Output: &buf})
	require.Equal(t, ComponentApp, base.Component())

	worker := base.WithComponent(ComponentWorker)
	require.Equal(t, ComponentWorker, worker.Component())
	require.Equal(t, ComponentWorker, worker.With("k", "v").Component())
}

func TestContextRoundTrip(t *testing.T) {
	logger := Discard()
	ctx := NewContext(context.Background(), logger)
	require.Same(t, logger, FromContext(ctx))

	fallback := FromContext(context.Background())
	require.NotNil(t, fallback)
	require.Equal(t, "unknown", fallback.Component())
}

func TestRequestIDMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Format: "json", Output: &buf})

	handler := Middleware(logger)(RequestIDMiddleware(func(r *http.Request) string {
		return r.Header.Get("X-Request-ID")
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		FromContext(r.Context()).InfoContext(r.Context(), "handled")
	})))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "req_0123456789abcdef")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)
	require.Equal(t, "req_0123456789abcdef", lines[0][FieldRequestID])
	require.NotContains(t, lines[1], FieldRequestID)
}

func TestStructuredLogger(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Level: slog.LevelDebug, Format: "json", Output: &buf}))
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/summary?month=2024-03", nil)
	sl.LogHTTPEnd(ctx, req, http.StatusNotFound, 3, "req_1", "10.0.0.1")
	sl.LogTransaction(ctx, OpCreate, "t1", "u1", "expense", "12.50", "Food")
	sl.LogError(ctx, "publish failed", errors.New("broker down"), OpPublish, nil)

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 3)

	require.Equal(t, "WARN", lines[0]["level"])
	require.Equal(t, float64(http.StatusNotFound), lines[0][FieldStatusCode])
	require.Equal(t, "month=2024-03", lines[0][FieldQuery])
	require.Equal(t, false, lines[0][FieldSuccess])

	require.Equal(t, "Transaction created", lines[1]["msg"])
	require.Equal(t, "12.50", lines[1][FieldAmount])
	require.Equal(t, "Food", lines[1][FieldCategory])

	require.Equal(t, "ERROR", lines[2]["level"])
	require.Equal(t, "broker down", lines[2][FieldError])
	require.Equal(t, OpPublish, lines[2][FieldOperation])
}
