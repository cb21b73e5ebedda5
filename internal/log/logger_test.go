package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"hubtrack/internal/core"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"info", slog.LevelInfo, false},
		{"DEBUG", slog.LevelDebug, false},
		{" warn ", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func TestJSONLoggerCarriesComponentAndFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Format: "json", Component: ComponentServices, Output: &buf})

	f := NewFields().
		WithIdentity(core.EntrepreneurIdentity(9)).
		WithPayment(core.PaymentRecord{ID: 4, BusinessID: 2, Status: core.StatusPending}).
		WithError(errors.New("boom"))
	l.LogFields(context.Background(), slog.LevelError, "failed", f)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	checks := map[string]any{
		FieldComponent:      ComponentServices,
		FieldRole:           "entrepreneur",
		FieldEntrepreneurID: float64(9),
		FieldPaymentID:      float64(4),
		FieldStatus:         "pending",
		FieldError:          "boom",
	}
	for k, want := range checks {
		if rec[k] != want {
			t.Errorf("%s = %v, want %v", k, rec[k], want)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelWarn, Output: &buf})
	l.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("info record written at warn level: %q", buf.String())
	}
}

func TestMiddlewareStoresRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Level: slog.LevelInfo, Format: "json", Output: &buf})
	requestID := func(context.Context) string { return "req_1" }

	h := Middleware(base, requestID)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		FromContext(r.Context()).InfoContext(r.Context(), "inside")
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec[FieldRequestID] != "req_1" {
		t.Fatalf("request_id = %v", rec[FieldRequestID])
	}
}

func TestFromContextFallsBack(t *testing.T) {
	if l := FromContext(context.Background()); l == nil || l.Component() != "unknown" {
		t.Fatalf("fallback logger = %+v", l)
	}
}

func TestWithComponentReplacesComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Format: "json", Component: ComponentApp, Output: &buf}).
		With(FieldRequestID, "req-1").
		WithComponent(ComponentWorker)

	l.Info("tick")

	line := buf.String()
	if n := bytes.Count([]byte(line), []byte(`"component"`)); n != 1 {
		t.Fatalf("component appears %d times: %s", n, line)
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(line), &rec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec[FieldComponent] != ComponentWorker || rec[FieldRequestID] != "req-1" {
		t.Fatalf("record = %v", rec)
	}
	if l.Component() != ComponentWorker {
		t.Fatalf("Component() = %q", l.Component())
	}
}
