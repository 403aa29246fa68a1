package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ghxstship/marketplace/internal/config"
	"github.com/ghxstship/marketplace/model"
)

// newTestLogger creates a logger that writes JSON to a buffer for assertion.
func newTestLogger(buf *bytes.Buffer) *zap.Logger {
	enc := zapcore.NewJSONEncoder(zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		MessageKey:     "msg",
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
	})
	core := zapcore.NewCore(enc, zapcore.AddSync(buf), zapcore.DebugLevel)
	return zap.New(core)
}

func TestNewLogger_defaultLevel(t *testing.T) {
	cfg := config.ObservabilityConfig{LogLevel: "info"}
	logger, err := NewLogger(cfg)
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	defer logger.Sync()

	if !logger.Core().Enabled(zapcore.InfoLevel) {
		t.Error("info level should be enabled")
	}
	if logger.Core().Enabled(zapcore.DebugLevel) {
		t.Error("debug level should NOT be enabled at info level")
	}
}

func TestNewLogger_invalidLevel_defaultsToInfo(t *testing.T) {
	cfg := config.ObservabilityConfig{LogLevel: "bogus"}
	logger, err := NewLogger(cfg)
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	defer logger.Sync()

	if !logger.Core().Enabled(zapcore.InfoLevel) {
		t.Error("should default to info level")
	}
	if logger.Core().Enabled(zapcore.DebugLevel) {
		t.Error("debug should NOT be enabled with invalid level (defaults to info)")
	}
}

func TestWithLogger_and_LoggerFrom(t *testing.T) {
	logger := zap.NewNop()
	ctx := WithLogger(context.Background(), logger)

	got := LoggerFrom(ctx, nil)
	if got != logger {
		t.Error("LoggerFrom did not return the stored logger")
	}

	fallback := zap.NewNop()
	got = LoggerFrom(context.Background(), fallback)
	if got != fallback {
		t.Error("LoggerFrom should return the fallback when no logger is stored")
	}
}

func TestRequestLogger_enrichesFields(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf)

	ctx := WithLogger(context.Background(), logger)
	ctx = model.WithRequestContext(ctx, &model.RequestContext{
		UserID:        "user-1",
		OrgID:         "org-1",
		CorrelationID: "corr-1",
		TraceID:       "trace-1",
	})

	RequestLogger(ctx, nil).Info("hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output not JSON: %v", err)
	}
	for key, want := range map[string]string{
		"org_id":         "org-1",
		"user_id":        "user-1",
		"correlation_id": "corr-1",
		"trace_id":       "trace-1",
	} {
		if entry[key] != want {
			t.Errorf("entry[%q] = %v, want %q", key, entry[key], want)
		}
	}
}

func TestRequestLogger_withoutRequestContext(t *testing.T) {
	fallback := zap.NewNop()
	got := RequestLogger(context.Background(), fallback)
	if got != fallback {
		t.Error("RequestLogger without RequestContext should return the base logger")
	}
}

func TestRedactBody(t *testing.T) {
	body := map[string]any{
		"title":    "PA System",
		"password": "hunter2",
		"pricing": map[string]any{
			"amount":  10.0,
			"api_key": "sk-12345",
		},
	}

	got := RedactBody(body, []string{"title"})

	if got["title"] != "[REDACTED]" {
		t.Error("caller-provided sensitive field not redacted")
	}
	if got["password"] != "[REDACTED]" {
		t.Error("default sensitive field not redacted")
	}
	nested := got["pricing"].(map[string]any)
	if nested["api_key"] != "[REDACTED]" {
		t.Error("nested sensitive field not redacted")
	}
	if nested["amount"] != 10.0 {
		t.Error("non-sensitive nested field changed")
	}
	if body["password"] != "hunter2" {
		t.Error("RedactBody mutated the original map")
	}

	if RedactBody(nil, nil) != nil {
		t.Error("RedactBody(nil) should be nil")
	}
}
