package logging

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observe(t *testing.T, level zapcore.Level) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(level)
	prev := logger
	SetLogger(zap.New(core))
	t.Cleanup(func() { logger = prev })
	return logs
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"WARN", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"info", zapcore.InfoLevel},
		{"chatty", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestInitializeSilentByDefault(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "")
	prev := logger
	t.Cleanup(func() { logger = prev })

	if err := Initialize(""); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if GetLogger().Core().Enabled(zapcore.ErrorLevel) {
		t.Error("expected a nop logger when no level is configured")
	}
}

func TestInitializeFromEnv(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "warn")
	prev := logger
	t.Cleanup(func() { logger = prev })

	if err := Initialize(""); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	core := GetLogger().Core()
	if !core.Enabled(zapcore.WarnLevel) || core.Enabled(zapcore.InfoLevel) {
		t.Error("expected logger at warn level")
	}
}

func TestLogCommit(t *testing.T) {
	logs := observe(t, zapcore.InfoLevel)

	LogCommit("BEEP_STRENGTH", "1250", 255)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["setting"] != "BEEP_STRENGTH" || fields["input"] != "1250" || fields["value"] != int64(255) {
		t.Errorf("unexpected fields %v", fields)
	}
}

func TestLogWebSocketMessageContentAtDebugOnly(t *testing.T) {
	logs := observe(t, zapcore.DebugLevel)
	LogWebSocketMessage("s1", "received", []byte(`{"type":"commit"}`))

	fields := logs.All()[0].ContextMap()
	if fields["content"] != `{"type":"commit"}` {
		t.Errorf("content = %v", fields["content"])
	}

	logs = observe(t, zapcore.InfoLevel)
	LogWebSocketMessage("s1", "received", []byte("x"))
	if logs.Len() != 0 {
		t.Error("WebSocket messages should only be logged at debug level")
	}
}
