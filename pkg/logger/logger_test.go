package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	cases := []struct {
		value   string
		want    LogLevel
		wantErr bool
	}{
		{value: "debug", want: DEBUG},
		{value: "INFO", want: INFO},
		{value: " error ", want: ERROR},
		{value: "verbose", want: INFO, wantErr: true},
	}

	for _, tc := range cases {
		got, err := ParseLogLevel(tc.value)
		if tc.wantErr && err == nil {
			t.Errorf("ParseLogLevel(%q): expected error", tc.value)
		}
		if !tc.wantErr && err != nil {
			t.Errorf("ParseLogLevel(%q): unexpected error: %v", tc.value, err)
		}
		if got != tc.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tc.value, got, tc.want)
		}
	}
}

func TestConfigureWritesToFile(t *testing.T) {
	original := Logger
	originalLevel := currentLevel
	t.Cleanup(func() {
		Logger = original
		currentLevel = originalLevel
	})

	path := filepath.Join(t.TempDir(), "logs", "app.log")
	if err := Configure(Options{Level: "info", File: path}); err != nil {
		t.Fatalf("Configure returned error: %v", err)
	}

	Info("hello from test", "key", "value")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), "hello from test") {
		t.Fatalf("expected log line in file, got %q", string(data))
	}
}

func TestConfigureInvalidLevel(t *testing.T) {
	original := Logger
	originalLevel := currentLevel
	t.Cleanup(func() {
		Logger = original
		currentLevel = originalLevel
	})

	if err := Configure(Options{Level: "loud"}); err == nil {
		t.Fatal("expected an error for an invalid level")
	}
}

func TestEnabled(t *testing.T) {
	originalLevel := currentLevel
	t.Cleanup(func() { currentLevel = originalLevel })

	SetLogLevel(ERROR)
	if Enabled(INFO) {
		t.Fatal("INFO should be disabled at ERROR level")
	}
	if !Enabled(ERROR) {
		t.Fatal("ERROR should be enabled at ERROR level")
	}
}
