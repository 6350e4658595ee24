package logger_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	jctx "github.com/jumpstart/jumpstart/pkg/context"
	"github.com/jumpstart/jumpstart/pkg/logger"
)

func TestCreateLogger(t *testing.T) {
	log := logger.CreateLogger("", "info")
	if log == nil {
		t.Fatal("expected logger to be created")
	}
}

func TestCreateLogger_WithFile(t *testing.T) {
	path := t.TempDir() + "/run.log"
	log := logger.CreateLogger(path, "info")
	log.Info("written to file")
}

func TestLogger_LevelFiltering(t *testing.T) {
	tests := []struct {
		level     string
		message   string
		wantDebug bool
	}{
		{"debug", "debug message", true},
		{"info", "info message", false},
		{"bogus", "falls back to info", false},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			log := logger.CreateLoggerWithOutput(tt.level, &buf)

			log.Debug(tt.message)

			got := strings.Contains(buf.String(), tt.message)
			if got != tt.wantDebug {
				t.Errorf("debug output present = %v, want %v", got, tt.wantDebug)
			}
		})
	}
}

func TestLogger_WithStep(t *testing.T) {
	var buf bytes.Buffer
	log := logger.CreateLoggerWithOutput("info", &buf)

	log.WithStep("bundle-install").Info("installing gems")

	output := buf.String()
	if !strings.Contains(output, "[bundle-install]") {
		t.Errorf("expected step prefix in log output, got %q", output)
	}
	if !strings.Contains(output, "installing gems") {
		t.Error("expected message in log output")
	}
}

func TestLogger_Success(t *testing.T) {
	var buf bytes.Buffer
	log := logger.CreateLoggerWithOutput("info", &buf)

	log.Success("project ready")

	if !strings.Contains(buf.String(), "✅ project ready") {
		t.Errorf("expected success marker, got %q", buf.String())
	}
}

func TestLogger_FieldsAreSorted(t *testing.T) {
	var buf bytes.Buffer
	log := logger.CreateLoggerWithOutput("info", &buf)

	log.Info("mutation",
		logger.WithField("path", "config/routes.rb"),
		logger.WithField("applied", true),
	)

	output := buf.String()
	if !strings.Contains(output, "{applied=true, path=config/routes.rb}") {
		t.Errorf("expected sorted fields, got %q", output)
	}
}

func TestLogger_ErrorAndWarn(t *testing.T) {
	var buf bytes.Buffer
	log := logger.CreateLoggerWithOutput("info", &buf)

	log.Warn("careful")
	log.Error("broken")

	output := buf.String()
	if !strings.Contains(output, "WARN: careful") {
		t.Errorf("expected warn line, got %q", output)
	}
	if !strings.Contains(output, "ERROR: broken") {
		t.Errorf("expected error line, got %q", output)
	}
}

func TestWithContext_AddsRunID(t *testing.T) {
	var buf bytes.Buffer
	base := logger.CreateLoggerWithOutput("info", &buf)

	ctx := jctx.WithRunID(context.Background(), "run_abc")
	log := logger.WithContext(ctx, base).WithStep("git")
	log.Info("committing")

	output := buf.String()
	if !strings.Contains(output, "run_id=run_abc") {
		t.Errorf("expected run ID field, got %q", output)
	}
	if !strings.Contains(output, "[git]") {
		t.Errorf("expected step prefix, got %q", output)
	}
}

func TestNopLogger(t *testing.T) {
	log := logger.NewNopLogger()
	log.Error("discarded")
	log.WithStep("x").Success("discarded")
}

func TestWithContext_AddsStepFromContext(t *testing.T) {
	var buf bytes.Buffer
	base := logger.CreateLoggerWithOutput("info", &buf)

	ctx := jctx.WithStep(context.Background(), "bundle-install")
	logger.WithContext(ctx, base).Info("installing")

	output := buf.String()
	if !strings.Contains(output, "[bundle-install]") {
		t.Errorf("expected step from context, got %q", output)
	}
	if strings.Contains(output, "unknown-run") {
		t.Errorf("placeholder run ID leaked into %q", output)
	}
}
