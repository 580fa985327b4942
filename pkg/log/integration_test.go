package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"

	mlerrors "github.com/YuminosukeSato/mlworkflow/pkg/errors"
)

// TestLoggerInterface tests the TestLogger implementation
func TestLoggerInterface(t *testing.T) {
	testLogger, buffer := NewTestLogger(LevelDebug)

	testLogger.Debug("debug message", "key1", "value1", "number", 42)
	testLogger.Info("info message", OperationKey, OperationFit)
	testLogger.Warn("warning message", ErrorCodeKey, ErrorConvergence)
	testLogger.Error("error message", fmt.Errorf("test error"), ColumnKey, "income")

	if buffer.String() == "" {
		t.Fatal("Expected log output, got empty string")
	}

	for _, msg := range []string{"debug message", "info message", "warning message", "error message"} {
		if !testLogger.ContainsMessage(msg) {
			t.Errorf("%q not found in output", msg)
		}
	}

	if !testLogger.ContainsField("key1", "value1") {
		t.Error("Expected field key1=value1 not found")
	}
	if !testLogger.ContainsField("number", 42.0) {
		t.Error("Expected field number=42 not found")
	}
	if !testLogger.ContainsField(ErrAttrKey, "test error") {
		t.Error("Expected leading error to be logged under the error key")
	}
}

// TestLoggerWith tests the With method for context-aware logging
func TestLoggerWith(t *testing.T) {
	testLogger, _ := NewTestLogger(LevelDebug)

	contextLogger := testLogger.With(
		PipelineKey, PipelineImputation,
		RunIDKey, "run-001",
	)
	contextLogger.Info("contextual message", ModelNameKey, "KNNImputer")

	if !testLogger.ContainsField(PipelineKey, PipelineImputation) {
		t.Error("Pipeline context not found")
	}
	if !testLogger.ContainsField(RunIDKey, "run-001") {
		t.Error("Run id context not found")
	}
	if !testLogger.ContainsField(ModelNameKey, "KNNImputer") {
		t.Error("Model name field not found")
	}
}

func TestLoggerEnabled(t *testing.T) {
	testLogger, _ := NewTestLogger(LevelInfo)
	ctx := context.Background()

	if !testLogger.Enabled(ctx, LevelInfo) || !testLogger.Enabled(ctx, LevelError) {
		t.Error("Logger should be enabled for Info and Error")
	}
	if testLogger.Enabled(ctx, LevelDebug) {
		t.Error("Logger should not be enabled for Debug level")
	}

	testLogger.Debug("this should not appear")
	testLogger.Info("this should appear")

	if testLogger.ContainsMessage("this should not appear") {
		t.Error("Debug message should not appear when level is Info")
	}
	if !testLogger.ContainsMessage("this should appear") {
		t.Error("Info message should appear when level is Info")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"info", LevelInfo, false},
		{"", LevelInfo, false},
		{"warn", LevelWarn, false},
		{"error", LevelError, false},
		{"verbose", LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestZerologLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLogger(&buf, LevelInfo, false).With(RunIDKey, "abc")

	logger.Debug("hidden")
	logger.Info("fold scored", FoldKey, 2, AccuracyKey, 0.9)
	logger.Error("fit failed", mlerrors.NewDimensionError("Lasso.Fit", 10, 9, 0), ModelNameKey, "Lasso")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %s", len(lines), buf.String())
	}

	var info map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &info); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if info[RunIDKey] != "abc" || info[FoldKey] != 2.0 || info[AccuracyKey] != 0.9 {
		t.Errorf("unexpected info record: %v", info)
	}

	var errRecord map[string]interface{}
	if err := json.Unmarshal([]byte(lines[1]), &errRecord); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if errRecord[ErrorTypeKey] != "*errors.DimensionError" {
		t.Errorf("unexpected error type: %v", errRecord[ErrorTypeKey])
	}
	detail, ok := errRecord["error.detail"].(map[string]interface{})
	if !ok || detail["operation"] != "Lasso.Fit" {
		t.Errorf("expected structured error detail, got %v", errRecord["error.detail"])
	}
}

func TestZerologLoggerInstallWarnings(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLogger(&buf, LevelDebug, false)
	logger.InstallWarnings()
	defer mlerrors.SetZerologWarnFunc(nil)

	mlerrors.Warn(mlerrors.NewConvergenceWarning("Lasso", 5, ""))

	if !strings.Contains(buf.String(), `"algorithm":"Lasso"`) {
		t.Errorf("expected warning fields in output, got %s", buf.String())
	}
}

func TestSlogLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogLogger(&buf, LevelInfo)

	logger.With(PipelineKey, PipelineRegularization).
		Error("pipeline aborted", mlerrors.NewValueError("Ridge.Fit", "alpha must be non-negative"))

	out := buf.String()
	for _, want := range []string{`"severity":"ERROR"`, `"message":"pipeline aborted"`, `"error.type":"*errors.ValueError"`, PipelineRegularization} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in %s", want, out)
		}
	}
}

// TestConcurrentLogging tests thread safety of logging
func TestConcurrentLogging(t *testing.T) {
	testLogger, _ := NewTestLogger(LevelInfo)

	const goroutines, perGoroutine = 4, 5
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			fold := testLogger.With(FoldKey, id)
			for j := 0; j < perGoroutine; j++ {
				fold.Info(fmt.Sprintf("goroutine %d message %d", id, j))
			}
		}(i)
	}
	wg.Wait()

	entries, err := testLogger.GetLogEntries()
	if err != nil {
		t.Fatalf("Failed to parse log entries: %v", err)
	}
	if len(entries) != goroutines*perGoroutine {
		t.Errorf("Expected %d log entries, got %d", goroutines*perGoroutine, len(entries))
	}
}

func BenchmarkLogging(b *testing.B) {
	testLogger, _ := NewTestLogger(LevelInfo)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		testLogger.Info("benchmark message",
			"iteration", i,
			OperationKey, OperationPredict,
			SamplesKey, 1000,
		)
	}
}
