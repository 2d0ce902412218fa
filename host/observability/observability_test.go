package observability

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	testCases := map[string]zerolog.Level{
		"trace":   zerolog.TraceLevel,
		"DEBUG":   zerolog.DebugLevel,
		" info ":  zerolog.InfoLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"off":     zerolog.Disabled,
		"bogus":   zerolog.InfoLevel,
		"":        zerolog.InfoLevel,
	}

	for input, want := range testCases {
		if got := ParseLevel(input); got != want {
			t.Errorf("ParseLevel(%q): expected %v, got %v", input, want, got)
		}
	}
}

func TestInitLoggerEnvOverride(t *testing.T) {
	t.Setenv(EnvLogLevel, "error")

	var buf bytes.Buffer
	logger := initLogger(&buf, "test", "debug", false)

	logger.Info().Msg("hidden")
	logger.Error().Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("Expected info message to be filtered, got %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, `"app":"test"`) {
		t.Errorf("Expected error message with app field, got %q", out)
	}
}

func TestRecordTransaction(t *testing.T) {
	before := testutil.ToFloat64(transactions.WithLabelValues("t1", KindQuery, "ok"))
	RecordTransaction("t1", KindQuery, nil)
	RecordTransaction("t1", KindQuery, errors.New("boom"))

	if got := testutil.ToFloat64(transactions.WithLabelValues("t1", KindQuery, "ok")); got != before+1 {
		t.Errorf("Expected ok count %v, got %v", before+1, got)
	}
	if got := testutil.ToFloat64(transactions.WithLabelValues("t1", KindQuery, "error")); got < 1 {
		t.Errorf("Expected error count >= 1, got %v", got)
	}
}

func TestSetAxisState(t *testing.T) {
	SetAxisState("t2", "X", 200, true)

	if got := testutil.ToFloat64(axisPosition.WithLabelValues("t2", "X")); got != 200 {
		t.Errorf("Expected position 200, got %v", got)
	}
	if got := testutil.ToFloat64(axisMoving.WithLabelValues("t2", "X")); got != 1 {
		t.Errorf("Expected moving 1, got %v", got)
	}

	SetAxisState("t2", "X", 150, false)
	if got := testutil.ToFloat64(axisMoving.WithLabelValues("t2", "X")); got != 0 {
		t.Errorf("Expected moving 0, got %v", got)
	}
}
