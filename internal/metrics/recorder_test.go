package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

// stubHandler stands in for the marker
type stubHandler struct {
	idledErr error
}

func (h stubHandler) Idled() error   { return h.idledErr }
func (h stubHandler) Resumed() error { return nil }

func TestRecorderCountsTransitions(t *testing.T) {
	r := NewRecorder(stubHandler{}, "")

	steps := []struct {
		call     func() error
		wantIdle float64
	}{
		{r.Idled, 1},
		{r.Resumed, 0},
		{r.Idled, 1},
	}
	for i, step := range steps {
		if err := step.call(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if got := testutil.ToFloat64(r.idleState); got != step.wantIdle {
			t.Errorf("step %d: idle gauge = %v, want %v", i, got, step.wantIdle)
		}
	}

	if got := testutil.ToFloat64(r.transitions.WithLabelValues("idled")); got != 2 {
		t.Errorf("idled transitions = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.transitions.WithLabelValues("resumed")); got != 1 {
		t.Errorf("resumed transitions = %v, want 1", got)
	}
	if testutil.ToFloat64(r.lastTransition) == 0 {
		t.Error("last transition timestamp not set")
	}
}

func TestRecorderSkipsFailedTransitions(t *testing.T) {
	boom := errors.New("marker already exists")
	r := NewRecorder(stubHandler{idledErr: boom}, "")

	if err := r.Idled(); !errors.Is(err, boom) {
		t.Fatalf("Idled() = %v, want %v", err, boom)
	}
	if got := testutil.ToFloat64(r.transitions.WithLabelValues("idled")); got != 0 {
		t.Errorf("idled transitions = %v after a failure, want 0", got)
	}
}

func TestRecorderSeriesExistUpFront(t *testing.T) {
	r := NewRecorder(stubHandler{}, "")

	if n := testutil.CollectAndCount(r.transitions); n != 2 {
		t.Errorf("transition series = %d, want 2", n)
	}
}

func TestRecorderWritesTextfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "idlemark.prom")
	r := NewRecorder(stubHandler{}, path)

	if err := r.Idled(); err != nil {
		t.Fatalf("Idled() error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("textfile not written: %v", err)
	}
	text := string(data)
	for _, want := range []string{
		`idlemark_transitions_total{kind="idled"} 1`,
		`idlemark_transitions_total{kind="resumed"} 0`,
		"idlemark_idle 1",
		"idlemark_last_transition_timestamp_seconds",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("textfile missing %q:\n%s", want, text)
		}
	}
}

func TestRecorderTextfileFailureIsNotFatal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", "idlemark.prom")
	r := NewRecorder(stubHandler{}, path)

	if err := r.Idled(); err != nil {
		t.Errorf("Idled() = %v, want nil when only the textfile fails", err)
	}
	if err := r.Flush(); err == nil {
		t.Error("Flush() succeeded into a missing directory")
	}
}
