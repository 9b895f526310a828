package marker

import (
	"os"
	"path/filepath"
	"testing"

	"idlemark/pkg/idle"
)

func TestMarkerImplementsHandler(t *testing.T) {
	var _ idle.Handler = (*Marker)(nil)
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		input   string
		want    Mode
		wantErr bool
	}{
		{"strict", ModeStrict, false},
		{"heal", ModeHeal, false},
		{"", ModeStrict, false},
		{"ignore", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseMode(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMode(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseMode(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestIdledCreatesEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "idle")
	m := New(path, ModeStrict)

	if err := m.Idled(); err != nil {
		t.Fatalf("Idled() error: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("marker not created: %v", err)
	}
	if info.Size() != 0 {
		t.Errorf("marker size = %d, want 0", info.Size())
	}

	if err := m.Resumed(); err != nil {
		t.Fatalf("Resumed() error: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("marker still present after Resumed(): %v", err)
	}
}

func TestAlternatingEventsTrackLastEvent(t *testing.T) {
	for _, mode := range []Mode{ModeStrict, ModeHeal} {
		t.Run(string(mode), func(t *testing.T) {
			m := New(filepath.Join(t.TempDir(), "idle"), mode)

			steps := []idle.Kind{
				idle.KindIdled, idle.KindResumed,
				idle.KindIdled, idle.KindResumed,
				idle.KindIdled,
			}
			for i, kind := range steps {
				var err error
				if kind == idle.KindIdled {
					err = m.Idled()
				} else {
					err = m.Resumed()
				}
				if err != nil {
					t.Fatalf("step %d (%s): %v", i, kind, err)
				}

				exists, err := m.Exists()
				if err != nil {
					t.Fatalf("Exists() error: %v", err)
				}
				if want := kind == idle.KindIdled; exists != want {
					t.Errorf("step %d (%s): exists = %v, want %v", i, kind, exists, want)
				}
			}
		})
	}
}

func TestStrictModeFailsOnConflict(t *testing.T) {
	path := filepath.Join(t.TempDir(), "idle")
	m := New(path, ModeStrict)

	if err := m.Resumed(); err == nil {
		t.Error("Resumed() with no marker succeeded, want error")
	}

	if err := m.Idled(); err != nil {
		t.Fatalf("Idled() error: %v", err)
	}
	if err := m.Idled(); err == nil {
		t.Error("second Idled() succeeded, want error")
	}
}

func TestHealModeIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "idle")
	m := New(path, ModeHeal)

	if err := m.Resumed(); err != nil {
		t.Errorf("Resumed() with no marker: %v", err)
	}

	if err := os.WriteFile(path, []byte("stale"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := m.Idled(); err != nil {
		t.Fatalf("Idled() over existing file: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() != 0 {
		t.Errorf("marker size = %d, want truncated to 0", info.Size())
	}

	if err := m.Idled(); err != nil {
		t.Errorf("second Idled(): %v", err)
	}
	if err := m.Resumed(); err != nil {
		t.Errorf("Resumed(): %v", err)
	}
	if err := m.Resumed(); err != nil {
		t.Errorf("second Resumed(): %v", err)
	}
}

func TestUnwritablePathFailsInBothModes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", "idle")

	for _, mode := range []Mode{ModeStrict, ModeHeal} {
		t.Run(string(mode), func(t *testing.T) {
			if err := New(path, mode).Idled(); err == nil {
				t.Error("Idled() in a missing directory succeeded, want error")
			}
		})
	}
}

func TestNewDefaultsToStrict(t *testing.T) {
	m := New("/tmp/idle", "")
	if m.Mode() != ModeStrict {
		t.Errorf("Mode() = %q, want %q", m.Mode(), ModeStrict)
	}
	if m.Path() != "/tmp/idle" {
		t.Errorf("Path() = %q, want /tmp/idle", m.Path())
	}
}
