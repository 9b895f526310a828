package detector

import (
	"testing"
	"time"

	"idlemark/pkg/idle"
)

type nopHandler struct{}

func (nopHandler) Idled() error   { return nil }
func (nopHandler) Resumed() error { return nil }

var _ idle.Handler = nopHandler{}

func TestDetectDisplayServer(t *testing.T) {
	tests := []struct {
		name           string
		sessionType    string
		waylandDisplay string
		x11Display     string
		expected       string
	}{
		{
			name:           "Wayland session",
			sessionType:    "wayland",
			waylandDisplay: "wayland-0",
			x11Display:     "",
			expected:       "wayland",
		},
		{
			name:           "X11 session",
			sessionType:    "x11",
			waylandDisplay: "",
			x11Display:     ":0",
			expected:       "x11",
		},
		{
			name:           "Unknown session",
			sessionType:    "",
			waylandDisplay: "",
			x11Display:     "",
			expected:       "unknown",
		},
		{
			name:           "Wayland display set",
			sessionType:    "",
			waylandDisplay: "wayland-1",
			x11Display:     "",
			expected:       "wayland",
		},
		{
			name:           "XWayland prefers wayland",
			sessionType:    "",
			waylandDisplay: "wayland-1",
			x11Display:     ":1",
			expected:       "wayland",
		},
		{
			name:           "X11 display set",
			sessionType:    "",
			waylandDisplay: "",
			x11Display:     ":1",
			expected:       "x11",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("XDG_SESSION_TYPE", tt.sessionType)
			t.Setenv("WAYLAND_DISPLAY", tt.waylandDisplay)
			t.Setenv("DISPLAY", tt.x11Display)

			result := DetectDisplayServer()
			if result != tt.expected {
				t.Errorf("DetectDisplayServer() = %s, want %s", result, tt.expected)
			}
		})
	}
}

func TestNewWithUnsupportedSystem(t *testing.T) {
	t.Setenv("XDG_SESSION_TYPE", "")
	t.Setenv("WAYLAND_DISPLAY", "")
	t.Setenv("DISPLAY", "")

	src, err := New(BackendAuto, 5*time.Minute, nopHandler{})
	if err == nil {
		src.Close()
		t.Fatal("New() succeeded without any display server")
	}
	t.Logf("New() correctly returned error: %v", err)
}

func TestNewUnknownBackend(t *testing.T) {
	if _, err := New("mir", time.Minute, nopHandler{}); err == nil {
		t.Error("New() accepted an unknown backend")
	}
}

func TestNewWaylandWithoutCompositor(t *testing.T) {
	t.Setenv("WAYLAND_SOCKET", "")
	t.Setenv("WAYLAND_DISPLAY", "wayland-missing")
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())

	src, err := New(BackendWayland, time.Minute, nopHandler{})
	if err == nil {
		src.Close()
		t.Fatal("New() connected to a compositor that does not exist")
	}
}
