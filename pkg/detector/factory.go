package detector

import (
	"fmt"
	"os"
	"time"

	"idlemark/pkg/idle"
	"idlemark/pkg/integrations/wayland"
	"idlemark/pkg/integrations/x11"
)

// Backend names accepted by New
const (
	BackendAuto    = "auto"
	BackendWayland = "wayland"
	BackendX11     = "x11"
)

// New creates the idle source for backend, resolving "auto" from the session environment
func New(backend string, timeout time.Duration, handler idle.Handler) (idle.Source, error) {
	if backend == "" || backend == BackendAuto {
		backend = DetectDisplayServer()
	}

	var (
		src idle.Source
		err error
	)
	switch backend {
	case BackendWayland:
		src, err = wayland.NewSource(timeout, handler)
	case BackendX11:
		src, err = x11.NewSource(timeout, handler)
	default:
		return nil, fmt.Errorf("no idle backend for display server %q", backend)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s idle source: %w", backend, err)
	}
	return src, nil
}

// DetectDisplayServer guesses the display server of the current session.
// Wayland wins when both are present, since XWayland sets DISPLAY too.
func DetectDisplayServer() string {
	sessionType := os.Getenv("XDG_SESSION_TYPE")
	waylandDisplay := os.Getenv("WAYLAND_DISPLAY")
	x11Display := os.Getenv("DISPLAY")

	if sessionType == "wayland" || waylandDisplay != "" {
		return BackendWayland
	}

	if sessionType == "x11" || x11Display != "" {
		return BackendX11
	}

	return "unknown"
}
