package marker

import (
	"fmt"
	"log"
	"os"

	"github.com/pkg/errors"
)

// Mode decides what happens when an event does not match the marker on disk
type Mode string

const (
	// ModeStrict fails when idled finds the marker present or resumed finds
	// it absent. Every failure is fatal to the caller.
	ModeStrict Mode = "strict"

	// ModeHeal creates the marker if absent and removes it if present,
	// ignoring out-of-order events.
	ModeHeal Mode = "heal"
)

// ParseMode converts a flag or config value into a Mode
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeStrict, ModeHeal:
		return Mode(s), nil
	case "":
		return ModeStrict, nil
	default:
		return "", fmt.Errorf("unknown marker mode %q (want %q or %q)", s, ModeStrict, ModeHeal)
	}
}

// Marker mirrors idle state into the existence of a zero-byte file.
// It holds no copy of the state; every call goes straight to the filesystem.
type Marker struct {
	path string
	mode Mode
}

// New creates a marker for path
func New(path string, mode Mode) *Marker {
	if mode == "" {
		mode = ModeStrict
	}
	return &Marker{path: path, mode: mode}
}

// Path returns the marker file path
func (m *Marker) Path() string {
	return m.path
}

// Mode returns the conflict mode
func (m *Marker) Mode() Mode {
	return m.mode
}

// Idled creates the marker file
func (m *Marker) Idled() error {
	flags := os.O_CREATE | os.O_WRONLY
	if m.mode == ModeStrict {
		flags |= os.O_EXCL
	} else {
		flags |= os.O_TRUNC
	}

	f, err := os.OpenFile(m.path, flags, 0644)
	if err != nil {
		return errors.Wrapf(err, "failed to create idle marker %s", m.path)
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(err, "failed to close idle marker %s", m.path)
	}

	log.Printf("Idle marker created: %s", m.path)
	return nil
}

// Resumed removes the marker file
func (m *Marker) Resumed() error {
	err := os.Remove(m.path)
	if err != nil {
		if m.mode == ModeHeal && os.IsNotExist(err) {
			log.Printf("Idle marker already absent: %s", m.path)
			return nil
		}
		return errors.Wrapf(err, "failed to remove idle marker %s", m.path)
	}

	log.Printf("Idle marker removed: %s", m.path)
	return nil
}

// Exists reports whether the marker file is currently present
func (m *Marker) Exists() (bool, error) {
	_, err := os.Stat(m.path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, errors.Wrapf(err, "failed to stat idle marker %s", m.path)
}
