package utils

import (
	"testing"
	"time"
)

func TestFormatRoundedUnit(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0s"},
		{42 * time.Second, "42s"},
		{59*time.Second + 900*time.Millisecond, "59s"},
		{time.Minute, "1m"},
		{7*time.Minute + 30*time.Second, "7m"},
		{time.Hour, "1h"},
		{3*time.Hour + 59*time.Minute, "3h"},
		{-90 * time.Second, "1m"},
	}

	for _, tt := range tests {
		if got := FormatRoundedUnit(tt.in); got != tt.want {
			t.Errorf("FormatRoundedUnit(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
