package util

import (
	"testing"
	"time"
)

func TestFormatBytes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		bytes    int64
		expected string
	}{
		{name: "zero bytes", bytes: 0, expected: "0 B"},
		{name: "bytes under kilobyte", bytes: 512, expected: "512 B"},
		{name: "exact kilobyte", bytes: 1024, expected: "1.0 KB"},
		{name: "fractional kilobyte", bytes: 1536, expected: "1.5 KB"},
		{name: "megabyte", bytes: 1024 * 1024, expected: "1.0 MB"},
		{name: "default image limit", bytes: 5 << 20, expected: "5.0 MB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := FormatBytes(tt.bytes); got != tt.expected {
				t.Fatalf("FormatBytes(%d) = %s, want %s", tt.bytes, got, tt.expected)
			}
		})
	}
}

func TestFormatMinutes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		duration time.Duration
		expected string
	}{
		{name: "default otp window", duration: 10 * time.Minute, expected: "10 minutes"},
		{name: "single minute", duration: time.Minute, expected: "1 minute"},
		{name: "under one minute", duration: 30 * time.Second, expected: "1 minute"},
		{name: "rounds up partial minute", duration: 90 * time.Second, expected: "2 minutes"},
		{name: "hours", duration: 2 * time.Hour, expected: "120 minutes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := FormatMinutes(tt.duration); got != tt.expected {
				t.Fatalf("FormatMinutes(%s) = %s, want %s", tt.duration, got, tt.expected)
			}
		})
	}
}
