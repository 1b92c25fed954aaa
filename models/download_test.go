package models

import (
	"testing"
	"time"
)

func TestFormatValid(t *testing.T) {
	tests := []struct {
		format   Format
		expected bool
	}{
		{FormatMP3, true},
		{FormatMP4, true},
		{Format("avi"), false},
		{Format(""), false},
	}

	for _, tt := range tests {
		if got := tt.format.Valid(); got != tt.expected {
			t.Errorf("Format(%q).Valid() = %v, want %v", tt.format, got, tt.expected)
		}
	}
}

func TestIsStale(t *testing.T) {
	timeout := 10 * time.Minute

	tests := []struct {
		name     string
		download Download
		expected bool
	}{
		{
			name:     "active and old",
			download: Download{Status: StatusDownloading, UpdatedAt: time.Now().Add(-time.Hour)},
			expected: true,
		},
		{
			name:     "active and fresh",
			download: Download{Status: StatusProcessing, UpdatedAt: time.Now()},
			expected: false,
		},
		{
			name:     "completed and old",
			download: Download{Status: StatusCompleted, UpdatedAt: time.Now().Add(-time.Hour)},
			expected: false,
		},
		{
			name:     "failed and old",
			download: Download{Status: StatusFailed, UpdatedAt: time.Now().Add(-time.Hour)},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.download.IsStale(timeout); got != tt.expected {
				t.Errorf("IsStale() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestNewDownloadResponse(t *testing.T) {
	d := &Download{
		ID:       "abc",
		URL:      "https://youtu.be/xyz",
		Format:   FormatMP3,
		Status:   StatusCompleted,
		Percent:  100,
		Title:    "Some Title",
		Filename: "1700000000_Some_Title.mp3",
		FileSize: 3 * 1024 * 1024,
	}

	resp := NewDownloadResponse(d)

	if resp.FileURL != "/api/download/1700000000_Some_Title.mp3" {
		t.Errorf("unexpected file URL: %s", resp.FileURL)
	}
	if resp.Percent != "100.0%" {
		t.Errorf("unexpected percent: %s", resp.Percent)
	}
	if resp.Size != "3.00 MB" {
		t.Errorf("unexpected size: %s", resp.Size)
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		bytes    int64
		expected string
	}{
		{512, "512 B"},
		{2048, "2.00 KB"},
		{5 * 1024 * 1024, "5.00 MB"},
		{3 * 1024 * 1024 * 1024, "3.00 GB"},
	}

	for _, tt := range tests {
		if got := FormatSize(tt.bytes); got != tt.expected {
			t.Errorf("FormatSize(%d) = %q, want %q", tt.bytes, got, tt.expected)
		}
	}
}
