package models

import "fmt"

// FormatSize renders a byte count for API responses ("12.34 MB").
func FormatSize(sizeBytes int64) string {
	if sizeBytes < 1024 {
		return fmt.Sprintf("%d B", sizeBytes)
	}

	sizeKB := float64(sizeBytes) / 1024
	if sizeKB < 1024 {
		return fmt.Sprintf("%.2f KB", sizeKB)
	}

	sizeMB := sizeKB / 1024
	if sizeMB < 1024 {
		return fmt.Sprintf("%.2f MB", sizeMB)
	}

	return fmt.Sprintf("%.2f GB", sizeMB/1024)
}

// FormatPercent renders a progress fraction as "42.1%".
func FormatPercent(percent float64) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	return fmt.Sprintf("%.1f%%", percent)
}
