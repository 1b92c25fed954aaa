package models

import (
	"time"
)

type Status string

const (
	StatusPending     Status = "pending"
	StatusDownloading Status = "downloading"
	StatusProcessing  Status = "processing"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
)

type Format string

const (
	FormatMP3 Format = "mp3"
	FormatMP4 Format = "mp4"
)

func (f Format) Valid() bool {
	return f == FormatMP3 || f == FormatMP4
}

// Ext returns the file extension including the leading dot.
func (f Format) Ext() string {
	return "." + string(f)
}

type Download struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Format    Format    `json:"format"`
	Platform  string    `json:"platform,omitempty"`
	Status    Status    `json:"status"`
	Percent   float64   `json:"percent"`
	Title     string    `json:"title,omitempty"`
	Filename  string    `json:"filename,omitempty"`
	FileSize  int64     `json:"file_size,omitempty"`
	Duration  float64   `json:"duration,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Status check methods
func (d *Download) IsActive() bool {
	switch d.Status {
	case StatusPending, StatusDownloading, StatusProcessing:
		return true
	}
	return false
}

func (d *Download) IsCompleted() bool { return d.Status == StatusCompleted }
func (d *Download) IsFailed() bool    { return d.Status == StatusFailed }

// IsStale checks if the job has been stuck in a non-terminal state for too long
func (d *Download) IsStale(timeout time.Duration) bool {
	if !d.IsActive() {
		return false
	}
	return time.Since(d.UpdatedAt) > timeout
}

// DownloadResponse represents the API response for a download job
type DownloadResponse struct {
	ID       string  `json:"id"`
	URL      string  `json:"url"`
	Format   Format  `json:"format"`
	Platform string  `json:"platform,omitempty"`
	Status   Status  `json:"status"`
	Percent  string  `json:"percent"`
	Title    string  `json:"title,omitempty"`
	Filename string  `json:"filename,omitempty"`
	Size     string  `json:"size,omitempty"`
	FileURL  string  `json:"file_url,omitempty"`
	Error    string  `json:"error,omitempty"`
}

// NewDownloadResponse creates a response from a download model
func NewDownloadResponse(d *Download) *DownloadResponse {
	resp := &DownloadResponse{
		ID:       d.ID,
		URL:      d.URL,
		Format:   d.Format,
		Platform: d.Platform,
		Status:   d.Status,
		Percent:  FormatPercent(d.Percent),
		Title:    d.Title,
		Filename: d.Filename,
		Error:    d.Error,
	}
	if d.Filename != "" {
		resp.FileURL = "/api/download/" + d.Filename
	}
	if d.FileSize > 0 {
		resp.Size = FormatSize(d.FileSize)
	}
	return resp
}
