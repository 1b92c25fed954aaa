// Package files manages the download directory: final file naming, listing,
// deletion, and expiry of old files.
package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"vidfetch/errors"
	"vidfetch/metrics"
	"vidfetch/models"
)

type Store struct {
	dir    string
	ttl    time.Duration
	logger *logrus.Logger
}

// Info describes one file in the download directory.
type Info struct {
	Name     string    `json:"name"`
	Size     string    `json:"size"`
	Bytes    int64     `json:"-"`
	Date     string    `json:"date"`
	ModTime  time.Time `json:"-"`
	URL      string    `json:"url"`
}

func NewStore(dir string, ttl time.Duration) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create download directory: %w", err)
	}
	return &Store{
		dir:    dir,
		ttl:    ttl,
		logger: logrus.StandardLogger(),
	}, nil
}

func (s *Store) Dir() string { return s.dir }

// illegal filename characters replaced during sanitization
var illegalChars = []string{"/", "\\", ":", "*", "?", "\"", "<", ">", "|"}

// Sanitize strips illegal filename characters and caps the name length.
func Sanitize(filename string) string {
	for _, c := range illegalChars {
		filename = strings.ReplaceAll(filename, c, "_")
	}

	ext := filepath.Ext(filename)
	name := strings.TrimSuffix(filename, ext)
	if len(name) > 200 {
		cut := 200
		// Back off to a rune boundary so a multi-byte character is not split.
		for cut > 0 && !utf8.RuneStart(name[cut]) {
			cut--
		}
		name = name[:cut]
	}

	return name + ext
}

// Finalize moves a produced file from its per-job temp location into the
// download directory under a unique timestamped name and returns that name.
func (s *Store) Finalize(srcPath string, format models.Format) (string, int64, error) {
	base := filepath.Base(srcPath)
	ext := strings.ToLower(filepath.Ext(base))
	name := strings.TrimSuffix(base, filepath.Ext(base))

	// yt-dlp postprocessors occasionally leave a different container
	// extension behind; the requested format wins.
	if ext != format.Ext() {
		ext = format.Ext()
	}

	finalName := fmt.Sprintf("%d_%s%s", time.Now().Unix(), Sanitize(name), ext)
	finalPath := filepath.Join(s.dir, finalName)

	if err := os.Rename(srcPath, finalPath); err != nil {
		// Rename fails across filesystems; fall back to copy+remove.
		if err := copyFile(srcPath, finalPath); err != nil {
			return "", 0, fmt.Errorf("failed to move file into download directory: %w", err)
		}
		os.Remove(srcPath)
	}

	fi, err := os.Stat(finalPath)
	if err != nil {
		return "", 0, fmt.Errorf("failed to stat finalized file: %w", err)
	}

	return finalName, fi.Size(), nil
}

// Path resolves a filename inside the download directory, rejecting any name
// that would escape it.
func (s *Store) Path(filename string) (string, error) {
	const op = "Store.Path"

	if filename == "" || filename != filepath.Base(filename) {
		return "", errors.InvalidInput(op, nil, "Invalid filename")
	}

	path := filepath.Join(s.dir, filename)
	fi, err := os.Stat(path)
	if err != nil || fi.IsDir() {
		return "", errors.NotFound(op, err, "File not found")
	}

	return path, nil
}

// List returns all files in the download directory, newest first.
func (s *Store) List() ([]Info, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read download directory: %w", err)
	}

	files := make([]Info, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, Info{
			Name:    fi.Name(),
			Size:    models.FormatSize(fi.Size()),
			Bytes:   fi.Size(),
			Date:    fi.ModTime().Format("2006-01-02 15:04:05"),
			ModTime: fi.ModTime(),
			URL:     "/api/download/" + fi.Name(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].ModTime.After(files[j].ModTime)
	})

	return files, nil
}

// Delete removes a single file from the download directory.
func (s *Store) Delete(filename string) error {
	const op = "Store.Delete"

	path, err := s.Path(filename)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		return errors.Internal(op, err, "Failed to delete file")
	}
	return nil
}

// CleanOld removes files older than the store TTL and returns their names.
func (s *Store) CleanOld() []string {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to read download directory for cleanup")
		return nil
	}

	var deleted []string
	now := time.Now()

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		if now.Sub(fi.ModTime()) <= s.ttl {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, fi.Name())); err != nil {
			s.logger.WithError(err).WithField("file", fi.Name()).Error("Failed to delete old file")
			continue
		}
		deleted = append(deleted, fi.Name())
		metrics.FilesDeleted.WithLabelValues("expired").Inc()
		s.logger.WithField("file", fi.Name()).Info("Deleted old file")
	}

	return deleted
}

// Janitor runs CleanOld immediately and then on the given interval until the
// quit channel closes.
func (s *Store) Janitor(interval time.Duration, quit <-chan struct{}) {
	s.CleanOld()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-quit:
			return
		case <-ticker.C:
			s.CleanOld()
		}
	}
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0644)
}
