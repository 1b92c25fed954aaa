package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"vidfetch/errors"
	"vidfetch/models"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()

	db, err := InitDB(filepath.Join(t.TempDir(), "test.db"), DefaultDBConfig())
	if err != nil {
		t.Fatalf("InitDB failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	repo, err := NewRepository(db)
	if err != nil {
		t.Fatalf("NewRepository failed: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	return repo
}

func testDownload(id, url string) *models.Download {
	now := time.Now().UTC().Truncate(time.Second)
	return &models.Download{
		ID:        id,
		URL:       url,
		Format:    models.FormatMP3,
		Platform:  "YouTube",
		Status:    models.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestInitDBAppliesPoolSettings(t *testing.T) {
	db, err := InitDB(filepath.Join(t.TempDir(), "pool.db"), DBConfig{
		MaxConnections:     3,
		MaxIdleConnections: 1,
		ConnMaxLifetime:    time.Minute,
	})
	if err != nil {
		t.Fatalf("InitDB failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if got := db.Stats().MaxOpenConnections; got != 3 {
		t.Errorf("expected max open connections 3, got %d", got)
	}
}

func TestSaveAndFind(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	d := testDownload("id-1", "https://youtu.be/abc")
	if err := repo.Save(ctx, d); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	found, err := repo.Find(ctx, "id-1")
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}

	if found.URL != d.URL {
		t.Errorf("expected URL %s, got %s", d.URL, found.URL)
	}
	if found.Format != models.FormatMP3 {
		t.Errorf("expected mp3, got %s", found.Format)
	}
	if found.Status != models.StatusPending {
		t.Errorf("expected pending, got %s", found.Status)
	}
	if found.Platform != "YouTube" {
		t.Errorf("expected YouTube, got %s", found.Platform)
	}
}

func TestFindNotFound(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.Find(context.Background(), "missing")
	if !errors.IsNotFound(err) {
		t.Errorf("expected not-found error, got %v", err)
	}
}

func TestFindByURL(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	d := testDownload("id-2", "https://youtu.be/xyz")
	if err := repo.Save(ctx, d); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	found, err := repo.FindByURL(ctx, "https://youtu.be/xyz", models.FormatMP3)
	if err != nil {
		t.Fatalf("FindByURL failed: %v", err)
	}
	if found.ID != "id-2" {
		t.Errorf("expected id-2, got %s", found.ID)
	}

	// Same URL, different format is a different job.
	_, err = repo.FindByURL(ctx, "https://youtu.be/xyz", models.FormatMP4)
	if !errors.IsNotFound(err) {
		t.Errorf("expected not-found for mp4 variant, got %v", err)
	}
}

func TestSaveUpsert(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	d := testDownload("id-3", "https://youtu.be/upd")
	if err := repo.Save(ctx, d); err != nil {
		t.Fatalf("initial Save failed: %v", err)
	}

	d.Status = models.StatusCompleted
	d.Percent = 100
	d.Title = "A Title"
	d.Filename = "170_A_Title.mp3"
	d.FileSize = 1024
	d.UpdatedAt = time.Now().UTC().Truncate(time.Second)
	if err := repo.Save(ctx, d); err != nil {
		t.Fatalf("upsert Save failed: %v", err)
	}

	found, err := repo.Find(ctx, "id-3")
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if found.Status != models.StatusCompleted {
		t.Errorf("expected completed, got %s", found.Status)
	}
	if found.Filename != "170_A_Title.mp3" {
		t.Errorf("expected updated filename, got %s", found.Filename)
	}
	if found.FileSize != 1024 {
		t.Errorf("expected file size 1024, got %d", found.FileSize)
	}
}
