package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"vidfetch/errors"
	"vidfetch/models"
)

type Repository struct {
	db       *sql.DB
	insert   *sql.Stmt
	get      *sql.Stmt
	getByURL *sql.Stmt
}

func NewRepository(db *sql.DB) (*Repository, error) {
	const op = "sqlite.NewRepository"

	r := &Repository{db: db}

	var err error
	if r.insert, err = db.Prepare(insertQuery); err != nil {
		return nil, errors.Internal(op, err, "failed to prepare insert statement")
	}
	if r.get, err = db.Prepare(getQuery); err != nil {
		return nil, errors.Internal(op, err, "failed to prepare get statement")
	}
	if r.getByURL, err = db.Prepare(getByURLQuery); err != nil {
		return nil, errors.Internal(op, err, "failed to prepare getByURL statement")
	}

	return r, nil
}

func (r *Repository) Close() error {
	for _, stmt := range []*sql.Stmt{r.insert, r.get, r.getByURL} {
		if stmt != nil {
			stmt.Close()
		}
	}
	return nil
}

func (r *Repository) Save(ctx context.Context, download *models.Download) error {
	const op = "SQLiteRepository.Save"

	for i := 0; i < 3; i++ { // Simple retry logic
		err := r.save(ctx, download)
		if err == nil {
			return nil
		}
		if !isLockError(err) {
			return errors.Internal(op, err, "Failed to save download")
		}
		time.Sleep(time.Second * time.Duration(i+1))
	}
	return errors.Internal(op, nil, "Failed after retries")
}

func (r *Repository) save(ctx context.Context, download *models.Download) error {
	_, err := r.insert.ExecContext(ctx,
		download.ID,
		download.URL,
		string(download.Format),
		download.Platform,
		string(download.Status),
		download.Percent,
		download.Title,
		download.Filename,
		download.FileSize,
		download.Duration,
		download.Error,
		download.CreatedAt,
		download.UpdatedAt,
	)
	return err
}

func (r *Repository) Find(ctx context.Context, id string) (*models.Download, error) {
	const op = "SQLiteRepository.Find"
	return r.scanRow(op, r.get.QueryRowContext(ctx, id))
}

func (r *Repository) FindByURL(ctx context.Context, url string, format models.Format) (*models.Download, error) {
	const op = "SQLiteRepository.FindByURL"
	return r.scanRow(op, r.getByURL.QueryRowContext(ctx, url, string(format)))
}

func (r *Repository) scanRow(op string, row *sql.Row) (*models.Download, error) {
	download := &models.Download{}
	var format, status string

	err := row.Scan(
		&download.ID,
		&download.URL,
		&format,
		&download.Platform,
		&status,
		&download.Percent,
		&download.Title,
		&download.Filename,
		&download.FileSize,
		&download.Duration,
		&download.Error,
		&download.CreatedAt,
		&download.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, errors.NotFound(op, nil, "Download not found")
	}
	if err != nil {
		return nil, errors.Internal(op, err, "Failed to query download")
	}

	download.Format = models.Format(format)
	download.Status = models.Status(status)
	return download, nil
}

func isLockError(err error) bool {
	return strings.Contains(err.Error(), "database is locked") ||
		strings.Contains(err.Error(), "busy")
}
