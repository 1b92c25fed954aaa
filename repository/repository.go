package repository

import (
	"context"

	"vidfetch/models"
)

type DownloadRepository interface {
	Save(ctx context.Context, download *models.Download) error
	Find(ctx context.Context, id string) (*models.Download, error)
	FindByURL(ctx context.Context, url string, format models.Format) (*models.Download, error)
}
