package sqlite

const (
	insertQuery = `
        INSERT INTO downloads (
            id, url, format, platform, status, percent,
            title, filename, file_size, duration, error,
            created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            platform = excluded.platform,
            status = excluded.status,
            percent = excluded.percent,
            title = excluded.title,
            filename = excluded.filename,
            file_size = excluded.file_size,
            duration = excluded.duration,
            error = excluded.error,
            updated_at = excluded.updated_at
    `

	getQuery = `
        SELECT id, url, format, platform, status, percent,
               title, filename, file_size, duration, error,
               created_at, updated_at
        FROM downloads WHERE id = ?
    `

	getByURLQuery = `
        SELECT id, url, format, platform, status, percent,
               title, filename, file_size, duration, error,
               created_at, updated_at
        FROM downloads WHERE url = ? AND format = ?
    `
)
