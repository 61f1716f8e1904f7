package history

import (
	"context"
	"database/sql"
	"time"
)

// Repository is the storage interface for upload history records.
type Repository interface {
	Create(ctx context.Context, rec *Record) error
	Get(ctx context.Context, id string) (*Record, error)
	List(ctx context.Context, limit int) ([]*Record, error)
	// ListByStatus returns records in the given status, newest first.
	// Scan classification keys on filenames seen here; matching is by
	// filename only, so a renamed file is treated as new.
	ListByStatus(ctx context.Context, status string) ([]*Record, error)
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, rec *Record) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO uploads (id, filename, title, upload_date, youtube_url, status, error)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.Filename, rec.Title, rec.UploadDate.Format(time.RFC3339),
		nullString(rec.YouTubeURL), rec.Status, nullString(rec.Error))
	return err
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (*Record, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, filename, title, upload_date, youtube_url, status, error
		FROM uploads WHERE id = ?
	`, id)
	return scanRecord(row)
}

func (r *SQLiteRepository) List(ctx context.Context, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, filename, title, upload_date, youtube_url, status, error
		FROM uploads ORDER BY upload_date DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRecords(rows)
}

func (r *SQLiteRepository) ListByStatus(ctx context.Context, status string) ([]*Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, filename, title, upload_date, youtube_url, status, error
		FROM uploads WHERE status = ? ORDER BY upload_date DESC
	`, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRecords(rows)
}

func scanRecord(row *sql.Row) (*Record, error) {
	var rec Record
	var uploadDate string
	var youtubeURL sql.NullString
	var errMsg sql.NullString

	err := row.Scan(&rec.ID, &rec.Filename, &rec.Title, &uploadDate, &youtubeURL, &rec.Status, &errMsg)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rec.UploadDate, _ = time.Parse(time.RFC3339, uploadDate)
	rec.YouTubeURL = youtubeURL.String
	rec.Error = errMsg.String
	return &rec, nil
}

func collectRecords(rows *sql.Rows) ([]*Record, error) {
	var records []*Record
	for rows.Next() {
		var rec Record
		var uploadDate string
		var youtubeURL sql.NullString
		var errMsg sql.NullString

		if err := rows.Scan(&rec.ID, &rec.Filename, &rec.Title, &uploadDate, &youtubeURL, &rec.Status, &errMsg); err != nil {
			return nil, err
		}
		rec.UploadDate, _ = time.Parse(time.RFC3339, uploadDate)
		rec.YouTubeURL = youtubeURL.String
		rec.Error = errMsg.String
		records = append(records, &rec)
	}
	return records, rows.Err()
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
