package store

import (
	"context"
	"os"
)

// Stats holds database statistics.
type Stats struct {
	DBPath        string       `json:"db_path"`
	DBSizeBytes   int64        `json:"db_size_bytes"`
	Attachments   int          `json:"attachments"`
	WithVariants  int          `json:"with_variants"`
	Contents      int          `json:"contents"`
	ContentMeta   int          `json:"content_meta"`
	Months        []MonthStats `json:"months"`
	OldestCreated string       `json:"oldest_created,omitempty"`
	NewestCreated string       `json:"newest_created,omitempty"`
}

// MonthStats holds per creation-month attachment counts.
type MonthStats struct {
	Month string `json:"month"` // YYYY/MM
	Count int    `json:"count"`
}

// Stats returns database statistics.
func (s *SQLiteStore) Stats(ctx context.Context, dbPath string) (*Stats, error) {
	st := &Stats{DBPath: dbPath}

	// DB file size
	if info, err := os.Stat(dbPath); err == nil {
		st.DBSizeBytes = info.Size()
	}

	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM attachments`).Scan(&st.Attachments)
	s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM attachments WHERE json_extract(metadata, '$.sizes') IS NOT NULL`).Scan(&st.WithVariants)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM contents`).Scan(&st.Contents)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM content_meta`).Scan(&st.ContentMeta)
	s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MIN(created_at), ''), COALESCE(MAX(created_at), '') FROM attachments`).
		Scan(&st.OldestCreated, &st.NewestCreated)

	rows, err := s.db.QueryContext(ctx, `
		SELECT substr(created_at, 1, 4) || '/' || substr(created_at, 6, 2) AS month, COUNT(*) AS cnt
		FROM attachments GROUP BY month ORDER BY month`)
	if err != nil {
		return st, err
	}
	defer rows.Close()

	for rows.Next() {
		var ms MonthStats
		rows.Scan(&ms.Month, &ms.Count)
		st.Months = append(st.Months, ms)
	}

	return st, nil
}
