package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/MeiZhiYying/classifyDoc/internal/core/domain"
)

// Index is the Postgres-backed Catalog Index. The path primary key and
// ON CONFLICT upsert make the database the single serialization point
// per path; seq preserves insertion order for stable tie-breaks.
type Index struct {
	db *sql.DB
}

func NewIndex(db *sql.DB) *Index {
	return &Index{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *Index) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082901)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS file_records (
	path TEXT PRIMARY KEY,
	original_path TEXT NOT NULL DEFAULT '',
	name TEXT NOT NULL,
	size BIGINT NOT NULL,
	mod_time TIMESTAMPTZ NOT NULL,
	category TEXT NOT NULL,
	source TEXT NOT NULL,
	seq BIGSERIAL
);

CREATE INDEX IF NOT EXISTS idx_file_records_category ON file_records(category);
CREATE INDEX IF NOT EXISTS idx_file_records_mod_time ON file_records(mod_time DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *Index) Upsert(ctx context.Context, rec domain.FileRecord) error {
	if rec.Path == "" {
		return domain.WrapError(domain.ErrInvalidInput, "catalog upsert", fmt.Errorf("empty path"))
	}
	if rec.Category == "" {
		return domain.WrapError(domain.ErrInvalidInput, "catalog upsert", fmt.Errorf("record %q has no category", rec.Path))
	}

	_, err := r.db.ExecContext(ctx, `
INSERT INTO file_records (path, original_path, name, size, mod_time, category, source)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (path) DO UPDATE
SET original_path = EXCLUDED.original_path,
	name = EXCLUDED.name,
	size = EXCLUDED.size,
	mod_time = EXCLUDED.mod_time,
	category = EXCLUDED.category,
	source = EXCLUDED.source
`,
		rec.Path, rec.OriginalPath, rec.Name, rec.Size, rec.ModTime, rec.Category, string(rec.Source),
	)
	if err != nil {
		return fmt.Errorf("upsert file record: %w", err)
	}
	return nil
}

func (r *Index) Contains(ctx context.Context, path string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM file_records WHERE path = $1)`, path).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check file record: %w", err)
	}
	return exists, nil
}

func (r *Index) StatsFor(ctx context.Context, category string) (domain.CategoryStats, error) {
	files, err := r.FilesIn(ctx, category)
	if err != nil {
		return domain.CategoryStats{}, err
	}
	return domain.CategoryStats{Count: len(files), Files: files}, nil
}

func (r *Index) Stats(ctx context.Context) (map[string]domain.CategoryStats, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT path, original_path, name, size, mod_time, category, source
FROM file_records
ORDER BY seq
`)
	if err != nil {
		return nil, fmt.Errorf("query file records: %w", err)
	}
	defer rows.Close()

	out := make(map[string]domain.CategoryStats)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		stats := out[rec.Category]
		stats.Files = append(stats.Files, rec)
		stats.Count = len(stats.Files)
		out[rec.Category] = stats
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate file records: %w", err)
	}
	return out, nil
}

func (r *Index) AllFiles(ctx context.Context, query domain.FileQuery) ([]domain.FileRecord, error) {
	orderBy := "mod_time"
	if query.Sort == domain.SortBySize {
		orderBy = "size"
	}
	direction := "DESC"
	if query.Order == domain.OrderAsc {
		direction = "ASC"
	}

	sqlQuery := fmt.Sprintf(`
SELECT path, original_path, name, size, mod_time, category, source
FROM file_records
WHERE ($1 = '' OR category = $1)
ORDER BY %s %s, seq ASC
`, orderBy, direction)

	rows, err := r.db.QueryContext(ctx, sqlQuery, query.Category)
	if err != nil {
		return nil, fmt.Errorf("query all files: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

func (r *Index) FilesIn(ctx context.Context, category string) ([]domain.FileRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT path, original_path, name, size, mod_time, category, source
FROM file_records
WHERE category = $1
ORDER BY seq
`, category)
	if err != nil {
		return nil, fmt.Errorf("query category files: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

func collectRecords(rows *sql.Rows) ([]domain.FileRecord, error) {
	files := make([]domain.FileRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate file records: %w", err)
	}
	return files, nil
}

func scanRecord(rows *sql.Rows) (domain.FileRecord, error) {
	var rec domain.FileRecord
	var source string
	err := rows.Scan(&rec.Path, &rec.OriginalPath, &rec.Name, &rec.Size, &rec.ModTime, &rec.Category, &source)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.FileRecord{}, domain.WrapError(domain.ErrFileNotFound, "scan file record", err)
		}
		return domain.FileRecord{}, fmt.Errorf("scan file record: %w", err)
	}
	rec.Source = domain.DecisionSource(source)
	return rec, nil
}
