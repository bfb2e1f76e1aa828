package record

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/mrsinham/oeukintake/internal/questionnaire"
)

// SQLiteRepository stores records in a local SQLite file.
type SQLiteRepository struct {
	db     *sql.DB
	logger zerolog.Logger
	d      dialect
}

// OpenSQLite opens or creates the database at path. Call Migrate before use.
func OpenSQLite(path string, logger zerolog.Logger) (*SQLiteRepository, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	return &SQLiteRepository{db: db, logger: logger, d: sqliteDialect}, nil
}

func (r *SQLiteRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, r.d.createTable()); err != nil {
		return fmt.Errorf("create %s: %w", Table, err)
	}
	if _, err := r.db.ExecContext(ctx, r.d.createIndex()); err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Create(ctx context.Context, key string, answers questionnaire.Answers) (int64, error) {
	values, unknown, err := columnValues(answers)
	if err != nil {
		return 0, err
	}
	logUnknown(r.logger, unknown)

	args := make([]any, 0, len(values)+2)
	args = append(args, nullable(key))
	args = append(args, values...)
	args = append(args, now())

	var id int64
	err = r.db.QueryRowContext(ctx, r.d.insert(), args...).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) && key != "" {
		if err := r.db.QueryRowContext(ctx, r.d.selectByKey(), key).Scan(&id); err != nil {
			return 0, fmt.Errorf("lookup replayed submission: %w", err)
		}
		r.logger.Info().Int64("id", id).Str("key", key).Msg("submission replayed")
		return id, nil
	}
	if err != nil {
		return 0, fmt.Errorf("insert record: %w", err)
	}
	return id, nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]Summary, error) {
	rows, err := r.db.QueryContext(ctx, r.d.selectSummaries())
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) Get(ctx context.Context, id int64) (*Record, error) {
	rec, err := scanRecord(r.db.QueryRowContext(ctx, r.d.selectOne(), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get record %d: %w", id, err)
	}
	return rec, nil
}

func (r *SQLiteRepository) Review(ctx context.Context, id int64, comments string) error {
	res, err := r.db.ExecContext(ctx, r.d.review(), comments, now(), id)
	if err != nil {
		return fmt.Errorf("review record %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("review record %d: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func logUnknown(logger zerolog.Logger, keys []string) {
	if len(keys) == 0 {
		return
	}
	sort.Strings(keys)
	logger.Debug().Strs("fields", keys).Msg("dropping unknown fields")
}
