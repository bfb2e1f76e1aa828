package record

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/mrsinham/oeukintake/internal/questionnaire"
)

// NewPool opens and pings a Postgres connection pool.
func NewPool(ctx context.Context, databaseURL string, maxConns, minConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	cfg.MinConns = minConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// PGRepository stores records in Postgres.
type PGRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
	d      dialect
}

func NewPGRepository(pool *pgxpool.Pool, logger zerolog.Logger) *PGRepository {
	return &PGRepository{pool: pool, logger: logger, d: postgresDialect}
}

func (r *PGRepository) Migrate(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, r.d.createTable()); err != nil {
		return fmt.Errorf("create %s: %w", Table, err)
	}
	if _, err := r.pool.Exec(ctx, r.d.createIndex()); err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

func (r *PGRepository) Create(ctx context.Context, key string, answers questionnaire.Answers) (int64, error) {
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
	err = r.pool.QueryRow(ctx, r.d.insert(), args...).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) && key != "" {
		if err := r.pool.QueryRow(ctx, r.d.selectByKey(), key).Scan(&id); err != nil {
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

func (r *PGRepository) List(ctx context.Context) ([]Summary, error) {
	rows, err := r.pool.Query(ctx, r.d.selectSummaries())
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

func (r *PGRepository) Get(ctx context.Context, id int64) (*Record, error) {
	rec, err := scanRecord(r.pool.QueryRow(ctx, r.d.selectOne(), id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get record %d: %w", id, err)
	}
	return rec, nil
}

func (r *PGRepository) Review(ctx context.Context, id int64, comments string) error {
	tag, err := r.pool.Exec(ctx, r.d.review(), comments, now(), id)
	if err != nil {
		return fmt.Errorf("review record %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *PGRepository) Close() error {
	r.pool.Close()
	return nil
}
