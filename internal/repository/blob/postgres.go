package blob

import (
	"context"
	"errors"

	"cartify/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type postgresRepo struct {
	pool      *pgxpool.Pool
	namespace string
	logger    *zap.Logger
}

// NewPostgres stores blobs in the kv_blobs table. namespace separates
// terminals sharing one database.
func NewPostgres(pool *pgxpool.Pool, namespace string, logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresRepo{pool: pool, namespace: namespace, logger: logger}
}

func (r *postgresRepo) Get(ctx context.Context, key string) (string, error) {
	const q = `
SELECT value
FROM kv_blobs
WHERE namespace = $1 AND key = $2
`
	var value string
	err := r.pool.QueryRow(ctx, q, r.namespace, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		r.logger.Warn("blob repo: get failed", zap.String("namespace", r.namespace), zap.String("key", key), zap.Error(err))
		return "", err
	}
	return value, nil
}

func (r *postgresRepo) Set(ctx context.Context, key, value string) error {
	const q = `
INSERT INTO kv_blobs (namespace, key, value, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (namespace, key) DO UPDATE SET
    value = EXCLUDED.value,
    updated_at = EXCLUDED.updated_at
`
	if _, err := r.pool.Exec(ctx, q, r.namespace, key, value); err != nil {
		r.logger.Warn("blob repo: set failed", zap.String("namespace", r.namespace), zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}

func (r *postgresRepo) Remove(ctx context.Context, key string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM kv_blobs WHERE namespace = $1 AND key = $2`, r.namespace, key)
	return err
}

func (r *postgresRepo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}
