package sqlite

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/nulzo/polymage/internal/store"
)

// DB is satisfied by *sqlx.DB and *sqlx.Tx.
type DB interface {
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
}

// Repository implements store.Repository
type Repository struct {
	db       *sqlx.DB // starts transactions
	executor DB       // runs queries, *sqlx.DB or *sqlx.Tx
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db, executor: db}
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) WithTx(ctx context.Context, fn func(repo store.Repository) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	txRepo := &Repository{db: r.db, executor: tx}
	if err := fn(txRepo); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (r *Repository) Invocations() store.InvocationRepository {
	return &invocationRepo{db: r.executor}
}

type invocationRepo struct {
	db DB
}

func (r *invocationRepo) Log(ctx context.Context, inv *store.Invocation) error {
	query := `
	INSERT INTO invocations (
		id, request_id, platform, model, capability,
		status_code, latency_ms, error, client_ip, created_at
	) VALUES (
		:id, :request_id, :platform, :model, :capability,
		:status_code, :latency_ms, :error, :client_ip, :created_at
	)`
	_, err := r.db.NamedExecContext(ctx, query, inv)
	return err
}

func (r *invocationRepo) Recent(ctx context.Context, limit int) ([]store.Invocation, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []store.Invocation
	query := `SELECT * FROM invocations ORDER BY created_at DESC, id DESC LIMIT ?`
	err := r.db.SelectContext(ctx, &out, query, limit)
	return out, err
}

func (r *invocationRepo) Stats(ctx context.Context) ([]store.ModelStats, error) {
	var out []store.ModelStats
	query := `
	SELECT
		platform,
		model,
		COUNT(*) AS total,
		SUM(CASE WHEN status_code >= 400 THEN 1 ELSE 0 END) AS failures,
		AVG(latency_ms) AS avg_latency_ms
	FROM invocations
	GROUP BY platform, model
	ORDER BY total DESC, platform, model`
	err := r.db.SelectContext(ctx, &out, query)
	return out, err
}
