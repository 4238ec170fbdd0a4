package store

import (
	"context"
	"time"
)

// Invocation is one recorded gateway call.
type Invocation struct {
	ID         string    `db:"id" json:"id"`
	RequestID  string    `db:"request_id" json:"request_id"`
	Platform   string    `db:"platform" json:"platform"`
	Model      string    `db:"model" json:"model"`
	Capability string    `db:"capability" json:"capability"`
	StatusCode int       `db:"status_code" json:"status_code"`
	LatencyMS  int64     `db:"latency_ms" json:"latency_ms"`
	Error      string    `db:"error" json:"error,omitempty"`
	ClientIP   string    `db:"client_ip" json:"client_ip"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// ModelStats aggregates invocations per platform and model.
type ModelStats struct {
	Platform     string  `db:"platform" json:"platform"`
	Model        string  `db:"model" json:"model"`
	Total        int     `db:"total" json:"total"`
	Failures     int     `db:"failures" json:"failures"`
	AvgLatencyMS float64 `db:"avg_latency_ms" json:"avg_latency_ms"`
}

// Repository is the main contract for the data layer.
type Repository interface {
	Invocations() InvocationRepository

	// WithTx runs fn against a repository bound to one transaction.
	WithTx(ctx context.Context, fn func(repo Repository) error) error

	Close() error
}

type InvocationRepository interface {
	Log(ctx context.Context, inv *Invocation) error
	// Recent returns the last limit invocations, newest first.
	Recent(ctx context.Context, limit int) ([]Invocation, error)
	Stats(ctx context.Context) ([]ModelStats, error)
}
