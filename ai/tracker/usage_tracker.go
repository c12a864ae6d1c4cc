// Package tracker records one ledger row per upstream attempt: which model was
// tried, how long it took, how it ended and what it cost. It never stores the
// user's message or the model's answer.
package tracker

import (
	"context"
	"database/sql"
	"time"

	"github.com/horasecreta/advisor/errors"
)

// AttemptUsage represents a record of one upstream attempt
type AttemptUsage struct {
	ID               int       `json:"id" db:"id"`
	RequestID        string    `json:"request_id" db:"request_id"`
	AttemptIndex     int       `json:"attempt_index" db:"attempt_index"`
	Provider         string    `json:"provider" db:"provider"`
	ModelName        string    `json:"model_name" db:"model_name"`
	Success          bool      `json:"success" db:"success"`
	ErrorKind        *string   `json:"error_kind,omitempty" db:"error_kind"`
	StartedAt        time.Time `json:"started_at" db:"started_at"`
	DurationMS       int64     `json:"duration_ms" db:"duration_ms"`
	TimeoutMS        int       `json:"timeout_ms" db:"timeout_ms"`
	MaxTokens        int       `json:"max_tokens" db:"max_tokens"`
	PromptTokens     *int      `json:"prompt_tokens,omitempty" db:"prompt_tokens"`
	CompletionTokens *int      `json:"completion_tokens,omitempty" db:"completion_tokens"`
	TotalTokens      *int      `json:"total_tokens,omitempty" db:"total_tokens"`
	Cost             *float64  `json:"cost,omitempty" db:"cost"`
}

// UsageTracker writes and aggregates attempt records
type UsageTracker struct {
	db *sql.DB
}

// NewUsageTracker creates a new attempt ledger on db
func NewUsageTracker(db *sql.DB) *UsageTracker {
	return &UsageTracker{db: db}
}

// TrackAttempt records one attempt in the database
func (t *UsageTracker) TrackAttempt(ctx context.Context, usage *AttemptUsage) error {
	query := `
		INSERT INTO advisor_attempts (
			request_id, attempt_index, provider, model_name, success, error_kind,
			started_at, duration_ms, timeout_ms, max_tokens,
			prompt_tokens, completion_tokens, total_tokens, cost
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := t.db.ExecContext(ctx, query,
		usage.RequestID, usage.AttemptIndex, usage.Provider, usage.ModelName,
		usage.Success, usage.ErrorKind,
		usage.StartedAt.UTC(), usage.DurationMS, usage.TimeoutMS, usage.MaxTokens,
		usage.PromptTokens, usage.CompletionTokens, usage.TotalTokens, usage.Cost,
	)
	if err != nil {
		return errors.Wrapf(err, "track attempt %s/%d", usage.RequestID, usage.AttemptIndex)
	}
	return nil
}

// UsageStats represents aggregated usage statistics
type UsageStats struct {
	TotalAttempts      int     `json:"total_attempts"`
	SuccessfulAttempts int     `json:"successful_attempts"`
	SuccessRate        float64 `json:"success_rate"`
	TimedOutAttempts   int     `json:"timed_out_attempts"`
	Requests           int     `json:"requests"`
	TotalTokens        int     `json:"total_tokens"`
	TotalCost          float64 `json:"total_cost"`
	UniqueModels       int     `json:"unique_models"`
}

// GetUsageStats returns usage statistics for attempts started at or after since
func (t *UsageTracker) GetUsageStats(ctx context.Context, since time.Time) (*UsageStats, error) {
	query := `
		SELECT
			COUNT(*) as total_attempts,
			COUNT(CASE WHEN success = 1 THEN 1 END) as successful_attempts,
			COUNT(CASE WHEN error_kind = 'timeout' THEN 1 END) as timed_out_attempts,
			COUNT(DISTINCT request_id) as requests,
			COALESCE(SUM(COALESCE(total_tokens, 0)), 0) as total_tokens,
			COALESCE(SUM(COALESCE(cost, 0)), 0) as total_cost,
			COUNT(DISTINCT model_name) as unique_models
		FROM advisor_attempts
		WHERE started_at >= ?`

	var stats UsageStats
	err := t.db.QueryRowContext(ctx, query, since.UTC()).Scan(
		&stats.TotalAttempts, &stats.SuccessfulAttempts, &stats.TimedOutAttempts,
		&stats.Requests, &stats.TotalTokens, &stats.TotalCost, &stats.UniqueModels,
	)
	if err != nil {
		return nil, errors.Wrap(err, "query usage stats")
	}

	if stats.TotalAttempts > 0 {
		stats.SuccessRate = float64(stats.SuccessfulAttempts) / float64(stats.TotalAttempts)
	}

	return &stats, nil
}

// ModelBreakdown represents usage statistics for a specific model
type ModelBreakdown struct {
	ModelName     string  `json:"model_name"`
	Provider      string  `json:"provider"`
	Attempts      int     `json:"attempts"`
	Successes     int     `json:"successes"`
	Timeouts      int     `json:"timeouts"`
	TotalTokens   int     `json:"total_tokens"`
	TotalCost     float64 `json:"total_cost"`
	AvgDurationMS float64 `json:"avg_duration_ms"`
}

// GetModelBreakdown returns per-model attempt statistics, busiest first
func (t *UsageTracker) GetModelBreakdown(ctx context.Context, since time.Time) ([]ModelBreakdown, error) {
	query := `
		SELECT
			model_name,
			provider,
			COUNT(*) as attempts,
			COUNT(CASE WHEN success = 1 THEN 1 END) as successes,
			COUNT(CASE WHEN error_kind = 'timeout' THEN 1 END) as timeouts,
			COALESCE(SUM(COALESCE(total_tokens, 0)), 0) as total_tokens,
			COALESCE(SUM(COALESCE(cost, 0)), 0) as total_cost,
			COALESCE(AVG(duration_ms), 0) as avg_duration_ms
		FROM advisor_attempts
		WHERE started_at >= ?
		GROUP BY model_name, provider
		ORDER BY attempts DESC, model_name ASC`

	rows, err := t.db.QueryContext(ctx, query, since.UTC())
	if err != nil {
		return nil, errors.Wrap(err, "query model breakdown")
	}
	defer rows.Close()

	var breakdown []ModelBreakdown
	for rows.Next() {
		var mb ModelBreakdown
		if err := rows.Scan(&mb.ModelName, &mb.Provider, &mb.Attempts, &mb.Successes,
			&mb.Timeouts, &mb.TotalTokens, &mb.TotalCost, &mb.AvgDurationMS); err != nil {
			return nil, errors.Wrap(err, "scan model breakdown")
		}
		breakdown = append(breakdown, mb)
	}

	return breakdown, errors.Wrap(rows.Err(), "iterate model breakdown")
}
