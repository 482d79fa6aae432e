// Package store persists generated signal feeds and insights, and
// records owner answers against open insights.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/finpulse/finpulse/internal/insight"
	"github.com/finpulse/finpulse/internal/signal"
)

// Store wraps the Postgres connection for feed and insight rows.
type Store struct {
	db      *sqlx.DB
	timeout time.Duration
}

// New creates a store with a per-query timeout.
func New(db *sqlx.DB, timeout time.Duration) *Store {
	return &Store{db: db, timeout: timeout}
}

// Open dials Postgres with the given DSN.
func Open(dsn string, timeout time.Duration) (*Store, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return New(db, timeout), nil
}

// FeedRecord is one persisted generation run.
type FeedRecord struct {
	ID         string    `db:"id" json:"id"`
	BusinessID string    `db:"business_id" json:"businessId"`
	Payload    []byte    `db:"payload" json:"-"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// SaveFeed stores a generated signal feed as one row and returns the
// run id.
func (s *Store) SaveFeed(ctx context.Context, businessID string, signals []signal.Signal) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	payload, err := json.Marshal(signals)
	if err != nil {
		return "", fmt.Errorf("marshal feed: %w", err)
	}

	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO signal_feeds (id, business_id, payload, created_at)
		 VALUES ($1, $2, $3, $4)`,
		id, businessID, payload, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("insert feed: %w", err)
	}
	return id, nil
}

// LatestFeed returns the most recent feed for a business, or
// sql.ErrNoRows when none exists.
func (s *Store) LatestFeed(ctx context.Context, businessID string) ([]signal.Signal, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var rec FeedRecord
	err := s.db.GetContext(ctx, &rec,
		`SELECT id, business_id, payload, created_at
		 FROM signal_feeds WHERE business_id = $1
		 ORDER BY created_at DESC LIMIT 1`,
		businessID)
	if err != nil {
		return nil, fmt.Errorf("load latest feed: %w", err)
	}

	var signals []signal.Signal
	if err := json.Unmarshal(rec.Payload, &signals); err != nil {
		return nil, fmt.Errorf("decode feed payload: %w", err)
	}
	return signals, nil
}

// SaveInsights stores the rule engine output for a business, one row
// per insight. A duplicate (business, insight id, period) is an error
// surfaced distinctly so callers can skip re-runs.
func (s *Store) SaveInsights(ctx context.Context, businessID, period string, insights []insight.Insight) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, ins := range insights {
		payload, err := json.Marshal(ins)
		if err != nil {
			return fmt.Errorf("marshal insight %s: %w", ins.ID, err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO insights (business_id, period, insight_id, payload, status, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			businessID, period, ins.ID, payload, string(insight.StatusOpen), time.Now().UTC())
		if err != nil {
			if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
				return fmt.Errorf("duplicate insight %s for %s/%s: %w", ins.ID, businessID, period, err)
			}
			return fmt.Errorf("insert insight %s: %w", ins.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insights: %w", err)
	}
	return nil
}

// AttachAnswer records the owner's answer to an open insight and moves
// it to answered. Answering a non-open insight is an error.
func (s *Store) AttachAnswer(ctx context.Context, businessID, period, insightID, answer string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.db.ExecContext(ctx,
		`UPDATE insights
		 SET answer = $1, status = $2, answered_at = $3
		 WHERE business_id = $4 AND period = $5 AND insight_id = $6 AND status = $7`,
		answer, string(insight.StatusAnswered), time.Now().UTC(),
		businessID, period, insightID, string(insight.StatusOpen))
	if err != nil {
		return fmt.Errorf("attach answer: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("attach answer rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("no open insight %s for %s/%s: %w", insightID, businessID, period, sql.ErrNoRows)
	}
	return nil
}

// OpenInsights lists the still-open insights for a business period.
func (s *Store) OpenInsights(ctx context.Context, businessID, period string) ([]insight.Insight, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.db.QueryxContext(ctx,
		`SELECT payload FROM insights
		 WHERE business_id = $1 AND period = $2 AND status = $3
		 ORDER BY created_at ASC`,
		businessID, period, string(insight.StatusOpen))
	if err != nil {
		return nil, fmt.Errorf("list open insights: %w", err)
	}
	defer rows.Close()

	var out []insight.Insight
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan insight: %w", err)
		}
		var ins insight.Insight
		if err := json.Unmarshal(payload, &ins); err != nil {
			return nil, fmt.Errorf("decode insight: %w", err)
		}
		out = append(out, ins)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate insights: %w", err)
	}
	return out, nil
}
