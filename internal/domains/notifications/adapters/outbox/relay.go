package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Apurer/restaurant-orders/internal/domains/notifications/ports"
)

const (
	defaultBatchSize   = 50
	defaultInterval    = 5 * time.Second
	defaultMaxAttempts = 10
)

// Record is one pending outbox row.
type Record struct {
	ID         uuid.UUID
	Channel    string
	RoutingKey string
	Payload    json.RawMessage
	CreatedAt  time.Time
	Attempts   int
}

// Relay forwards pending outbox rows to a broker transport. Rows are claimed
// with FOR UPDATE SKIP LOCKED so several relays can run side by side.
type Relay struct {
	pool        *pgxpool.Pool
	target      ports.Transport
	logger      *slog.Logger
	batchSize   int
	interval    time.Duration
	maxAttempts int
}

// RelayOption customises a Relay.
type RelayOption func(*Relay)

func WithRelayLogger(logger *slog.Logger) RelayOption {
	return func(r *Relay) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func WithBatchSize(n int) RelayOption {
	return func(r *Relay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

func WithInterval(d time.Duration) RelayOption {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithMaxAttempts stops retrying a row after n failed publishes.
func WithMaxAttempts(n int) RelayOption {
	return func(r *Relay) {
		if n > 0 {
			r.maxAttempts = n
		}
	}
}

func NewRelay(pool *pgxpool.Pool, target ports.Transport, opts ...RelayOption) *Relay {
	r := &Relay{
		pool:        pool,
		target:      target,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		batchSize:   defaultBatchSize,
		interval:    defaultInterval,
		maxAttempts: defaultMaxAttempts,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Run drains the outbox every interval until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		if _, err := r.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			r.logger.Error("outbox relay pass failed", slog.String("error", err.Error()))
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// RunOnce publishes one batch and returns how many rows were marked sent.
// A failed publish bumps the attempt counter and keeps the row pending.
func (r *Relay) RunOnce(ctx context.Context) (int, error) {
	if r.pool == nil || r.target == nil {
		return 0, errors.New("outbox relay not configured")
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin outbox batch: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	records, err := fetchPending(ctx, tx, r.batchSize, r.maxAttempts)
	if err != nil {
		return 0, err
	}
	sent := 0
	for _, rec := range records {
		var message ports.Message
		if err := json.Unmarshal(rec.Payload, &message); err != nil {
			// Unreadable payloads can never succeed.
			if err := markFailed(ctx, tx, rec.ID, r.maxAttempts, err); err != nil {
				return sent, err
			}
			continue
		}
		if err := r.target.Send(ctx, message); err != nil {
			r.logger.LogAttrs(ctx, slog.LevelWarn, "outbox publish failed",
				slog.String("outbox.id", rec.ID.String()),
				slog.String("routing_key", rec.RoutingKey),
				slog.Int("attempts", rec.Attempts+1),
				slog.String("error", err.Error()))
			if err := markFailed(ctx, tx, rec.ID, rec.Attempts+1, err); err != nil {
				return sent, err
			}
			continue
		}
		if err := markSent(ctx, tx, rec.ID); err != nil {
			return sent, err
		}
		sent++
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit outbox batch: %w", err)
	}
	return sent, nil
}

func fetchPending(ctx context.Context, tx pgx.Tx, limit, maxAttempts int) ([]Record, error) {
	rows, err := tx.Query(ctx,
		`SELECT id, channel, routing_key, payload, created_at, attempts
		 FROM `+table+`
		 WHERE published_at IS NULL AND attempts < $1
		 ORDER BY created_at, id
		 LIMIT $2
		 FOR UPDATE SKIP LOCKED`, maxAttempts, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch pending outbox rows: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.Channel, &rec.RoutingKey, &rec.Payload, &rec.CreatedAt, &rec.Attempts); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func markSent(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	_, err := tx.Exec(ctx, `UPDATE `+table+` SET published_at = now(), last_error = '' WHERE id = $1`, id)
	return err
}

func markFailed(ctx context.Context, tx pgx.Tx, id uuid.UUID, attempts int, cause error) error {
	_, err := tx.Exec(ctx, `UPDATE `+table+` SET attempts = $2, last_error = $3 WHERE id = $1`, id, attempts, cause.Error())
	return err
}
