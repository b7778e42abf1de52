package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/safar/go-shop-checkout/internal/database"
	"github.com/safar/go-shop-checkout/internal/outbox"
)

// InsertOutboxEvent stages an event in the caller's transaction so it is
// published only if the business write commits.
func InsertOutboxEvent(ctx context.Context, tx *sql.Tx, event *outbox.Event) error {
	traceContext, err := encodeTraceContext(event.TraceContext)
	if err != nil {
		return err
	}

	err = tx.QueryRowContext(ctx,
		`INSERT INTO outbox (aggregate_type, aggregate_id, type, payload, trace_context, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, 'pending', NOW())
		 RETURNING id, created_at`,
		event.AggregateType, event.AggregateID, event.Type, string(event.Payload), traceContext,
	).Scan(&event.ID, &event.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}
	event.Status = outbox.StatusPending
	return nil
}

// OutboxStore implements outbox.Store on Postgres.
type OutboxStore struct {
	db *sql.DB
}

func NewOutboxStore(db *sql.DB) *OutboxStore {
	return &OutboxStore{db: db}
}

// LockBatch leases up to batchSize pending events, plus in-progress events
// whose lease expired, to relayID.
func (s *OutboxStore) LockBatch(ctx context.Context, relayID string, batchSize int, lease time.Duration) ([]outbox.Event, error) {
	var events []outbox.Event

	err := database.WithTransaction(ctx, s.db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `
			SELECT id, aggregate_type, aggregate_id, type, payload, trace_context, status, retry_count, created_at
			FROM outbox
			WHERE status = 'pending'
			   OR (status = 'in_progress' AND lease_until < NOW())
			ORDER BY id
			FOR UPDATE SKIP LOCKED
			LIMIT $1`, batchSize)
		if err != nil {
			return fmt.Errorf("select outbox batch: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var (
				e            outbox.Event
				traceContext []byte
			)
			if err := rows.Scan(&e.ID, &e.AggregateType, &e.AggregateID, &e.Type, &e.Payload,
				&traceContext, &e.Status, &e.RetryCount, &e.CreatedAt); err != nil {
				return fmt.Errorf("scan outbox event: %w", err)
			}
			if err := json.Unmarshal(traceContext, &e.TraceContext); err != nil {
				return fmt.Errorf("decode outbox trace context: %w", err)
			}
			events = append(events, e)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("rows error: %w", err)
		}
		if len(events) == 0 {
			return nil
		}

		ids := make([]int64, 0, len(events))
		for _, e := range events {
			ids = append(ids, e.ID)
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE outbox
			SET status = 'in_progress', relay_id = $1, lease_until = NOW() + make_interval(secs => $2)
			WHERE id = ANY($3)`,
			relayID, lease.Seconds(), pq.Array(ids))
		if err != nil {
			return fmt.Errorf("lease outbox batch: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return events, nil
}

func (s *OutboxStore) MarkSent(ctx context.Context, ids []int64) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE outbox SET status = 'sent', lease_until = NULL, last_error = NULL WHERE id = ANY($1)`,
		pq.Array(ids))
	if err != nil {
		return fmt.Errorf("mark outbox sent: %w", err)
	}
	return requireOneRow(result, database.ErrOutboxNothingToUpdate)
}

// MarkFailed returns the event to the pending pool, or parks it as failed
// once it has been attempted maxRetries times.
func (s *OutboxStore) MarkFailed(ctx context.Context, id int64, errMsg string, maxRetries int) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE outbox
		SET retry_count = retry_count + 1,
		    status = CASE WHEN retry_count + 1 >= $3 THEN 'failed' ELSE 'pending' END,
		    last_error = $2,
		    lease_until = NULL
		WHERE id = $1`,
		id, errMsg, maxRetries)
	if err != nil {
		return fmt.Errorf("mark outbox failed: %w", err)
	}
	return nil
}

// OutboxStatus reports the current status of an event; used by operators
// and tests.
func OutboxStatus(ctx context.Context, q DBTX, aggregateID string) (outbox.Status, error) {
	var status outbox.Status
	err := q.QueryRowContext(ctx,
		`SELECT status FROM outbox WHERE aggregate_id = $1 ORDER BY id DESC LIMIT 1`, aggregateID).Scan(&status)
	if err != nil {
		return "", fmt.Errorf("outbox status: %w", err)
	}
	return status, nil
}

func encodeTraceContext(carrier map[string]string) (string, error) {
	if len(carrier) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(carrier)
	if err != nil {
		return "", fmt.Errorf("encode outbox trace context: %w", err)
	}
	return string(b), nil
}
