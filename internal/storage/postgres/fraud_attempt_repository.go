package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stvaldivia/delivery-engine/internal/domain"
)

// FraudAttemptRepository keeps the audit trail of blocked delivery
// attempts. Writes happen outside the delivery transaction so a rejection
// still leaves its trace after the rollback.
type FraudAttemptRepository struct {
	q querier
}

func NewFraudAttemptRepository(pool *pgxpool.Pool) *FraudAttemptRepository {
	return &FraudAttemptRepository{q: querier{pool: pool}}
}

func (r *FraudAttemptRepository) RecordAttempt(ctx context.Context, att domain.FraudAttempt) error {
	const stmt = `
INSERT INTO fraud_attempts (id, ticket_id, fraud_kind, item_name, qty, operator, location, attempted_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.q.exec(ctx, stmt,
		att.ID,
		att.TicketID,
		string(att.FraudKind),
		att.ItemName,
		att.Quantity,
		att.Operator,
		att.Location,
		att.AttemptedAt,
	)
	if err != nil {
		return fmt.Errorf("record fraud attempt: %w", err)
	}
	return nil
}

func (r *FraudAttemptRepository) AttemptsSince(ctx context.Context, since time.Time) ([]domain.FraudAttempt, error) {
	const query = `
SELECT id, ticket_id, fraud_kind, item_name, qty, operator, location, attempted_at
FROM fraud_attempts
WHERE attempted_at >= $1
ORDER BY attempted_at DESC`

	rows, err := r.q.query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("fraud attempts since: %w", err)
	}
	defer rows.Close()

	var attempts []domain.FraudAttempt
	for rows.Next() {
		var att domain.FraudAttempt
		var kind string
		if err := rows.Scan(&att.ID, &att.TicketID, &kind, &att.ItemName, &att.Quantity, &att.Operator, &att.Location, &att.AttemptedAt); err != nil {
			return nil, fmt.Errorf("scan fraud attempt: %w", err)
		}
		att.FraudKind = domain.FraudKind(kind)
		attempts = append(attempts, att)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fraud attempts: %w", err)
	}
	return attempts, nil
}
