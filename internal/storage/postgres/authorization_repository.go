package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stvaldivia/delivery-engine/internal/domain"
)

type AuthorizationRepository struct {
	q querier
}

func NewAuthorizationRepository(pool *pgxpool.Pool) *AuthorizationRepository {
	return &AuthorizationRepository{q: querier{pool: pool}}
}

func (r *AuthorizationRepository) Create(ctx context.Context, rec domain.AuthorizationRecord) error {
	const stmt = `
INSERT INTO authorizations (id, ticket_id, fraud_kind, granted, operator, decided_at, valid_until)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.q.exec(ctx, stmt,
		rec.ID,
		rec.TicketID,
		string(rec.FraudKind),
		rec.Granted,
		rec.Operator,
		rec.DecidedAt,
		rec.ValidUntil,
	)
	if err != nil {
		return fmt.Errorf("create authorization: %w", err)
	}
	return nil
}

// Latest returns the most recent decision for the (ticket, fraud kind) pair,
// or nil when none exists. Older records never count.
func (r *AuthorizationRepository) Latest(ctx context.Context, ticketID string, kind domain.FraudKind) (*domain.AuthorizationRecord, error) {
	const query = `
SELECT id, ticket_id, fraud_kind, granted, operator, decided_at, valid_until, consumed_at
FROM authorizations
WHERE ticket_id = $1 AND fraud_kind = $2
ORDER BY decided_at DESC, id DESC
LIMIT 1`

	var rec domain.AuthorizationRecord
	var kindStr string
	err := r.q.queryRow(ctx, query, ticketID, string(kind)).Scan(
		&rec.ID,
		&rec.TicketID,
		&kindStr,
		&rec.Granted,
		&rec.Operator,
		&rec.DecidedAt,
		&rec.ValidUntil,
		&rec.ConsumedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("latest authorization: %w", err)
	}
	rec.FraudKind = domain.FraudKind(kindStr)
	return &rec, nil
}

// MarkConsumed stamps the grant as spent. Called inside the delivering
// transaction so the grant and the delivery commit or roll back together.
func (r *AuthorizationRepository) MarkConsumed(ctx context.Context, id string, at time.Time) error {
	const stmt = `UPDATE authorizations SET consumed_at = $2 WHERE id = $1 AND consumed_at IS NULL`

	tag, err := r.q.exec(ctx, stmt, id, at)
	if err != nil {
		return fmt.Errorf("consume authorization: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("consume authorization %s: already consumed", id)
	}
	return nil
}
