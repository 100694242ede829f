package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stvaldivia/delivery-engine/internal/domain"
)

// LedgerRepository owns the append-only deliveries table. Events are never
// updated or deleted once written.
type LedgerRepository struct {
	q querier
}

func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{q: querier{pool: pool}}
}

func (r *LedgerRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.q.pool, fn)
}

// LockTicket serializes concurrent deliver calls for one ticket. A
// transaction-scoped advisory lock keyed by the canonical ticket ID stands
// in for FOR UPDATE over the ticket's ledger rows: unlike a row lock it also
// serializes the first concurrent inserts, when no rows exist yet to lock.
// Released automatically at commit or rollback. Must run inside WithTx.
func (r *LedgerRepository) LockTicket(ctx context.Context, ticketID string) error {
	if txFromContext(ctx) == nil {
		return fmt.Errorf("lock ticket %s: no transaction in context", ticketID)
	}
	const query = `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`
	if _, err := r.q.exec(ctx, query, ticketID); err != nil {
		return fmt.Errorf("lock ticket %s: %w", ticketID, err)
	}
	return nil
}

func (r *LedgerRepository) Append(ctx context.Context, ev domain.DeliveryEvent) error {
	const stmt = `
INSERT INTO deliveries (id, ticket_id, item_name, qty, operator, location, admin_override, delivered_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.q.exec(ctx, stmt,
		ev.ID,
		ev.TicketID,
		ev.ItemName,
		ev.Quantity,
		ev.Operator,
		ev.Location,
		ev.AdminOverride,
		ev.DeliveredAt,
	)
	if err != nil {
		return fmt.Errorf("append delivery: %w", err)
	}
	return nil
}

func (r *LedgerRepository) DeliveredQuantity(ctx context.Context, ticketID, itemName string) (int, error) {
	const query = `
SELECT COALESCE(SUM(qty), 0)
FROM deliveries
WHERE ticket_id = $1 AND item_name = $2`

	var total int
	if err := r.q.queryRow(ctx, query, ticketID, itemName).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum delivered: %w", err)
	}
	return total, nil
}

// CountAttempts counts the ticket's delivery events across all items. The
// fraud detector uses it as a proxy for how many times the ticket has been
// presented at a bar.
func (r *LedgerRepository) CountAttempts(ctx context.Context, ticketID string) (int, error) {
	const query = `SELECT COUNT(*) FROM deliveries WHERE ticket_id = $1`

	var count int
	if err := r.q.queryRow(ctx, query, ticketID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count attempts: %w", err)
	}
	return count, nil
}

func (r *LedgerRepository) EventsByTicket(ctx context.Context, ticketID string) ([]domain.DeliveryEvent, error) {
	const query = `
SELECT id, ticket_id, item_name, qty, operator, location, admin_override, delivered_at
FROM deliveries
WHERE ticket_id = $1
ORDER BY delivered_at, id`

	rows, err := r.q.query(ctx, query, ticketID)
	if err != nil {
		return nil, fmt.Errorf("events by ticket: %w", err)
	}
	return scanEvents(rows)
}

// EventsSince serves reporting; the reconciliation path never calls it.
func (r *LedgerRepository) EventsSince(ctx context.Context, since time.Time) ([]domain.DeliveryEvent, error) {
	const query = `
SELECT id, ticket_id, item_name, qty, operator, location, admin_override, delivered_at
FROM deliveries
WHERE delivered_at >= $1
ORDER BY delivered_at, id`

	rows, err := r.q.query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("events since: %w", err)
	}
	return scanEvents(rows)
}

func scanEvents(rows pgx.Rows) ([]domain.DeliveryEvent, error) {
	defer rows.Close()

	var events []domain.DeliveryEvent
	for rows.Next() {
		var ev domain.DeliveryEvent
		if err := rows.Scan(
			&ev.ID,
			&ev.TicketID,
			&ev.ItemName,
			&ev.Quantity,
			&ev.Operator,
			&ev.Location,
			&ev.AdminOverride,
			&ev.DeliveredAt,
		); err != nil {
			return nil, fmt.Errorf("scan delivery: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate deliveries: %w", err)
	}
	return events, nil
}
