package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stvaldivia/delivery-engine/internal/domain"
)

// ShiftRepository is the authoritative shift store. A partial unique index
// on status='open' guarantees at most one open shift at a time.
type ShiftRepository struct {
	q querier
}

func NewShiftRepository(pool *pgxpool.Pool) *ShiftRepository {
	return &ShiftRepository{q: querier{pool: pool}}
}

// Current returns the latest shift lifecycle. A store with no shifts yet
// reports a closed state rather than an error.
func (r *ShiftRepository) Current(ctx context.Context) (domain.ShiftState, error) {
	const query = `
SELECT id, status, opened_at, opened_by, closed_at
FROM shifts
ORDER BY opened_at DESC, id DESC
LIMIT 1`

	var st domain.ShiftState
	var status string
	err := r.q.queryRow(ctx, query).Scan(&st.ID, &status, &st.OpenedAt, &st.OpenedBy, &st.ClosedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.ShiftState{Status: domain.ShiftClosed}, nil
		}
		return domain.ShiftState{}, fmt.Errorf("current shift: %w", err)
	}
	st.Status = domain.ShiftStatus(status)
	return st, nil
}

func (r *ShiftRepository) Open(ctx context.Context, st domain.ShiftState) error {
	const stmt = `
INSERT INTO shifts (id, status, opened_at, opened_by)
VALUES ($1, 'open', $2, $3)`

	_, err := r.q.exec(ctx, stmt, st.ID, st.OpenedAt, st.OpenedBy)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrShiftAlreadyOpen
		}
		return fmt.Errorf("open shift: %w", err)
	}
	return nil
}

func (r *ShiftRepository) Close(ctx context.Context, at time.Time) (domain.ShiftState, error) {
	const stmt = `
UPDATE shifts SET status = 'closed', closed_at = $1
WHERE status = 'open'
RETURNING id, opened_at, opened_by`

	var st domain.ShiftState
	err := r.q.queryRow(ctx, stmt, at).Scan(&st.ID, &st.OpenedAt, &st.OpenedBy)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.ShiftState{}, domain.ErrShiftNotOpen
		}
		return domain.ShiftState{}, fmt.Errorf("close shift: %w", err)
	}
	st.Status = domain.ShiftClosed
	st.ClosedAt = &at
	return st, nil
}
