package dashboard

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/epitofcode/Cosmetic-Star-CRM/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) db.Queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

// planStatusExpr derives the payment status of a plan from its total and the
// paid sum joined in as "paid". Must stay in step with the billing package's
// status derivation.
const planStatusExpr = `CASE
	WHEN COALESCE(paid.sum, 0) <= 0 AND tp.total > 0 THEN 'unpaid'
	WHEN COALESCE(paid.sum, 0) < tp.total THEN 'partial'
	ELSE 'paid'
END`

const paidJoin = `LEFT JOIN (
	SELECT patient_id, SUM(amount) AS sum FROM payment_transaction GROUP BY patient_id
) paid ON paid.patient_id = tp.patient_id`

func (r *repoPG) Summary(ctx context.Context) (*Summary, error) {
	s := &Summary{PlansByStatus: make(map[string]int)}
	q := r.conn(ctx)

	err := q.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM booking WHERE booking_date = CURRENT_DATE AND status <> 'cancelled'),
			(SELECT COUNT(*) FROM booking WHERE booking_date > CURRENT_DATE AND status = 'scheduled'),
			(SELECT COALESCE(SUM(amount), 0) FROM payment_transaction),
			(SELECT COALESCE(SUM(total), 0) FROM treatment_plan)`).
		Scan(&s.BookingsToday, &s.BookingsUpcoming, &s.RevenueCollected, &s.TotalPlanned)
	if err != nil {
		return nil, err
	}

	err = q.QueryRow(ctx, `
		SELECT COALESCE(SUM(GREATEST(tp.total - COALESCE(paid.sum, 0), 0)), 0)
		FROM treatment_plan tp `+paidJoin).
		Scan(&s.OutstandingBalance)
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, `
		SELECT `+planStatusExpr+` AS status, COUNT(*)
		FROM treatment_plan tp `+paidJoin+`
		GROUP BY 1`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		s.PlansByStatus[status] = count
	}
	return s, rows.Err()
}
