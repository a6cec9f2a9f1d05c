package billing

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
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

func isFKViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

const planCols = `patient_id, title, base_cost, discount, total, created_at, updated_at`

func scanPlan(row pgx.Row) (*TreatmentPlan, error) {
	var p TreatmentPlan
	err := row.Scan(&p.PatientID, &p.Title, &p.BaseCost, &p.Discount, &p.Total, &p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (r *repoPG) UpsertPlan(ctx context.Context, p *TreatmentPlan) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO treatment_plan (patient_id, title, base_cost, discount, total)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (patient_id) DO UPDATE
			SET title = $2, base_cost = $3, discount = $4, total = $5, updated_at = NOW()`,
		p.PatientID, p.Title, p.BaseCost, p.Discount, p.Total)
	if isFKViolation(err) {
		return ErrPatientNotFound
	}
	return err
}

func (r *repoPG) GetPlan(ctx context.Context, patientID uuid.UUID) (*TreatmentPlan, error) {
	p, err := scanPlan(r.conn(ctx).QueryRow(ctx,
		`SELECT `+planCols+` FROM treatment_plan WHERE patient_id = $1`, patientID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPlanNotFound
	}
	return p, err
}

func (r *repoPG) LockPlan(ctx context.Context, patientID uuid.UUID) (*TreatmentPlan, error) {
	p, err := scanPlan(r.conn(ctx).QueryRow(ctx,
		`SELECT `+planCols+` FROM treatment_plan WHERE patient_id = $1 FOR UPDATE`, patientID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPlanNotFound
	}
	return p, err
}

const txCols = `id, patient_id, amount, method, proof_blob_id, receipt_number, note, paid_at, created_at`

func scanTransaction(row pgx.Row) (*Transaction, error) {
	var t Transaction
	err := row.Scan(&t.ID, &t.PatientID, &t.Amount, &t.Method, &t.ProofBlobID,
		&t.ReceiptNumber, &t.Note, &t.PaidAt, &t.CreatedAt)
	return &t, err
}

func (r *repoPG) CreateTransaction(ctx context.Context, t *Transaction) error {
	t.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO payment_transaction (id, patient_id, amount, method, proof_blob_id, receipt_number, note, paid_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())`,
		t.ID, t.PatientID, t.Amount, t.Method, t.ProofBlobID, t.ReceiptNumber, t.Note)
	if isFKViolation(err) {
		return ErrPatientNotFound
	}
	return err
}

func (r *repoPG) GetTransaction(ctx context.Context, id uuid.UUID) (*Transaction, error) {
	t, err := scanTransaction(r.conn(ctx).QueryRow(ctx,
		`SELECT `+txCols+` FROM payment_transaction WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTransactionNotFound
	}
	return t, err
}

func (r *repoPG) ListTransactions(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Transaction, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM payment_transaction WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+txCols+` FROM payment_transaction
		WHERE patient_id = $1 ORDER BY paid_at DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, t)
	}
	return items, total, rows.Err()
}

func (r *repoPG) SumPayments(ctx context.Context, patientID uuid.UUID) (float64, error) {
	var sum float64
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM payment_transaction WHERE patient_id = $1`, patientID).Scan(&sum)
	return sum, err
}
