package contract

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

func (r *repoPG) Upsert(ctx context.Context, c *Contract) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO contract (patient_id, signature_blob_id, signed_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (patient_id) DO UPDATE SET signature_blob_id = $2, signed_at = NOW()`,
		c.PatientID, c.SignatureBlobID)
	if isFKViolation(err) {
		return ErrPatientNotFound
	}
	return err
}

func (r *repoPG) GetByPatient(ctx context.Context, patientID uuid.UUID) (*Contract, error) {
	var c Contract
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT patient_id, signature_blob_id, signed_at, created_at
		FROM contract WHERE patient_id = $1`, patientID).
		Scan(&c.PatientID, &c.SignatureBlobID, &c.SignedAt, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repoPG) Exists(ctx context.Context, patientID uuid.UUID) (bool, error) {
	var one int
	err := r.conn(ctx).QueryRow(ctx, `SELECT 1 FROM contract WHERE patient_id = $1`, patientID).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *repoPG) CountSigned(ctx context.Context) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM contract`).Scan(&n)
	return n, err
}
