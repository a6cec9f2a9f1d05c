package intake

import (
	"context"
	"encoding/json"
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

func (r *repoPG) Upsert(ctx context.Context, in *Intake) error {
	answers, err := json.Marshal(in.Answers)
	if err != nil {
		return err
	}
	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO medical_intake (patient_id, answers, completed_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (patient_id) DO UPDATE SET answers = $2, updated_at = NOW()`,
		in.PatientID, answers)
	if isFKViolation(err) {
		return ErrPatientNotFound
	}
	return err
}

func (r *repoPG) GetByPatient(ctx context.Context, patientID uuid.UUID) (*Intake, error) {
	var in Intake
	var answers []byte
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT patient_id, answers, completed_at, updated_at
		FROM medical_intake WHERE patient_id = $1`, patientID).
		Scan(&in.PatientID, &answers, &in.CompletedAt, &in.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(answers, &in.Answers); err != nil {
		return nil, err
	}
	return &in, nil
}
