package billing

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	UpsertPlan(ctx context.Context, p *TreatmentPlan) error
	GetPlan(ctx context.Context, patientID uuid.UUID) (*TreatmentPlan, error)
	// LockPlan reads the plan with a row lock; callers run it inside a
	// transaction so concurrent payments serialize on the plan row.
	LockPlan(ctx context.Context, patientID uuid.UUID) (*TreatmentPlan, error)
	CreateTransaction(ctx context.Context, t *Transaction) error
	GetTransaction(ctx context.Context, id uuid.UUID) (*Transaction, error)
	ListTransactions(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Transaction, int, error)
	SumPayments(ctx context.Context, patientID uuid.UUID) (float64, error)
}
