package contract

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Upsert(ctx context.Context, c *Contract) error
	GetByPatient(ctx context.Context, patientID uuid.UUID) (*Contract, error)
	Exists(ctx context.Context, patientID uuid.UUID) (bool, error)
	CountSigned(ctx context.Context) (int, error)
}
