package intake

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Upsert(ctx context.Context, in *Intake) error
	GetByPatient(ctx context.Context, patientID uuid.UUID) (*Intake, error)
}
