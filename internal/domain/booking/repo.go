package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, b *Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	Update(ctx context.Context, b *Booking) error
	List(ctx context.Context, patientID *uuid.UUID, date *time.Time, limit, offset int) ([]*Booking, int, error)
	TakenSlots(ctx context.Context, date time.Time) ([]string, error)
}
