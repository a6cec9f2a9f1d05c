package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/epitofcode/Cosmetic-Star-CRM/internal/platform/cache"
	"github.com/epitofcode/Cosmetic-Star-CRM/internal/platform/db"
)

// ContractChecker reports whether a patient has a signed contract on file.
// Satisfied by the contract repository; the check runs inside the booking
// transaction so the gate cannot race with a concurrent unsign or delete.
type ContractChecker interface {
	Exists(ctx context.Context, patientID uuid.UUID) (bool, error)
}

type Service struct {
	repo      Repository
	contracts ContractChecker
	grid      SlotGrid
	slotCache *cache.Cache
	runTx     db.TxRunner
}

func NewService(repo Repository, contracts ContractChecker, grid SlotGrid, slotCache *cache.Cache, runTx db.TxRunner) *Service {
	return &Service{repo: repo, contracts: contracts, grid: grid, slotCache: slotCache, runTx: runTx}
}

func slotCacheKey(date time.Time) string {
	return "slots:" + date.Format("2006-01-02")
}

// Book creates a booking for a patient. The signed-contract check and the
// insert run in one transaction; the slot unique index is the final arbiter
// when two requests race for the same slot.
func (s *Service) Book(ctx context.Context, b *Booking) error {
	if b.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if b.BookingDate.IsZero() {
		return fmt.Errorf("booking_date is required")
	}
	if !s.grid.Contains(b.Slot) {
		return fmt.Errorf("slot %q is not on the daily grid", b.Slot)
	}
	if b.Status == "" {
		b.Status = StatusScheduled
	}
	if !validStatuses[b.Status] {
		return fmt.Errorf("invalid booking status: %s", b.Status)
	}

	err := s.runTx(ctx, func(ctx context.Context) error {
		signed, err := s.contracts.Exists(ctx, b.PatientID)
		if err != nil {
			return err
		}
		if !signed {
			return ErrContractRequired
		}
		return s.repo.Create(ctx, b)
	})
	if err != nil {
		return err
	}

	_ = s.slotCache.Invalidate(ctx, slotCacheKey(b.BookingDate))
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Booking, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateStatus moves a booking through its lifecycle and refreshes the slot
// availability cache for its date.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status string, note *string) (*Booking, error) {
	if !validStatuses[status] {
		return nil, fmt.Errorf("invalid booking status: %s", status)
	}

	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canTransition(b.Status, status) {
		return nil, ErrInvalidTransition
	}
	b.Status = status
	if note != nil {
		b.ProcedureNote = note
	}
	if err := s.repo.Update(ctx, b); err != nil {
		return nil, err
	}

	_ = s.slotCache.Invalidate(ctx, slotCacheKey(b.BookingDate))
	return b, nil
}

// Cancel frees the booking's slot.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*Booking, error) {
	return s.UpdateStatus(ctx, id, StatusCancelled, nil)
}

func (s *Service) List(ctx context.Context, patientID *uuid.UUID, date *time.Time, limit, offset int) ([]*Booking, int, error) {
	return s.repo.List(ctx, patientID, date, limit, offset)
}

// ListSlots returns the daily grid with availability for a date. Results are
// cached per date; booking writes invalidate the entry.
func (s *Service) ListSlots(ctx context.Context, date time.Time) ([]SlotAvailability, error) {
	key := slotCacheKey(date)

	var cached []SlotAvailability
	if err := s.slotCache.GetJSON(ctx, key, &cached); err == nil {
		return cached, nil
	}

	taken, err := s.repo.TakenSlots(ctx, date)
	if err != nil {
		return nil, err
	}
	takenSet := make(map[string]bool, len(taken))
	for _, t := range taken {
		takenSet[t] = true
	}

	var out []SlotAvailability
	for _, slot := range s.grid.Slots() {
		out = append(out, SlotAvailability{Slot: slot, Available: !takenSet[slot]})
	}

	_ = s.slotCache.SetJSON(ctx, key, out)
	return out, nil
}
