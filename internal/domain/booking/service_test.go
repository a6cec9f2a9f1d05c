package booking

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

// -- Mocks --

type mockRepo struct {
	bookings map[uuid.UUID]*Booking
}

func newMockRepo() *mockRepo {
	return &mockRepo{bookings: make(map[uuid.UUID]*Booking)}
}

func (m *mockRepo) Create(_ context.Context, b *Booking) error {
	for _, existing := range m.bookings {
		if existing.Status != StatusCancelled &&
			existing.BookingDate.Equal(b.BookingDate) && existing.Slot == b.Slot {
			return ErrSlotTaken
		}
	}
	b.ID = uuid.New()
	b.CreatedAt = time.Now()
	b.UpdatedAt = time.Now()
	m.bookings[b.ID] = b
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Booking, error) {
	b, ok := m.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	return b, nil
}

func (m *mockRepo) Update(_ context.Context, b *Booking) error {
	if _, ok := m.bookings[b.ID]; !ok {
		return ErrNotFound
	}
	m.bookings[b.ID] = b
	return nil
}

func (m *mockRepo) List(_ context.Context, patientID *uuid.UUID, date *time.Time, limit, offset int) ([]*Booking, int, error) {
	var result []*Booking
	for _, b := range m.bookings {
		if patientID != nil && b.PatientID != *patientID {
			continue
		}
		if date != nil && !b.BookingDate.Equal(*date) {
			continue
		}
		result = append(result, b)
	}
	return result, len(result), nil
}

func (m *mockRepo) TakenSlots(_ context.Context, date time.Time) ([]string, error) {
	var slots []string
	for _, b := range m.bookings {
		if b.Status != StatusCancelled && b.BookingDate.Equal(date) {
			slots = append(slots, b.Slot)
		}
	}
	return slots, nil
}

type mockContracts struct {
	signed map[uuid.UUID]bool
}

func (m *mockContracts) Exists(_ context.Context, patientID uuid.UUID) (bool, error) {
	return m.signed[patientID], nil
}

func passthroughTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newTestService() (*Service, *mockRepo, *mockContracts) {
	repo := newMockRepo()
	contracts := &mockContracts{signed: make(map[uuid.UUID]bool)}
	grid := SlotGrid{OpenHour: 9, CloseHour: 17, SlotMinutes: 60}
	return NewService(repo, contracts, grid, nil, passthroughTx), repo, contracts
}

func testDate() time.Time {
	return time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
}

// -- Tests --

func TestSlotGrid_Slots(t *testing.T) {
	grid := SlotGrid{OpenHour: 9, CloseHour: 17, SlotMinutes: 60}
	slots := grid.Slots()
	if len(slots) != 8 {
		t.Fatalf("expected 8 hourly slots for 9-17, got %d", len(slots))
	}
	if slots[0] != "09:00" || slots[7] != "16:00" {
		t.Errorf("unexpected grid bounds: %v", slots)
	}

	half := SlotGrid{OpenHour: 9, CloseHour: 11, SlotMinutes: 30}
	if got := half.Slots(); len(got) != 4 || got[1] != "09:30" {
		t.Errorf("unexpected 30-minute grid: %v", got)
	}
}

func TestBook_RequiresContract(t *testing.T) {
	svc, _, _ := newTestService()
	patientID := uuid.New()

	err := svc.Book(context.Background(), &Booking{
		PatientID:   patientID,
		BookingDate: testDate(),
		Slot:        "10:00",
	})
	if err != ErrContractRequired {
		t.Fatalf("expected ErrContractRequired, got %v", err)
	}
}

func TestBook_SucceedsWithContract(t *testing.T) {
	svc, _, contracts := newTestService()
	patientID := uuid.New()
	contracts.signed[patientID] = true

	b := &Booking{PatientID: patientID, BookingDate: testDate(), Slot: "10:00"}
	if err := svc.Book(context.Background(), b); err != nil {
		t.Fatalf("Book: %v", err)
	}
	if b.ID == uuid.Nil {
		t.Error("expected booking ID")
	}
	if b.Status != StatusScheduled {
		t.Errorf("expected scheduled status, got %q", b.Status)
	}
}

func TestBook_SlotTaken(t *testing.T) {
	svc, _, contracts := newTestService()
	first := uuid.New()
	second := uuid.New()
	contracts.signed[first] = true
	contracts.signed[second] = true

	if err := svc.Book(context.Background(), &Booking{PatientID: first, BookingDate: testDate(), Slot: "10:00"}); err != nil {
		t.Fatalf("first Book: %v", err)
	}
	err := svc.Book(context.Background(), &Booking{PatientID: second, BookingDate: testDate(), Slot: "10:00"})
	if err != ErrSlotTaken {
		t.Fatalf("expected ErrSlotTaken, got %v", err)
	}
}

func TestBook_OffGridSlot(t *testing.T) {
	svc, _, contracts := newTestService()
	patientID := uuid.New()
	contracts.signed[patientID] = true

	err := svc.Book(context.Background(), &Booking{PatientID: patientID, BookingDate: testDate(), Slot: "10:15"})
	if err == nil {
		t.Fatal("expected error for off-grid slot")
	}
}

func TestCancel_FreesSlot(t *testing.T) {
	svc, _, contracts := newTestService()
	first := uuid.New()
	second := uuid.New()
	contracts.signed[first] = true
	contracts.signed[second] = true

	b := &Booking{PatientID: first, BookingDate: testDate(), Slot: "10:00"}
	if err := svc.Book(context.Background(), b); err != nil {
		t.Fatalf("Book: %v", err)
	}

	cancelled, err := svc.Cancel(context.Background(), b.ID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelled.Status != StatusCancelled {
		t.Errorf("expected cancelled status, got %q", cancelled.Status)
	}

	if err := svc.Book(context.Background(), &Booking{PatientID: second, BookingDate: testDate(), Slot: "10:00"}); err != nil {
		t.Fatalf("expected freed slot to be bookable, got %v", err)
	}
}

func TestListSlots_Availability(t *testing.T) {
	svc, _, contracts := newTestService()
	patientID := uuid.New()
	contracts.signed[patientID] = true

	if err := svc.Book(context.Background(), &Booking{PatientID: patientID, BookingDate: testDate(), Slot: "11:00"}); err != nil {
		t.Fatalf("Book: %v", err)
	}

	slots, err := svc.ListSlots(context.Background(), testDate())
	if err != nil {
		t.Fatalf("ListSlots: %v", err)
	}
	if len(slots) != 8 {
		t.Fatalf("expected 8 slots, got %d", len(slots))
	}
	for _, s := range slots {
		want := s.Slot != "11:00"
		if s.Available != want {
			t.Errorf("slot %s: expected available=%v", s.Slot, want)
		}
	}
}

func TestUpdateStatus_RejectsReactivatingCancelled(t *testing.T) {
	svc, _, contracts := newTestService()
	patientID := uuid.New()
	contracts.signed[patientID] = true

	b := &Booking{PatientID: patientID, BookingDate: testDate(), Slot: "10:00"}
	if err := svc.Book(context.Background(), b); err != nil {
		t.Fatalf("Book: %v", err)
	}
	if _, err := svc.Cancel(context.Background(), b.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	if _, err := svc.UpdateStatus(context.Background(), b.ID, StatusScheduled, nil); err != ErrInvalidTransition {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestUpdateStatus_CompletedIsTerminal(t *testing.T) {
	svc, _, contracts := newTestService()
	patientID := uuid.New()
	contracts.signed[patientID] = true

	b := &Booking{PatientID: patientID, BookingDate: testDate(), Slot: "10:00"}
	if err := svc.Book(context.Background(), b); err != nil {
		t.Fatalf("Book: %v", err)
	}
	if _, err := svc.UpdateStatus(context.Background(), b.ID, StatusCompleted, nil); err != nil {
		t.Fatalf("complete: %v", err)
	}

	if _, err := svc.UpdateStatus(context.Background(), b.ID, StatusCancelled, nil); err != ErrInvalidTransition {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestCancel_Idempotent(t *testing.T) {
	svc, _, contracts := newTestService()
	patientID := uuid.New()
	contracts.signed[patientID] = true

	b := &Booking{PatientID: patientID, BookingDate: testDate(), Slot: "10:00"}
	if err := svc.Book(context.Background(), b); err != nil {
		t.Fatalf("Book: %v", err)
	}
	if _, err := svc.Cancel(context.Background(), b.ID); err != nil {
		t.Fatalf("first Cancel: %v", err)
	}
	if _, err := svc.Cancel(context.Background(), b.ID); err != nil {
		t.Fatalf("second Cancel: %v", err)
	}
}

func TestUpdateStatus_RejectsUnknownStatus(t *testing.T) {
	svc, _, contracts := newTestService()
	patientID := uuid.New()
	contracts.signed[patientID] = true

	b := &Booking{PatientID: patientID, BookingDate: testDate(), Slot: "10:00"}
	if err := svc.Book(context.Background(), b); err != nil {
		t.Fatalf("Book: %v", err)
	}

	if _, err := svc.UpdateStatus(context.Background(), b.ID, "postponed", nil); err == nil {
		t.Fatal("expected error for unknown status")
	}
}
