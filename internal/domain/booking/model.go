package booking

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound          = errors.New("booking not found")
	ErrPatientNotFound   = errors.New("patient not found")
	ErrContractRequired  = errors.New("contract must be signed before booking")
	ErrSlotTaken         = errors.New("slot already booked")
	ErrInvalidTransition = errors.New("booking status cannot change that way")
)

const (
	StatusScheduled = "scheduled"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

var validStatuses = map[string]bool{
	StatusScheduled: true,
	StatusCompleted: true,
	StatusCancelled: true,
}

// The lifecycle is forward-only: completed and cancelled are terminal, so a
// freed slot can never be reclaimed by reactivating the old booking. Moving
// an appointment means cancelling it and booking again.
var allowedTransitions = map[string]map[string]bool{
	StatusScheduled: {StatusCompleted: true, StatusCancelled: true},
}

func canTransition(from, to string) bool {
	return from == to || allowedTransitions[from][to]
}

// Booking maps to the booking table. Slot is a wall-clock "HH:MM" string;
// a cancelled booking frees its slot.
type Booking struct {
	ID            uuid.UUID `db:"id" json:"id"`
	PatientID     uuid.UUID `db:"patient_id" json:"patient_id"`
	BookingDate   time.Time `db:"booking_date" json:"booking_date"`
	Slot          string    `db:"slot" json:"slot"`
	Status        string    `db:"status" json:"status"`
	ProcedureNote *string   `db:"procedure_note" json:"procedure_note,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// SlotAvailability is one entry of the daily slot listing.
type SlotAvailability struct {
	Slot      string `json:"slot"`
	Available bool   `json:"available"`
}

// SlotGrid derives the fixed daily slot times from clinic hours.
type SlotGrid struct {
	OpenHour    int
	CloseHour   int
	SlotMinutes int
}

// Slots returns every slot start time of a working day as "HH:MM".
func (g SlotGrid) Slots() []string {
	var slots []string
	start := g.OpenHour * 60
	end := g.CloseHour * 60
	for m := start; m+g.SlotMinutes <= end; m += g.SlotMinutes {
		slots = append(slots, fmt.Sprintf("%02d:%02d", m/60, m%60))
	}
	return slots
}

// Contains reports whether slot is on the grid.
func (g SlotGrid) Contains(slot string) bool {
	for _, s := range g.Slots() {
		if s == slot {
			return true
		}
	}
	return false
}
