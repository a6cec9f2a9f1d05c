package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

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

const bookingCols = `id, patient_id, booking_date, slot, status, procedure_note, created_at, updated_at`

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	err := row.Scan(&b.ID, &b.PatientID, &b.BookingDate, &b.Slot, &b.Status,
		&b.ProcedureNote, &b.CreatedAt, &b.UpdatedAt)
	return &b, err
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func (r *repoPG) Create(ctx context.Context, b *Booking) error {
	b.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO booking (id, patient_id, booking_date, slot, status, procedure_note)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		b.ID, b.PatientID, b.BookingDate, b.Slot, b.Status, b.ProcedureNote)
	switch pgCode(err) {
	case "23505":
		// Partial unique index on (booking_date, slot) for active bookings.
		return ErrSlotTaken
	case "23503":
		return ErrPatientNotFound
	}
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	b, err := scanBooking(r.conn(ctx).QueryRow(ctx, `SELECT `+bookingCols+` FROM booking WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return b, err
}

func (r *repoPG) Update(ctx context.Context, b *Booking) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE booking SET status = $2, procedure_note = $3, updated_at = NOW()
		WHERE id = $1`,
		b.ID, b.Status, b.ProcedureNote)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, patientID *uuid.UUID, date *time.Time, limit, offset int) ([]*Booking, int, error) {
	query := `SELECT ` + bookingCols + ` FROM booking WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM booking WHERE 1=1`
	var args []interface{}
	idx := 1

	if patientID != nil {
		clause := fmt.Sprintf(` AND patient_id = $%d`, idx)
		query += clause
		countQuery += clause
		args = append(args, *patientID)
		idx++
	}
	if date != nil {
		clause := fmt.Sprintf(` AND booking_date = $%d`, idx)
		query += clause
		countQuery += clause
		args = append(args, *date)
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY booking_date, slot LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, b)
	}
	return items, total, rows.Err()
}

func (r *repoPG) TakenSlots(ctx context.Context, date time.Time) ([]string, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT slot FROM booking WHERE booking_date = $1 AND status <> $2`,
		date, StatusCancelled)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slots []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}
