package blobstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/epitofcode/Cosmetic-Star-CRM/internal/platform/db"
)

// PostgresBlobStore stores blob content and metadata in a Postgres table.
// Writes join an in-flight transaction from the context when one exists, so
// a signature upload and its contract row commit or roll back together.
type PostgresBlobStore struct {
	pool *pgxpool.Pool
}

func NewPostgresBlobStore(pool *pgxpool.Pool) *PostgresBlobStore {
	return &PostgresBlobStore{pool: pool}
}

func (s *PostgresBlobStore) conn(ctx context.Context) db.Queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return s.pool
}

const blobColumns = `id, file_name, content_type, size, patient_id, category, hash, created_at, created_by`

func scanBlobMeta(row pgx.Row) (*BlobMetadata, error) {
	var m BlobMetadata
	var patientID *string
	err := row.Scan(&m.ID, &m.FileName, &m.ContentType, &m.Size, &patientID, &m.Category, &m.Hash, &m.CreatedAt, &m.CreatedBy)
	if err != nil {
		return nil, err
	}
	if patientID != nil {
		m.PatientID = *patientID
	}
	return &m, nil
}

func (s *PostgresBlobStore) Upload(ctx context.Context, meta BlobMetadata, content io.Reader) (*BlobMetadata, error) {
	data, err := validateAndRead(&meta, content)
	if err != nil {
		return nil, err
	}

	meta.ID = uuid.New().String()
	meta.CreatedAt = time.Now().UTC()

	var patientID *string
	if meta.PatientID != "" {
		patientID = &meta.PatientID
	}

	_, err = s.conn(ctx).Exec(ctx, `
		INSERT INTO blob (id, file_name, content_type, size, patient_id, category, hash, content, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		meta.ID, meta.FileName, meta.ContentType, meta.Size, patientID, meta.Category, meta.Hash, data, meta.CreatedAt, meta.CreatedBy)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}

	out := meta // copy
	return &out, nil
}

func (s *PostgresBlobStore) Download(ctx context.Context, id string) (io.ReadCloser, *BlobMetadata, error) {
	var m BlobMetadata
	var patientID *string
	var data []byte

	row := s.conn(ctx).QueryRow(ctx, `
		SELECT `+blobColumns+`, content FROM blob WHERE id = $1`, id)
	err := row.Scan(&m.ID, &m.FileName, &m.ContentType, &m.Size, &patientID, &m.Category, &m.Hash, &m.CreatedAt, &m.CreatedBy, &data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, ErrBlobNotFound
		}
		return nil, nil, err
	}
	if patientID != nil {
		m.PatientID = *patientID
	}

	return io.NopCloser(bytes.NewReader(data)), &m, nil
}

func (s *PostgresBlobStore) Delete(ctx context.Context, id string) error {
	tag, err := s.conn(ctx).Exec(ctx, `DELETE FROM blob WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrBlobNotFound
	}
	return nil
}

func (s *PostgresBlobStore) GetMetadata(ctx context.Context, id string) (*BlobMetadata, error) {
	row := s.conn(ctx).QueryRow(ctx, `
		SELECT `+blobColumns+` FROM blob WHERE id = $1`, id)
	meta, err := scanBlobMeta(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBlobNotFound
		}
		return nil, err
	}
	return meta, nil
}

func (s *PostgresBlobStore) ListByPatient(ctx context.Context, patientID, category string, limit, offset int) ([]*BlobMetadata, int, error) {
	if limit <= 0 {
		limit = 20
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM blob WHERE patient_id = $1`
	listQuery := `SELECT ` + blobColumns + ` FROM blob WHERE patient_id = $1`
	args := []interface{}{patientID}

	if category != "" {
		countQuery += ` AND category = $2`
		listQuery += ` AND category = $2`
		args = append(args, category)
	}

	if err := s.conn(ctx).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	listQuery += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.conn(ctx).Query(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*BlobMetadata
	for rows.Next() {
		m, err := scanBlobMeta(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, m)
	}
	return items, total, rows.Err()
}
