package contract

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/epitofcode/Cosmetic-Star-CRM/internal/platform/blobstore"
	"github.com/epitofcode/Cosmetic-Star-CRM/internal/platform/db"
)

type Service struct {
	repo  Repository
	blobs blobstore.BlobStore
	runTx db.TxRunner
}

func NewService(repo Repository, blobs blobstore.BlobStore, runTx db.TxRunner) *Service {
	return &Service{repo: repo, blobs: blobs, runTx: runTx}
}

// Sign stores the uploaded signature image and upserts the patient's
// contract row in one transaction, so a failed upsert never leaves an
// orphaned signature blob behind.
func (s *Service) Sign(ctx context.Context, patientID uuid.UUID, fileName, contentType string, signature io.Reader) (*Contract, error) {
	if patientID == uuid.Nil {
		return nil, fmt.Errorf("patient_id is required")
	}
	if fileName == "" {
		return nil, fmt.Errorf("signature file is required")
	}

	var signed *Contract
	err := s.runTx(ctx, func(ctx context.Context) error {
		meta, err := s.blobs.Upload(ctx, blobstore.BlobMetadata{
			FileName:    fileName,
			ContentType: contentType,
			PatientID:   patientID.String(),
			Category:    "signature",
		}, signature)
		if err != nil {
			// The blob row references the patient, so an unknown patient
			// fails here before the contract upsert ever runs.
			if errors.Is(err, blobstore.ErrPatientNotFound) {
				return ErrPatientNotFound
			}
			return fmt.Errorf("storing signature: %w", err)
		}

		c := &Contract{PatientID: patientID, SignatureBlobID: meta.ID}
		if err := s.repo.Upsert(ctx, c); err != nil {
			return err
		}

		signed, err = s.repo.GetByPatient(ctx, patientID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return signed, nil
}

func (s *Service) Get(ctx context.Context, patientID uuid.UUID) (*Contract, error) {
	return s.repo.GetByPatient(ctx, patientID)
}
