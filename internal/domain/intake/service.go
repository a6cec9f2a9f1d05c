package intake

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Save upserts the questionnaire document for a patient. The answer set is
// opaque to the server; only shape is validated.
func (s *Service) Save(ctx context.Context, patientID uuid.UUID, answers map[string]Answer) (*Intake, error) {
	if patientID == uuid.Nil {
		return nil, fmt.Errorf("patient_id is required")
	}
	if len(answers) == 0 {
		return nil, fmt.Errorf("answers must not be empty")
	}
	for key := range answers {
		if strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("answer keys must not be empty")
		}
	}

	in := &Intake{PatientID: patientID, Answers: answers}
	if err := s.repo.Upsert(ctx, in); err != nil {
		return nil, err
	}
	return s.repo.GetByPatient(ctx, patientID)
}

func (s *Service) Get(ctx context.Context, patientID uuid.UUID) (*Intake, error) {
	return s.repo.GetByPatient(ctx, patientID)
}
