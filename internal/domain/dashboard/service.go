package dashboard

import "context"

// PatientCounter and ContractCounter are satisfied by the patient and
// contract repositories. The headline counts come from them; the booking
// and financial figures come from aggregate SQL in the dashboard repository.
type PatientCounter interface {
	Count(ctx context.Context) (int, error)
}

type ContractCounter interface {
	CountSigned(ctx context.Context) (int, error)
}

type Service struct {
	repo      Repository
	patients  PatientCounter
	contracts ContractCounter
}

func NewService(repo Repository, patients PatientCounter, contracts ContractCounter) *Service {
	return &Service{repo: repo, patients: patients, contracts: contracts}
}

func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	sum, err := s.repo.Summary(ctx)
	if err != nil {
		return nil, err
	}
	if sum.PatientCount, err = s.patients.Count(ctx); err != nil {
		return nil, err
	}
	if sum.SignedContracts, err = s.contracts.CountSigned(ctx); err != nil {
		return nil, err
	}
	return sum, nil
}
