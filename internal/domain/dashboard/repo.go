package dashboard

import "context"

type Repository interface {
	Summary(ctx context.Context) (*Summary, error)
}
