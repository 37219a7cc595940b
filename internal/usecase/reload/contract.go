package reload

import (
	"context"

	"github.com/kailas-cloud/postalgeo/internal/dataset"
	"github.com/kailas-cloud/postalgeo/internal/domain/postal"
)

// RecordSource provides the complete record set.
type RecordSource interface {
	Name() string
	Load(ctx context.Context) ([]postal.Record, error)
}

// Publisher swaps the served dataset.
type Publisher interface {
	Current() *dataset.Store
	Swap(s *dataset.Store) *dataset.Store
}
