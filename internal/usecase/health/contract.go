package health

import (
	"context"

	"github.com/kailas-cloud/postalgeo/internal/dataset"
)

// SourcePinger checks record source availability.
type SourcePinger interface {
	Ping(ctx context.Context) error
}

// StoreProvider exposes the published dataset.
type StoreProvider interface {
	Current() *dataset.Store
}
