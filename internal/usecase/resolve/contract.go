package resolve

import "github.com/kailas-cloud/postalgeo/internal/dataset"

// StoreProvider exposes the currently published dataset.
type StoreProvider interface {
	Current() *dataset.Store
}
