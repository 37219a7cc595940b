package postalgeo

import (
	"github.com/kailas-cloud/postalgeo/internal/domain"
	"github.com/kailas-cloud/postalgeo/internal/usecase/reload"
)

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrValidation        = domain.ErrValidation
	ErrMalformedCode     = domain.ErrMalformedCode
	ErrNotReady          = domain.ErrNotReady
	ErrStoreBuild        = domain.ErrStoreBuild
	ErrSourceUnavailable = domain.ErrSourceUnavailable
	ErrReloadInProgress  = reload.ErrInProgress
)
