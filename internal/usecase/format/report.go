package format

import (
	"time"

	"github.com/kailas-cloud/postalgeo/internal/usecase/resolve"
)

// StatusOperational is reported by stats while a dataset is loaded.
const StatusOperational = "operational"

// ValidationResponse is the validate result.
type ValidationResponse struct {
	PostalCode string `json:"postalCode"`
	Valid      bool   `json:"valid"`
	Reason     string `json:"reason,omitempty"`
}

// Bounds is the coordinate envelope of the dataset.
type Bounds struct {
	MinLat float64 `json:"minLat"`
	MaxLat float64 `json:"maxLat"`
	MinLng float64 `json:"minLng"`
	MaxLng float64 `json:"maxLng"`
}

// StatsResponse is the dataset summary.
type StatsResponse struct {
	TotalRecords     int            `json:"totalRecords"`
	PerRegionCounts  map[string]int `json:"perRegionCounts"`
	CoordinateBounds Bounds         `json:"coordinateBounds"`
	UniqueRegions    int            `json:"uniqueRegions"`
	Status           string         `json:"status"`
	Source           string         `json:"source"`
	BuiltAt          time.Time      `json:"builtAt"`
}

// Validation renders a validation outcome.
func Validation(v resolve.Validation) ValidationResponse {
	return ValidationResponse{
		PostalCode: v.Code,
		Valid:      v.Valid,
		Reason:     string(v.Reason),
	}
}

// Stats renders a dataset summary.
func Stats(s resolve.Summary) StatsResponse {
	counts := make(map[string]int, len(s.PerRegionCounts))
	for k, v := range s.PerRegionCounts {
		counts[k] = v
	}
	return StatsResponse{
		TotalRecords:    s.TotalRecords,
		PerRegionCounts: counts,
		CoordinateBounds: Bounds{
			MinLat: s.Bounds.MinLat,
			MaxLat: s.Bounds.MaxLat,
			MinLng: s.Bounds.MinLon,
			MaxLng: s.Bounds.MaxLon,
		},
		UniqueRegions: s.UniqueRegions(),
		Status:        StatusOperational,
		Source:        s.Source,
		BuiltAt:       s.BuiltAt,
	}
}
