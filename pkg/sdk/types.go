package postalgeo

import "time"

// PostalCode is one resolved postal area.
type PostalCode struct {
	Code         string
	Latitude     float64
	Longitude    float64
	RegionCode   string
	RegionName   string
	LandAreaSqM  float64
	WaterAreaSqM float64
	CountryCode  string
}

// Match is a proximity hit.
type Match struct {
	PostalCode
	DistanceKm float64
}

// Validation is the outcome of Validate. Reason is empty for a valid code,
// "malformed" for input that is not five digits and "not_found" otherwise.
type Validation struct {
	Code   string
	Valid  bool
	Reason string
}

// Bounds is the coordinate envelope of the dataset.
type Bounds struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
}

// Stats summarizes the loaded dataset.
type Stats struct {
	TotalRecords    int
	PerRegionCounts map[string]int
	UniqueRegions   int
	Bounds          Bounds
	Source          string
	BuiltAt         time.Time
}

// ReloadResult describes a completed reload.
type ReloadResult struct {
	Records  int
	Regions  int
	Source   string
	BuiltAt  time.Time
	Duration time.Duration
}

// HealthStatus represents the aggregated system health.
type HealthStatus struct {
	Status string            // "ok", "degraded", "error"
	Checks map[string]string // component → "ok"/"error"
}

// Limits bounds the work of a single query.
type Limits struct {
	MaxRadiusKm   float64
	MaxRows       int
	MaxExpansions int
}
