package postal

// CountryUS is the only country code the dataset carries.
const CountryUS = "US"

// CodeLength is the fixed length of a ZCTA code.
const CodeLength = 5

// Record is one ZCTA centroid. Values are immutable once constructed.
type Record struct {
	code         string
	latitude     float64
	longitude    float64
	regionCode   string
	landAreaSqM  float64
	waterAreaSqM float64
	countryCode  string
}

// New creates a record. An empty country code defaults to US.
func New(
	code string, latitude, longitude float64,
	regionCode string, landAreaSqM, waterAreaSqM float64,
	countryCode string,
) Record {
	if countryCode == "" {
		countryCode = CountryUS
	}
	return Record{
		code:         code,
		latitude:     latitude,
		longitude:    longitude,
		regionCode:   regionCode,
		landAreaSqM:  landAreaSqM,
		waterAreaSqM: waterAreaSqM,
		countryCode:  countryCode,
	}
}

// Code returns the five-digit postal code.
func (r *Record) Code() string { return r.code }

// Latitude returns the centroid latitude in degrees.
func (r *Record) Latitude() float64 { return r.latitude }

// Longitude returns the centroid longitude in degrees.
func (r *Record) Longitude() float64 { return r.longitude }

// RegionCode returns the coarse regional grouping. It is not guaranteed to be
// the state the area lies in.
func (r *Record) RegionCode() string { return r.regionCode }

// LandAreaSqM returns the land area in square meters.
func (r *Record) LandAreaSqM() float64 { return r.landAreaSqM }

// WaterAreaSqM returns the water area in square meters.
func (r *Record) WaterAreaSqM() float64 { return r.waterAreaSqM }

// CountryCode returns the ISO country code.
func (r *Record) CountryCode() string { return r.countryCode }

// IsWellFormedCode reports whether code is exactly five ASCII digits.
func IsWellFormedCode(code string) bool {
	return len(code) == CodeLength && allDigits(code)
}

// IsValidPrefix reports whether prefix is one to five ASCII digits.
func IsValidPrefix(prefix string) bool {
	return len(prefix) >= 1 && len(prefix) <= CodeLength && allDigits(prefix)
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
