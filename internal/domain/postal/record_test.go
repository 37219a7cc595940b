package postal

import "testing"

func TestNew_DefaultsCountry(t *testing.T) {
	r := New("90210", 34.0901, -118.4065, "CA", 1029067, 0, "")
	if r.CountryCode() != CountryUS {
		t.Errorf("CountryCode() = %q, want %q", r.CountryCode(), CountryUS)
	}
	if r.Code() != "90210" || r.Latitude() != 34.0901 || r.Longitude() != -118.4065 {
		t.Errorf("unexpected record: %+v", r)
	}
	if r.RegionCode() != "CA" || r.LandAreaSqM() != 1029067 || r.WaterAreaSqM() != 0 {
		t.Errorf("unexpected record: %+v", r)
	}
}

func TestIsWellFormedCode(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"90210", true},
		{"00000", true},
		{"1234", false},
		{"123456", false},
		{"", false},
		{"9021a", false},
		{" 9021", false},
		{"９0210", false},
	}
	for _, tc := range tests {
		if got := IsWellFormedCode(tc.code); got != tc.want {
			t.Errorf("IsWellFormedCode(%q) = %v, want %v", tc.code, got, tc.want)
		}
	}
}

func TestIsValidPrefix(t *testing.T) {
	valid := []string{"9", "90", "902", "9021", "90210"}
	for _, p := range valid {
		if !IsValidPrefix(p) {
			t.Errorf("IsValidPrefix(%q) = false, want true", p)
		}
	}
	invalid := []string{"", "902100", "9x", "-1"}
	for _, p := range invalid {
		if IsValidPrefix(p) {
			t.Errorf("IsValidPrefix(%q) = true, want false", p)
		}
	}
}

func TestRegionName(t *testing.T) {
	if got := RegionName("CA"); got != "California" {
		t.Errorf("RegionName(CA) = %q", got)
	}
	if got := RegionName("PR"); got != "Puerto Rico" {
		t.Errorf("RegionName(PR) = %q", got)
	}
	if got := RegionName("AE"); got != "AE" {
		t.Errorf("unknown grouping should fall back to code, got %q", got)
	}
}
