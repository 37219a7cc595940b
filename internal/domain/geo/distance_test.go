package geo

import (
	"math"
	"testing"
)

func almost(a, b, eps float64) bool {
	if a > b {
		return a-b < eps
	}
	return b-a < eps
}

func TestHaversineKm_SamePoint(t *testing.T) {
	d := HaversineKm(34.0901, -118.4065, 34.0901, -118.4065)
	if d != 0 {
		t.Fatalf("want 0 got %f", d)
	}
}

func TestHaversineKm_NewYork_London(t *testing.T) {
	// NYC (40.7128, -74.0060) -> London (51.5074, -0.1278) is about 5570 km
	d := HaversineKm(40.7128, -74.0060, 51.5074, -0.1278)
	if !almost(d, 5570, 20) {
		t.Fatalf("NYC-London want ~5570 km got %.0f", d)
	}
}

func TestHaversineKm_Symmetric(t *testing.T) {
	a := HaversineKm(47.606, -122.332, 45.5152, -122.6784)
	b := HaversineKm(45.5152, -122.6784, 47.606, -122.332)
	if !almost(a, b, 1e-9) {
		t.Fatalf("asymmetric: %f vs %f", a, b)
	}
}

func TestHaversineKm_Antipodal(t *testing.T) {
	d := HaversineKm(0, 0, 0, 180)
	want := math.Pi * EarthRadiusKm
	if !almost(d, want, 1) {
		t.Fatalf("antipodal want %.0f got %.0f", want, d)
	}
}

func TestHaversineKm_UsesEarthRadius(t *testing.T) {
	// a quarter meridian is exactly pi/2 radians
	d := HaversineKm(0, 0, 90, 0)
	want := math.Pi / 2 * EarthRadiusKm
	if !almost(d, want, 1e-6) {
		t.Fatalf("quarter meridian want %.6f got %.6f", want, d)
	}
	// one degree of longitude on the equator
	d = HaversineKm(0, 0, 0, 1)
	want = EarthRadiusKm * math.Pi / 180
	if !almost(d, want, 1e-9) {
		t.Fatalf("equator degree want %.9f got %.9f", want, d)
	}
}

func TestBoundingBoxForRadius_Equator(t *testing.T) {
	b := BoundingBoxForRadius(0, 0, KmPerDegreeLat)
	// One degree on the 6371 km sphere is ~111.195 km, so the cap is a
	// little wider than the nominal 111.32 km/degree box.
	capDeg := KmPerDegreeLat / EarthRadiusKm * 180 / math.Pi
	if !almost(b.MinLat, -capDeg, 1e-9) || !almost(b.MaxLat, capDeg, 1e-9) {
		t.Fatalf("lat range want ±%f got [%f,%f]", capDeg, b.MinLat, b.MaxLat)
	}
	if b.MaxLon < 1 || b.MinLon > -1 {
		t.Fatalf("lon range narrower than nominal: [%f,%f]", b.MinLon, b.MaxLon)
	}
}

func TestBoundingBoxForRadius_NeverNarrowerThanNominal(t *testing.T) {
	for _, lat := range []float64{0, 20, 45, 60, 71} {
		for _, r := range []float64{0.5, 5, 50, 500} {
			b := BoundingBoxForRadius(lat, -100, r)
			nominalLat := r / KmPerDegreeLat
			nominalLon := r / (KmPerDegreeLat * math.Cos(lat*math.Pi/180))
			if lat+nominalLat <= 90 && b.MaxLat-lat < nominalLat-1e-12 {
				t.Errorf("lat=%v r=%v: lat delta %f < nominal %f", lat, r, b.MaxLat-lat, nominalLat)
			}
			if b.MaxLon+100 < nominalLon-1e-12 {
				t.Errorf("lat=%v r=%v: lon delta %f < nominal %f", lat, r, b.MaxLon+100, nominalLon)
			}
		}
	}
}

func TestBoundingBoxForRadius_WidensWithLatitude(t *testing.T) {
	b := BoundingBoxForRadius(60, 0, KmPerDegreeLat)
	// cos(60°) = 0.5, so the longitude delta roughly doubles
	if b.MaxLon < 2 || b.MaxLon > 2.01 {
		t.Fatalf("want MaxLon≈2 got %f", b.MaxLon)
	}
}

func TestBoundingBoxForRadius_ContainsCircle(t *testing.T) {
	for _, lat := range []float64{19, 47.606, 64, 71.3} {
		for _, r := range []float64{1, 25, 400, 1000} {
			lon := -122.332
			b := BoundingBoxForRadius(lat, lon, r)
			// Walk the circle boundary using the forward geodesic formula.
			ang := r / EarthRadiusKm * 0.999999
			phi1 := lat * math.Pi / 180
			for bearing := 0.0; bearing < 360; bearing += 5 {
				theta := bearing * math.Pi / 180
				phi2 := math.Asin(math.Sin(phi1)*math.Cos(ang) + math.Cos(phi1)*math.Sin(ang)*math.Cos(theta))
				lambda := math.Atan2(math.Sin(theta)*math.Sin(ang)*math.Cos(phi1),
					math.Cos(ang)-math.Sin(phi1)*math.Sin(phi2))
				pLat := phi2 * 180 / math.Pi
				pLon := lon + lambda*180/math.Pi
				if !b.Contains(pLat, pLon) {
					t.Fatalf("lat=%v r=%v bearing=%v: (%f,%f) within radius but outside box %+v",
						lat, r, bearing, pLat, pLon, b)
				}
			}
		}
	}
}

func TestBoundingBoxForRadius_PoleDoesNotBlowUp(t *testing.T) {
	b := BoundingBoxForRadius(90, 10, 50)
	if math.IsInf(b.MinLon, 0) || math.IsNaN(b.MinLon) || math.IsInf(b.MaxLon, 0) || math.IsNaN(b.MaxLon) {
		t.Fatalf("non-finite longitude bounds: %+v", b)
	}
	if b.MaxLat != 90 || b.MinLon != -180 || b.MaxLon != 180 {
		t.Fatalf("cap over the pole should span all longitudes, got %+v", b)
	}
}

func TestBoundingBoxForRadius_Clamped(t *testing.T) {
	b := BoundingBoxForRadius(-89.9, -179.9, 100)
	if b.MinLat < -90 || b.MinLon < -180 {
		t.Fatalf("box not clamped: %+v", b)
	}
}

func TestBox_Contains(t *testing.T) {
	b := Box{MinLat: 10, MaxLat: 20, MinLon: -20, MaxLon: -10}
	if !b.Contains(10, -10) || !b.Contains(15, -15) {
		t.Error("expected edges and interior to be contained")
	}
	if b.Contains(21, -15) || b.Contains(15, -9) {
		t.Error("expected outside points to be rejected")
	}
}

func TestValidateCoordinates(t *testing.T) {
	tests := []struct {
		lat, lon float64
		want     bool
	}{
		{0, 0, true},
		{90, 180, true},
		{-90, -180, true},
		{90.1, 0, false},
		{0, -180.1, false},
		{math.NaN(), 0, false},
		{0, math.Inf(1), false},
	}
	for _, tc := range tests {
		if got := ValidateCoordinates(tc.lat, tc.lon); got != tc.want {
			t.Errorf("ValidateCoordinates(%v, %v) = %v, want %v", tc.lat, tc.lon, got, tc.want)
		}
	}
}
