package format

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/postalgeo/internal/dataset"
	"github.com/kailas-cloud/postalgeo/internal/domain/geo"
	"github.com/kailas-cloud/postalgeo/internal/domain/postal"
	"github.com/kailas-cloud/postalgeo/internal/domain/style"
	"github.com/kailas-cloud/postalgeo/internal/usecase/resolve"
)

var builtAt = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func beverlyHills() postal.Record {
	return postal.New("90210", 34.0901, -118.4065, "CA", 1029067, 0, "US")
}

func keys(t *testing.T, v any) map[string]json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &m))
	return m
}

func TestEntry_Short(t *testing.T) {
	rec := beverlyHills()
	d := 1.5
	e := New("csv", builtAt).Entry(&rec, style.Short, &d)

	m := keys(t, e)
	assert.Len(t, m, 3)
	assert.Contains(t, m, "postalCode")
	assert.Contains(t, m, "lat")
	assert.Contains(t, m, "lng")
	assert.Equal(t, 34.0901, e.Lat)
	assert.Equal(t, -118.4065, e.Lng)
}

func TestEntry_Medium(t *testing.T) {
	rec := beverlyHills()
	e := New("csv", builtAt).Entry(&rec, style.Medium, nil)

	assert.Equal(t, "US", e.CountryCode)
	assert.Equal(t, "CA", e.AdminCode1)
	assert.Equal(t, "California", e.AdminName1)
	assert.Nil(t, e.Distance, "no distance outside proximity context")
	assert.Nil(t, e.LandArea)
	assert.Nil(t, e.Provenance)
}

func TestEntry_MediumZeroDistanceIsKept(t *testing.T) {
	rec := beverlyHills()
	d := 0.0
	e := New("csv", builtAt).Entry(&rec, style.Medium, &d)

	m := keys(t, e)
	require.Contains(t, m, "distance")
	assert.JSONEq(t, "0", string(m["distance"]))
}

func TestEntry_LongKeepsZeroWaterArea(t *testing.T) {
	rec := beverlyHills()
	e := New("csv", builtAt).Entry(&rec, style.Long, nil)

	m := keys(t, e)
	require.Contains(t, m, "landArea")
	require.Contains(t, m, "waterArea")
	assert.InDelta(t, 1029067.0, *e.LandArea, 0)
	assert.InDelta(t, 0.0, *e.WaterArea, 0)
	assert.NotContains(t, m, "provenance")
}

func TestEntry_Full(t *testing.T) {
	rec := beverlyHills()
	e := New("sqlite", builtAt).Entry(&rec, style.Full, nil)

	require.NotNil(t, e.Provenance)
	assert.Equal(t, "sqlite", e.Provenance.Source)
	assert.Equal(t, builtAt, e.Provenance.BuiltAt)
	assert.Equal(t, Accuracy, e.Provenance.Accuracy)
	assert.NotEmpty(t, e.Provenance.RegionNote)
	assert.NotNil(t, e.LandArea)
}

func TestEntry_StylesAreNested(t *testing.T) {
	rec := beverlyHills()
	d := 2.25
	f := New("csv", builtAt)

	order := []style.Style{style.Short, style.Medium, style.Long, style.Full}
	for i := 1; i < len(order); i++ {
		smaller := keys(t, f.Entry(&rec, order[i-1], &d))
		larger := keys(t, f.Entry(&rec, order[i], &d))
		assert.Less(t, len(smaller), len(larger), "%s vs %s", order[i-1], order[i])
		for k, v := range smaller {
			require.Contains(t, larger, k, "%s field %q missing from %s", order[i-1], k, order[i])
			assert.JSONEq(t, string(v), string(larger[k]))
		}
	}
}

func TestEntry_Deterministic(t *testing.T) {
	rec := beverlyHills()
	d := 3.0
	f := New("csv", builtAt)
	for _, s := range []style.Style{style.Short, style.Medium, style.Long, style.Full} {
		a, err := json.Marshal(f.Entry(&rec, s, &d))
		require.NoError(t, err)
		b, err := json.Marshal(f.Entry(&rec, s, &d))
		require.NoError(t, err)
		assert.Equal(t, a, b)
	}
}

func TestEntry_DoesNotAliasDistance(t *testing.T) {
	rec := beverlyHills()
	d := 1.0
	e := New("csv", builtAt).Entry(&rec, style.Medium, &d)
	d = 99
	assert.InDelta(t, 1.0, *e.Distance, 0)
}

func TestRecords_Envelope(t *testing.T) {
	recs := []postal.Record{
		postal.New("98101", 47.6114, -122.3305, "WA", 1, 0, "US"),
		postal.New("98104", 47.6022, -122.3262, "WA", 1, 0, "US"),
	}
	env := New("csv", builtAt).Records(recs, style.Short)
	assert.Equal(t, 2, env.TotalResultsCount)
	require.Len(t, env.Results, 2)
	assert.Equal(t, "98101", env.Results[0].PostalCode)
	assert.Equal(t, "98104", env.Results[1].PostalCode)
}

func TestMatches_CarryDistance(t *testing.T) {
	ms := []resolve.Match{
		{Record: postal.New("98104", 47.6022, -122.3262, "WA", 1, 0, "US"), DistanceKm: 0.61},
		{Record: postal.New("98101", 47.6114, -122.3305, "WA", 1, 0, "US"), DistanceKm: 0.62},
	}
	env := New("csv", builtAt).Matches(ms, style.Medium)
	require.Len(t, env.Results, 2)
	require.NotNil(t, env.Results[0].Distance)
	assert.InDelta(t, 0.61, *env.Results[0].Distance, 0)
	assert.InDelta(t, 0.62, *env.Results[1].Distance, 0)
}

func TestEmpty_SerializesEmptyArray(t *testing.T) {
	raw, err := json.Marshal(Empty())
	require.NoError(t, err)
	assert.JSONEq(t, `{"totalResultsCount":0,"results":[]}`, string(raw))
}

func TestValidation(t *testing.T) {
	tests := []struct {
		in   resolve.Validation
		want string
	}{
		{resolve.Validation{Code: "90210", Valid: true}, `{"postalCode":"90210","valid":true}`},
		{resolve.Validation{Code: "00000", Reason: resolve.ReasonNotFound},
			`{"postalCode":"00000","valid":false,"reason":"not_found"}`},
		{resolve.Validation{Code: "1234", Reason: resolve.ReasonMalformed},
			`{"postalCode":"1234","valid":false,"reason":"malformed"}`},
	}
	for _, tc := range tests {
		raw, err := json.Marshal(Validation(tc.in))
		require.NoError(t, err)
		assert.JSONEq(t, tc.want, string(raw))
	}
}

func TestStats(t *testing.T) {
	sum := resolve.Summary{
		Stats: dataset.Stats{
			TotalRecords:    3,
			PerRegionCounts: map[string]int{"CA": 2, "WA": 1},
			Bounds:          geo.Box{MinLat: 34, MaxLat: 47.6, MinLon: -122.3, MaxLon: -118.4},
		},
		Source:  "csv",
		BuiltAt: builtAt,
	}
	got := Stats(sum)
	assert.Equal(t, 3, got.TotalRecords)
	assert.Equal(t, 2, got.UniqueRegions)
	assert.Equal(t, StatusOperational, got.Status)
	assert.Equal(t, Bounds{MinLat: 34, MaxLat: 47.6, MinLng: -122.3, MaxLng: -118.4}, got.CoordinateBounds)

	got.PerRegionCounts["CA"] = 100
	assert.Equal(t, 2, sum.PerRegionCounts["CA"], "response must not alias the snapshot")
}
