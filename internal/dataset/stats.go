package dataset

import (
	"maps"
	"math"

	"github.com/kailas-cloud/postalgeo/internal/domain/geo"
	"github.com/kailas-cloud/postalgeo/internal/domain/postal"
)

// Stats summarizes the dataset.
type Stats struct {
	TotalRecords    int
	PerRegionCounts map[string]int
	Bounds          geo.Box
}

// UniqueRegions returns the number of distinct region codes.
func (s Stats) UniqueRegions() int { return len(s.PerRegionCounts) }

func (s Stats) clone() Stats {
	s.PerRegionCounts = maps.Clone(s.PerRegionCounts)
	return s
}

func computeStats(records []postal.Record) Stats {
	st := Stats{
		TotalRecords:    len(records),
		PerRegionCounts: make(map[string]int),
		Bounds: geo.Box{
			MinLat: math.Inf(1), MaxLat: math.Inf(-1),
			MinLon: math.Inf(1), MaxLon: math.Inf(-1),
		},
	}
	for i := range records {
		r := &records[i]
		st.PerRegionCounts[r.RegionCode()]++
		st.Bounds.MinLat = math.Min(st.Bounds.MinLat, r.Latitude())
		st.Bounds.MaxLat = math.Max(st.Bounds.MaxLat, r.Latitude())
		st.Bounds.MinLon = math.Min(st.Bounds.MinLon, r.Longitude())
		st.Bounds.MaxLon = math.Max(st.Bounds.MaxLon, r.Longitude())
	}
	return st
}
