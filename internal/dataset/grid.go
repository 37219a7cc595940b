package dataset

import (
	"math"

	"github.com/kailas-cloud/postalgeo/internal/domain/geo"
)

type cellKey struct {
	lat int32
	lon int32
}

// grid buckets arena indices by (floor(lat/size), floor(lon/size)).
type grid struct {
	size  float64
	cells map[cellKey][]int32
}

func newGrid(size float64) *grid {
	return &grid{size: size, cells: make(map[cellKey][]int32)}
}

func (g *grid) key(lat, lon float64) cellKey {
	return cellKey{
		lat: int32(math.Floor(lat / g.size)),
		lon: int32(math.Floor(lon / g.size)),
	}
}

func (g *grid) add(lat, lon float64, idx int32) {
	k := g.key(lat, lon)
	g.cells[k] = append(g.cells[k], idx)
}

// visit calls fn for every index stored in a cell overlapping box.
func (g *grid) visit(box geo.Box, fn func(idx int32)) {
	lo := g.key(box.MinLat, box.MinLon)
	hi := g.key(box.MaxLat, box.MaxLon)

	// Scanning the populated cells is cheaper than probing a huge empty range.
	span := (int64(hi.lat) - int64(lo.lat) + 1) * (int64(hi.lon) - int64(lo.lon) + 1)
	if span > int64(len(g.cells)) {
		for k, idxs := range g.cells {
			if k.lat < lo.lat || k.lat > hi.lat || k.lon < lo.lon || k.lon > hi.lon {
				continue
			}
			for _, idx := range idxs {
				fn(idx)
			}
		}
		return
	}

	for la := lo.lat; la <= hi.lat; la++ {
		for lx := lo.lon; lx <= hi.lon; lx++ {
			for _, idx := range g.cells[cellKey{lat: la, lon: lx}] {
				fn(idx)
			}
		}
	}
}
