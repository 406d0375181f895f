package inksep

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// rasterParams shape one entry's soft coverage ramp.
type rasterParams struct {
	// Distance at or below which proximity is 1.
	solid float64
	// Distance at which proximity reaches 0.
	maxDist float64
	// How far behind the nearest entry a pixel may be before exclusivity reaches 0.
	slope float64
	gamma float64
}

func (p rasterParams) coverage(d, nearest float64) float64 {
	proximity := clampUnit(1 - (d-p.solid)/(p.maxDist-p.solid))
	exclusivity := clampUnit(1 - (d-nearest)/p.slope)
	return proximity * exclusivity
}

// paletteDistances is the symmetric matrix of pairwise distances between entries.
func paletteDistances(points []colorPoint, m metric) *mat.SymDense {
	n := len(points)
	d := mat.NewSymDense(n, nil)
	for i := range n {
		for j := i + 1; j < n; j++ {
			d.SetSym(i, j, m.between(&points[i], &points[j]))
		}
	}
	return d
}

// rasterThresholds resolves the soft ramp of every entry. Adaptive mode derives maxDist
// from the mean pairwise distance and each slope from that entry's nearest neighbour,
// so close inks (red next to dark red) bleed into each other less.
func rasterThresholds(palette []PaletteEntry, points []colorPoint, cfg SeparationConfig, m metric) []rasterParams {
	n := len(palette)
	base := rasterParams{maxDist: cfg.RasterMaxDistance, slope: cfg.RasterSlope, gamma: cfg.Gamma}
	out := make([]rasterParams, n)
	for i := range out {
		out[i] = base
	}

	if cfg.RasterAdaptive && n >= 2 {
		t := cfg.Adaptive
		dist := paletteDistances(points, m)
		pairs := make([]float64, 0, n*(n-1)/2)
		for i := range n {
			for j := i + 1; j < n; j++ {
				pairs = append(pairs, dist.At(i, j))
			}
		}
		maxDist := clampRange(stat.Mean(pairs, nil)*t.MaxScale, t.MinMaxDist, t.MaxMaxDist)

		row := make([]float64, n)
		for i := range n {
			mat.Row(row, i, dist)
			others := append(append([]float64(nil), row[:i]...), row[i+1:]...)
			out[i].maxDist = maxDist
			out[i].slope = clampRange(floats.Min(others)*t.SlopeScale, t.MinSlope, t.MaxSlope)
		}
	}

	for i, p := range palette {
		if o := p.Overrides; o != nil {
			out[i] = rasterParams{
				solid:   o.GradientMin,
				maxDist: o.GradientMax,
				slope:   o.GradientMax - o.GradientMin,
				gamma:   o.Gamma,
			}
		}
	}
	return out
}

func clampRange(v, lo, hi float64) float64 {
	if v < lo || v != v {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
