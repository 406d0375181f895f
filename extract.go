package inksep

import (
	"fmt"
	"image/color"
	"math"
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/cenkalti/dominantcolor"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
	"go.uber.org/zap"
)

// PaletteMethod selects the clustering behind ExtractPalette. Only PaletteLabKMeans
// draws from the engine seed, so it is the only method that reproduces a palette
// exactly across runs.
type PaletteMethod int

const (
	// PaletteLabKMeans is seeded Lloyd clustering in CIELAB over the alpha-filtered sample.
	PaletteLabKMeans PaletteMethod = iota
	// PaletteKMeans over-clusters the sample in RGB with muesli/kmeans and keeps a diverse
	// subset. muesli/kmeans seeds its own generator, so results vary between runs.
	PaletteKMeans
	// PaletteDominantColor weights colors with dominantcolor and keeps a diverse subset.
	// It reads the whole image rather than the alpha-filtered sample.
	PaletteDominantColor
)

func (m PaletteMethod) String() string {
	switch m {
	case PaletteKMeans:
		return "kmeans"
	case PaletteDominantColor:
		return "dominantcolor"
	default:
		return "lab-kmeans"
	}
}

func ParsePaletteMethod(s string) (PaletteMethod, error) {
	switch strings.ToLower(s) {
	case "lab-kmeans", "lab":
		return PaletteLabKMeans, nil
	case "kmeans":
		return PaletteKMeans, nil
	case "dominantcolor", "dominant":
		return PaletteDominantColor, nil
	default:
		return 0, configErrorf("palette.method", "unknown palette method %q", s)
	}
}

type ExtractOptions struct {
	// Number of inks to propose.
	K int
	// Maximum pixels sampled (uniformly, without replacement).
	SampleSize int
	Method     PaletteMethod
	// Pixels with alpha below this are not part of the artwork.
	AlphaThreshold uint8
	// Lloyd iteration cap. The result after the cap is returned as is.
	MaxIterations int
	// Early exit when no centroid moves more than Epsilon (ΔE).
	Epsilon float64
}

func DefaultExtractOptions(k int) ExtractOptions {
	return ExtractOptions{
		K:              k,
		SampleSize:     25000,
		Method:         PaletteLabKMeans,
		AlphaThreshold: 50,
		MaxIterations:  15,
		Epsilon:        0.5,
	}
}

// weightedColor is a candidate ink with its pixel share. lab caches Col in CIELAB
// for diversity scoring.
type weightedColor struct {
	Col    colorful.Color
	Weight float64
	lab    [3]float64
}

func newWeightedColor(c colorful.Color, w float64) weightedColor {
	c = c.Clamped()
	l, a, b := c.Lab()
	return weightedColor{Col: c, Weight: max(w, 1e-6), lab: [3]float64{l, a, b}}
}

func (c weightedColor) labDist2(o weightedColor) float64 {
	d0, d1, d2 := c.lab[0]-o.lab[0], c.lab[1]-o.lab[1], c.lab[2]-o.lab[2]
	return d0*d0 + d1*d1 + d2*d2
}

// ExtractPalette proposes k inks for src, dominant color first.
func (e *Engine) ExtractPalette(src *PixelBuffer, k, sampleSize int) ([]PaletteEntry, error) {
	opt := DefaultExtractOptions(k)
	opt.SampleSize = sampleSize
	return e.ExtractPaletteWith(src, opt)
}

func (e *Engine) ExtractPaletteWith(src *PixelBuffer, opt ExtractOptions) ([]PaletteEntry, error) {
	if opt.K < 1 {
		return nil, configErrorf("k", "must be at least 1, got %d", opt.K)
	}
	if opt.SampleSize < 1 {
		return nil, configErrorf("sampleSize", "must be at least 1, got %d", opt.SampleSize)
	}
	if opt.MaxIterations < 1 {
		return nil, configErrorf("maxIterations", "must be at least 1, got %d", opt.MaxIterations)
	}
	if err := src.validate(); err != nil {
		return nil, fmt.Errorf("extract palette: %w", err)
	}

	var nonce uint32
	e.withRand(func(r *rand.Rand) { nonce = r.Uint32() })

	valid := make([]int, 0, src.Len())
	for i := range src.Len() {
		if src.Alpha(i) >= opt.AlphaThreshold {
			valid = append(valid, i)
		}
	}
	if len(valid) == 0 {
		e.log.Debug("no visible pixels, falling back to black")
		return []PaletteEntry{NewPaletteEntry(autoID(0, nonce), RGB{})}, nil
	}

	sample := e.samplePixels(valid, opt.SampleSize)
	var found []weightedColor
	switch opt.Method {
	case PaletteKMeans:
		found = extractKMeans(src, sample, opt.K)
		if len(found) == 0 {
			e.log.Warn("kmeans returned empty palette, falling back to dominantcolor")
			found = extractDominant(src, opt.K)
		}
	case PaletteDominantColor:
		found = extractDominant(src, opt.K)
	default:
		found = e.labKMeans(src, sample, opt)
	}
	if len(found) == 0 {
		return nil, internalf("palette extraction produced no colors from %d pixels", len(sample))
	}

	slices.SortStableFunc(found, func(a, b weightedColor) int {
		switch {
		case a.Weight > b.Weight:
			return -1
		case a.Weight < b.Weight:
			return 1
		}
		return 0
	})

	out := make([]PaletteEntry, len(found))
	for i, c := range found {
		r, g, b := c.Col.Clamped().RGB255()
		out[i] = NewPaletteEntry(autoID(i, nonce), RGB{r, g, b})
	}
	e.log.Debug("palette extracted",
		zap.Stringer("method", opt.Method),
		zap.Int("k", opt.K),
		zap.Int("sampled", len(sample)),
		zap.Int("colors", len(out)))
	return out, nil
}

func autoID(i int, nonce uint32) string {
	return fmt.Sprintf("auto-%d-%08x", i, nonce)
}

// samplePixels draws min(n, len(valid)) indices without replacement (partial Fisher-Yates).
func (e *Engine) samplePixels(valid []int, n int) []int {
	if n >= len(valid) {
		return valid
	}
	pool := slices.Clone(valid)
	e.withRand(func(r *rand.Rand) {
		for i := range n {
			j := i + r.IntN(len(pool)-i)
			pool[i], pool[j] = pool[j], pool[i]
		}
	})
	return pool[:n]
}

// ============ LAB K-MEANS ============

func (e *Engine) labKMeans(src *PixelBuffer, sample []int, opt ExtractOptions) []weightedColor {
	obs := make(clusters.Observations, len(sample))
	for i, idx := range sample {
		off := idx * 4
		lab := RGBToLab(RGB{src.Pix[off], src.Pix[off+1], src.Pix[off+2]})
		obs[i] = clusters.Coordinates{lab.L, lab.A, lab.B}
	}

	cc := e.initialCentroids(obs, opt.K)
	iterations := 0
	for range opt.MaxIterations {
		iterations++
		prev := make([]clusters.Coordinates, len(cc))
		for i := range cc {
			prev[i] = slices.Clone(cc[i].Center)
		}
		assign(cc, obs)
		cc.Recenter()

		moved := 0.0
		for i := range cc {
			moved = max(moved, math.Sqrt(prev[i].Distance(cc[i].Center)))
		}
		if moved < opt.Epsilon {
			break
		}
	}
	assign(cc, obs)
	e.log.Debug("lab kmeans finished", zap.Int("k", len(cc)), zap.Int("iterations", iterations))

	out := make([]weightedColor, 0, len(cc))
	for _, c := range cc {
		if len(c.Observations) == 0 {
			continue
		}
		col := colorful.Lab(c.Center[0]/100, c.Center[1]/100, c.Center[2]/100)
		out = append(out, newWeightedColor(col, float64(len(c.Observations))))
	}
	return out
}

// initialCentroids picks up to k random observations with distinct coordinates.
// Images with fewer distinct colors than k get fewer clusters.
func (e *Engine) initialCentroids(obs clusters.Observations, k int) clusters.Clusters {
	var order []int
	e.withRand(func(r *rand.Rand) { order = r.Perm(len(obs)) })

	cc := make(clusters.Clusters, 0, k)
	for _, i := range order {
		if len(cc) == k {
			break
		}
		p := obs[i].Coordinates()
		dup := false
		for _, c := range cc {
			if c.Center.Distance(p) == 0 {
				dup = true
				break
			}
		}
		if !dup {
			cc = append(cc, clusters.Cluster{Center: slices.Clone(p)})
		}
	}
	return cc
}

func assign(cc clusters.Clusters, obs clusters.Observations) {
	cc.Reset()
	for _, o := range obs {
		ci := cc.Nearest(o)
		cc[ci].Append(o)
	}
}

// ============ KMEANS / DOMINANT COLOR ============

func extractKMeans(src *PixelBuffer, sample []int, k int) []weightedColor {
	dataset := make(clusters.Observations, 0, len(sample))
	for _, idx := range sample {
		off := idx * 4
		dataset = append(dataset, clusters.Coordinates{
			float64(src.Pix[off]) / 255.0,
			float64(src.Pix[off+1]) / 255.0,
			float64(src.Pix[off+2]) / 255.0,
		})
	}
	if len(dataset) == 0 {
		return nil
	}

	workK := min(max(k*4, k+2), len(dataset))
	km := kmeans.New()
	cc, err := km.Partition(dataset, workK)
	if err != nil || len(cc) == 0 {
		return nil
	}

	weighted := make([]weightedColor, 0, len(cc))
	for _, c := range cc {
		center := c.Center
		if len(center) < 3 || len(c.Observations) == 0 {
			continue
		}
		col := colorful.Color{R: center[0], G: center[1], B: center[2]}
		weighted = append(weighted, newWeightedColor(col, float64(len(c.Observations))))
	}
	return pickDiverse(weighted, k)
}

func extractDominant(src *PixelBuffer, k int) []weightedColor {
	nCandidates := max(24, k*8)
	candidates := dominantcolor.FindWeight(src.NRGBA(), nCandidates)
	if len(candidates) == 0 {
		candidates = append(candidates, dominantcolor.Color{
			RGBA:   color.RGBA{R: 128, G: 128, B: 128, A: 255},
			Weight: 1.0,
		})
	}

	weighted := make([]weightedColor, 0, len(candidates))
	for _, c := range candidates {
		col, _ := colorful.MakeColor(c.RGBA)
		weighted = append(weighted, newWeightedColor(col, c.Weight))
	}
	return pickDiverse(weighted, k)
}

// pickDiverse starts from the heaviest candidate and then repeatedly takes the one
// whose Lab distance to everything already picked, scaled by its relative weight,
// is largest.
func pickDiverse(cands []weightedColor, k int) []weightedColor {
	if k <= 0 || len(cands) == 0 {
		return nil
	}
	k = min(k, len(cands))
	maxW := 0.0
	heaviest := 0
	for i, c := range cands {
		if c.Weight > maxW {
			maxW, heaviest = c.Weight, i
		}
	}

	picked := make([]weightedColor, 0, k)
	used := make([]bool, len(cands))
	picked = append(picked, cands[heaviest])
	used[heaviest] = true

	for len(picked) < k {
		best, bestScore := -1, -1.0
		for i, c := range cands {
			if used[i] {
				continue
			}
			nearest := math.MaxFloat64
			for _, p := range picked {
				nearest = min(nearest, c.labDist2(p))
			}
			score := math.Sqrt(nearest) * (0.55 + 0.45*math.Sqrt(c.Weight/maxW))
			if score > bestScore {
				best, bestScore = i, score
			}
		}
		if best < 0 {
			break
		}
		used[best] = true
		picked = append(picked, cands[best])
	}
	return picked
}
