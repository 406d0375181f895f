package inksep

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// Source alpha a pixel needs to be claimed by a vector channel.
	vectorAlphaGate = 128
	// Raster hysteresis band: results within it snap to exactly 0 or 1.
	snapLow  = 0.02
	snapHigh = 0.98
	// Width (in distance units) of the soft edge around the knockout threshold.
	knockoutFeather = 5.0
	labCacheLimit   = 1 << 16
)

// Separate classifies src against palette and returns one cleaned channel per surviving
// entry, in palette order. An empty palette or an empty image yields no channels.
func (e *Engine) Separate(ctx context.Context, src *PixelBuffer, palette []PaletteEntry, cfg SeparationConfig) ([]Channel, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("separate: %w", err)
	}
	for _, p := range palette {
		if err := validateOverrides(p); err != nil {
			return nil, fmt.Errorf("separate: %w", err)
		}
	}
	if err := src.validate(); err != nil {
		return nil, fmt.Errorf("separate: %w", err)
	}
	if len(palette) == 0 || src.Empty() {
		return []Channel{}, nil
	}

	start := time.Now()
	filtered, err := e.Prefilter(ctx, src, cfg.DenoiseStrength, cfg.DenoiseSpatial)
	if err != nil {
		return nil, fmt.Errorf("prefilter: %w", err)
	}
	masks, err := e.classify(ctx, filtered, palette, cfg)
	if err != nil {
		return nil, fmt.Errorf("classify: %w", err)
	}

	channels := make([]Channel, 0, len(palette))
	for i, p := range palette {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ch, keep, err := e.Cleanup(Channel{ID: p.ID, Entry: p, Coverage: masks[i], Visible: true}, cfg)
		if err != nil {
			return nil, fmt.Errorf("cleanup %s: %w", p.ID, err)
		}
		masks[i] = nil
		if !keep {
			e.log.Debug("channel dropped below minimum coverage",
				zap.String("id", p.ID), zap.String("hex", p.Hex), zap.Float64("minCoverage", cfg.MinCoverage))
			continue
		}
		channels = append(channels, ch)
	}

	e.log.Debug("separation finished",
		zap.Stringer("mode", cfg.Mode),
		zap.Stringer("method", cfg.Method),
		zap.Int("width", src.Width),
		zap.Int("height", src.Height),
		zap.Int("palette", len(palette)),
		zap.Int("channels", len(channels)),
		zap.Duration("elapsed", time.Since(start)))
	return channels, nil
}

// classify produces raw coverage masks, one per palette entry, without any cleanup.
func (e *Engine) classify(ctx context.Context, src *PixelBuffer, palette []PaletteEntry, cfg SeparationConfig) ([]*PixelBuffer, error) {
	n := src.Len()
	k := len(palette)
	m := metric{method: cfg.Method, w: cfg.Weights}

	points := make([]colorPoint, k)
	for i, p := range palette {
		points[i] = newColorPoint(p.RGB)
	}
	var params []rasterParams
	if cfg.Mode == ModeRaster {
		params = rasterThresholds(palette, points, cfg, m)
	}
	var substrate *colorPoint
	if cfg.Knockout != nil {
		p := newColorPoint(cfg.Knockout.Color)
		substrate = &p
	}

	cov := make([][]uint8, k)
	for i := range cov {
		cov[i] = make([]uint8, n)
	}

	chunk := e.chunkSizeFor(k)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			c := chunkClassifier{
				src:       src,
				points:    points,
				m:         m,
				mode:      cfg.Mode,
				params:    params,
				substrate: substrate,
				cfg:       cfg,
				cov:       cov,
			}
			return c.run(lo, hi)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]*PixelBuffer, k)
	for i := range k {
		out[i] = coverageMask(src.Width, src.Height, cov[i])
	}
	return out, nil
}

type chunkClassifier struct {
	src       *PixelBuffer
	points    []colorPoint
	m         metric
	mode      SeparationMode
	params    []rasterParams
	substrate *colorPoint
	cfg       SeparationConfig
	cov       [][]uint8
}

func (c *chunkClassifier) run(lo, hi int) error {
	k := len(c.points)
	size := hi - lo
	dist := make([]float64, size*k)
	nearest := make([]float64, size)
	keep := make([]float64, size)
	cache := make(map[uint32]Lab)

	// Distances for the whole chunk first.
	for i := range size {
		off := (lo + i) * 4
		r, g, b := c.src.Pix[off], c.src.Pix[off+1], c.src.Pix[off+2]
		key := uint32(r)<<16 | uint32(g)<<8 | uint32(b)
		lab, ok := cache[key]
		if !ok {
			if len(cache) >= labCacheLimit {
				clear(cache)
			}
			lab = RGBToLab(RGB{r, g, b})
			cache[key] = lab
		}
		p := colorPoint{r: float64(r), g: float64(g), b: float64(b), lab: lab}

		row := dist[i*k : (i+1)*k]
		best := math.Inf(1)
		for j := range k {
			d := c.m.between(&p, &c.points[j])
			if math.IsNaN(d) {
				return internalf("distance between pixel %d and palette entry %d is NaN", lo+i, j)
			}
			row[j] = d
			best = min(best, d)
		}
		nearest[i] = best

		keep[i] = 1
		if c.substrate != nil {
			dSub := c.m.between(&p, c.substrate)
			keep[i] = clampUnit((dSub - c.cfg.Knockout.Threshold) / knockoutFeather)
		}
	}

	switch c.mode {
	case ModeRaster:
		c.raster(lo, dist, nearest, keep)
	default:
		c.vector(lo, dist, keep)
	}
	return nil
}

// vector gives each sufficiently opaque pixel to its single nearest entry. Ties go to
// the earlier palette entry.
func (c *chunkClassifier) vector(lo int, dist, keep []float64) {
	k := len(c.points)
	for i := range len(keep) {
		if c.src.Alpha(lo+i) < vectorAlphaGate || keep[i] < 0.5 {
			continue
		}
		row := dist[i*k : (i+1)*k]
		winner := 0
		for j := 1; j < k; j++ {
			if row[j] < row[winner] {
				winner = j
			}
		}
		c.cov[winner][lo+i] = 255
	}
}

func (c *chunkClassifier) raster(lo int, dist, nearest, keep []float64) {
	k := len(c.points)
	for i := range len(keep) {
		alpha := float64(c.src.Alpha(lo+i)) / 255.0
		weight := alpha * keep[i]
		if weight <= 0 {
			continue
		}
		row := dist[i*k : (i+1)*k]
		for j := range k {
			p := c.params[j]
			v := p.coverage(row[j], nearest[i])
			if v > 0 {
				v = math.Pow(v, p.gamma)
			}
			switch {
			case v < snapLow:
				v = 0
			case v > snapHigh:
				v = 1
			}
			c.cov[j][lo+i] = unitToByte(v * weight)
		}
	}
}
