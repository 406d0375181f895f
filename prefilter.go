package inksep

import (
	"context"
	"math"

	"golang.org/x/sync/errgroup"
)

const maxBilateralRadius = 15

// Prefilter smooths src with an edge-preserving bilateral filter. strength is the color
// sigma (RGB units) and spatial the distance sigma in pixels; strength 0 returns an
// unfiltered copy. Alpha is preserved and transparent pixels neither change nor
// contribute to their neighbours.
func (e *Engine) Prefilter(ctx context.Context, src *PixelBuffer, strength, spatial float64) (*PixelBuffer, error) {
	if err := src.validate(); err != nil {
		return nil, err
	}
	if strength < 0 || spatial < 0 {
		return nil, configErrorf("denoise", "strength and spatial must be >= 0, got %v/%v", strength, spatial)
	}
	if strength == 0 || spatial == 0 || src.Empty() {
		return src.Clone(), nil
	}

	radius := min(max(int(math.Round(spatial*1.5)), 1), maxBilateralRadius)
	side := 2*radius + 1
	spaceW := make([]float64, side*side)
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			spaceW[(dy+radius)*side+dx+radius] = math.Exp(-float64(dx*dx+dy*dy) / (2 * spatial * spatial))
		}
	}
	// Color weights indexed by squared RGB distance.
	colorW := make([]float64, 3*255*255+1)
	for d2 := range colorW {
		colorW[d2] = math.Exp(-float64(d2) / (2 * strength * strength))
	}

	w, h := src.Width, src.Height
	out := src.Clone()
	rowsPerTask := max(1, h/(e.opts.Workers*4))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)
	for y0 := 0; y0 < h; y0 += rowsPerTask {
		y1 := min(y0+rowsPerTask, h)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for y := y0; y < y1; y++ {
				for x := range w {
					off := (y*w + x) * 4
					if src.Pix[off+3] == 0 {
						continue
					}
					cr, cg, cb := int(src.Pix[off]), int(src.Pix[off+1]), int(src.Pix[off+2])
					var sr, sg, sb, sw float64
					for dy := -radius; dy <= radius; dy++ {
						ny := y + dy
						if ny < 0 || ny >= h {
							continue
						}
						for dx := -radius; dx <= radius; dx++ {
							nx := x + dx
							if nx < 0 || nx >= w {
								continue
							}
							noff := (ny*w + nx) * 4
							if src.Pix[noff+3] == 0 {
								continue
							}
							nr, ng, nb := int(src.Pix[noff]), int(src.Pix[noff+1]), int(src.Pix[noff+2])
							d2 := (nr-cr)*(nr-cr) + (ng-cg)*(ng-cg) + (nb-cb)*(nb-cb)
							wt := spaceW[(dy+radius)*side+dx+radius] * colorW[d2]
							sr += wt * float64(nr)
							sg += wt * float64(ng)
							sb += wt * float64(nb)
							sw += wt
						}
					}
					if sw > 0 {
						out.Pix[off] = clampByte(sr / sw)
						out.Pix[off+1] = clampByte(sg / sw)
						out.Pix[off+2] = clampByte(sb / sw)
					}
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
