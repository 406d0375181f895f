package inksep

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/makeworld-the-better-one/dither/v2"
	"go.uber.org/zap"
)

const (
	// Coverage above solidCutoff always prints and below clearCutoff never does, so
	// solids and paper stay free of screen and dither noise.
	solidCutoff = 0.85
	clearCutoff = 0.05
	minPeriod   = 2.0
)

// Halftone turns the channel's soft coverage into a printable 0/255 mask using the AM
// dot screen or FM error diffusion selected in cfg.Halftone. The result is
// deterministic for a given mask and config.
func (e *Engine) Halftone(ch Channel, cfg SeparationConfig) (Channel, error) {
	if err := cfg.Validate(); err != nil {
		return ch, fmt.Errorf("halftone: %w", err)
	}
	if err := ch.Coverage.validate(); err != nil {
		return ch, fmt.Errorf("halftone: %w", err)
	}
	w, h := ch.Coverage.Width, ch.Coverage.Height
	cov := make([]uint8, w*h)
	for i := range cov {
		cov[i] = ch.Coverage.Alpha(i)
	}

	var bits []uint8
	switch cfg.Halftone.Type {
	case HalftoneFM:
		bits = fmScreen(cov, w, h)
	default:
		bits = amScreen(cov, w, h, cfg.OutputDPI/cfg.Halftone.LPI, cfg.Halftone.Angle)
	}
	bits = despeckle(bits, w, h)

	e.log.Debug("halftone applied",
		zap.String("id", ch.ID),
		zap.Stringer("type", cfg.Halftone.Type),
		zap.Float64("lpi", cfg.Halftone.LPI),
		zap.Float64("angle", cfg.Halftone.Angle))

	out := ch
	out.Coverage = coverageMask(w, h, bits)
	return out, nil
}

// amScreen compares coverage against a rotated two-cosine spot function with the given
// period in pixels. A pixel prints when coverage + spot exceeds 1.
func amScreen(cov []uint8, w, h int, period, angle float64) []uint8 {
	period = max(period, minPeriod)
	theta := angle * deg2rad
	cosT, sinT := math.Cos(theta), math.Sin(theta)
	freq := 2 * math.Pi / period

	out := make([]uint8, len(cov))
	for y := range h {
		fy := float64(y) + 0.5
		for x := range w {
			i := y*w + x
			c := float64(cov[i]) / 255.0
			switch {
			case c > solidCutoff:
				out[i] = 255
				continue
			case c < clearCutoff:
				continue
			}
			fx := float64(x) + 0.5
			u := fx*cosT + fy*sinT
			v := -fx*sinT + fy*cosT
			spot := 0.5 + 0.25*(math.Cos(u*freq)+math.Cos(v*freq))
			if c+spot > 1 {
				out[i] = 255
			}
		}
	}
	return out
}

// fmTone maps a coverage byte to the gray level handed to the ditherer. The ditherer
// diffuses error in linear light, so the paper share is encoded back to sRGB to make
// the printed dot density follow coverage.
var fmTone = func() [256]uint8 {
	var lut [256]uint8
	for i := range lut {
		c := float64(i) / 255.0
		switch {
		case c > solidCutoff:
			c = 1
		case c < clearCutoff:
			c = 0
		}
		paper := 1 - c
		v, _, _ := colorful.LinearRgb(paper, paper, paper).Clamped().RGB255()
		lut[i] = v
	}
	return lut
}()

// fmScreen dithers with Floyd-Steinberg in plain raster order (left to right, top to
// bottom, no serpentine), which keeps the output reproducible. Error diffused out of
// mid tones would otherwise speckle neighbouring solids, so those are forced again
// after dithering.
func fmScreen(cov []uint8, w, h int) []uint8 {
	gray := image.NewGray(image.Rect(0, 0, w, h))
	for i, c := range cov {
		gray.Pix[i] = fmTone[c]
	}

	d := dither.NewDitherer([]color.Color{color.Black, color.White})
	d.Matrix = dither.FloydSteinberg
	d.Serpentine = false
	p := d.DitherPaletted(gray)

	out := make([]uint8, len(cov))
	for y := range h {
		for x := range w {
			i := y*w + x
			switch c := float64(cov[i]) / 255.0; {
			case c > solidCutoff:
				out[i] = 255
			case c < clearCutoff:
			default:
				if r, _, _, _ := p.Palette[p.ColorIndexAt(x, y)].RGBA(); r < 0x8000 {
					out[i] = 255
				}
			}
		}
	}
	return out
}

// despeckle clears inked pixels with at most one inked 8-neighbour and fills clear
// pixels with at most one clear 8-neighbour. One- and two-pixel islands and holes are
// not physically printable. Islands are cleared first and holes filled after, each
// until no pixel qualifies, so the result is a fixed point of despeckle.
func despeckle(m []uint8, w, h int) []uint8 {
	out := make([]uint8, len(m))
	copy(out, m)
	sweepSpecks(out, w, h, 255)
	sweepSpecks(out, w, h, 0)
	return out
}

// sweepSpecks flips pixels equal to v that share their value with at most one
// 8-neighbour. A flip only lowers the counts of neighbours holding v, so each flip
// requeues them and the result does not depend on visiting order.
func sweepSpecks(m []uint8, w, h int, v uint8) {
	stack := make([]int, 0, len(m))
	for i := len(m) - 1; i >= 0; i-- {
		if m[i] == v {
			stack = append(stack, i)
		}
	}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if m[i] != v {
			continue
		}
		x, y := i%w, i/w
		neighbours, same := 0, 0
		forNeighbours(x, y, w, h, func(j int) {
			neighbours++
			if m[j] == v {
				same++
			}
		})
		if neighbours < 3 || same > 1 {
			continue
		}
		m[i] = 255 - v
		forNeighbours(x, y, w, h, func(j int) {
			if m[j] == v {
				stack = append(stack, j)
			}
		})
	}
}

func forNeighbours(x, y, w, h int, fn func(j int)) {
	for dy := -1; dy <= 1; dy++ {
		ny := y + dy
		if ny < 0 || ny >= h {
			continue
		}
		for dx := -1; dx <= 1; dx++ {
			nx := x + dx
			if (dx == 0 && dy == 0) || nx < 0 || nx >= w {
				continue
			}
			fn(ny*w + nx)
		}
	}
}
