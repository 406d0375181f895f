package inksep

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/gift"
)

const (
	// sqrt(inked pixels) that makes strength 1 use a 3px kernel.
	cleanupAreaScale = 1000.0
	maxCleanupKernel = 51
)

// Cleanup post-processes one channel. It reports false when the channel covers less
// than cfg.MinCoverage percent of the image and should be dropped. Otherwise it runs,
// in order: morphological opening then closing, Gaussian edge smoothing and, in vector
// mode, the anti-alias blur and re-threshold.
func (e *Engine) Cleanup(ch Channel, cfg SeparationConfig) (Channel, bool, error) {
	if err := cfg.Validate(); err != nil {
		return ch, false, err
	}
	if err := ch.Coverage.validate(); err != nil {
		return ch, false, err
	}
	if ch.Coverage.Empty() {
		return ch, cfg.MinCoverage <= 0, nil
	}

	if ch.InkedFraction()*100 < cfg.MinCoverage {
		return ch, false, nil
	}

	mask := ch.Gray()
	if cfg.CleanupStrength > 0 {
		k := morphKernel(cfg.CleanupStrength, inkedCount(ch.Coverage, minInk))
		if k >= 3 {
			mask = applyGift(mask, gift.New(
				gift.Minimum(k, true), gift.Maximum(k, true), // open: drop specks
				gift.Maximum(k, true), gift.Minimum(k, true), // close: fill pinholes
			))
		}
	}
	if cfg.SmoothEdges > 0 {
		mask = applyGift(mask, gift.New(gift.GaussianBlur(float32(cfg.SmoothEdges)*0.5)))
	}
	if cfg.Mode == ModeVector && cfg.VectorAntiAlias && cfg.VectorAASigma > 0 {
		mask = applyGift(mask, gift.New(gift.GaussianBlur(float32(cfg.VectorAASigma))))
		threshold(mask, cfg.VectorAAThreshold)
	}

	out := ch
	out.Coverage = grayToCoverage(mask)
	if !out.Coverage.SameSize(ch.Coverage) {
		return ch, false, internalf("cleanup changed mask size from %dx%d to %dx%d",
			ch.Coverage.Width, ch.Coverage.Height, out.Coverage.Width, out.Coverage.Height)
	}
	return out, true, nil
}

// morphKernel scales the structuring element with strength and the channel's inked
// area, so cleanup is relative to the artwork rather than a fixed pixel count.
func morphKernel(strength, inked int) int {
	r := math.Round(float64(strength) * math.Sqrt(float64(inked)) / cleanupAreaScale)
	return min(1+2*int(r), maxCleanupKernel)
}

func applyGift(src *image.Gray, g *gift.GIFT) *image.Gray {
	dst := image.NewGray(g.Bounds(src.Bounds()))
	g.Draw(dst, src)
	return dst
}

// threshold hard-binarises mask: values above t become full ink.
func threshold(mask *image.Gray, t uint8) {
	for i, v := range mask.Pix {
		if v > t {
			mask.Pix[i] = 255
		} else {
			mask.Pix[i] = 0
		}
	}
}

// morph dilates mask by a disk of the given radius, or erodes it when erode is set.
func morph(mask *image.Gray, radius int, erode bool) *image.Gray {
	if radius <= 0 {
		return mask
	}
	k := 2*radius + 1
	if erode {
		return applyGift(mask, gift.New(gift.Minimum(k, true)))
	}
	return applyGift(mask, gift.New(gift.Maximum(k, true)))
}

func checkSameSize(w, h int, b *PixelBuffer, what string) error {
	if b.Width != w || b.Height != h {
		return fmt.Errorf("%w: %s is %dx%d, want %dx%d", ErrInvalidInput, what, b.Width, b.Height, w, h)
	}
	return nil
}
