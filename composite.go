package inksep

import (
	"fmt"
	"math"
)

var paperWhite = RGB{255, 255, 255}

// Composite previews the print: channels are laid down in order over white paper.
func (e *Engine) Composite(channels []Channel, w, h int, opacity float64) (*PixelBuffer, error) {
	return e.CompositeOnto(channels, w, h, opacity, paperWhite)
}

// CompositeOnto is Composite over a garment color instead of white.
func (e *Engine) CompositeOnto(channels []Channel, w, h int, opacity float64, substrate RGB) (*PixelBuffer, error) {
	if math.IsNaN(opacity) || opacity < 0 || opacity > 1 {
		return nil, configErrorf("inkOpacity", "must be within [0,1], got %v", opacity)
	}
	if w < 0 || h < 0 {
		return nil, fmt.Errorf("%w: negative composite size %dx%d", ErrInvalidInput, w, h)
	}

	layers := make([]Channel, 0, len(channels))
	for _, ch := range channels {
		if err := ch.Coverage.validate(); err != nil {
			return nil, fmt.Errorf("channel %s: %w", ch.ID, err)
		}
		if err := checkSameSize(w, h, ch.Coverage, "channel "+ch.ID); err != nil {
			return nil, err
		}
		if !ch.Visible || !hasInk(ch.Coverage) {
			continue
		}
		layers = append(layers, ch)
	}

	out := NewFilledBuffer(w, h, substrate.nrgba())
	if len(layers) == 0 || opacity == 0 {
		return out, nil
	}
	for i := range w * h {
		// Start from the opaque substrate and blend inks bottom -> top, channel order.
		outR := float64(substrate.R)
		outG := float64(substrate.G)
		outB := float64(substrate.B)
		for _, ch := range layers {
			cov := ch.Coverage.Alpha(i)
			if cov == 0 {
				continue
			}
			a := float64(cov) / 255.0 * opacity
			oneMinusA := 1 - a
			ink := ch.Entry.RGB
			outR = a*float64(ink.R) + oneMinusA*outR
			outG = a*float64(ink.G) + oneMinusA*outG
			outB = a*float64(ink.B) + oneMinusA*outB
		}
		off := i * 4
		out.Pix[off] = clampByte(outR)
		out.Pix[off+1] = clampByte(outG)
		out.Pix[off+2] = clampByte(outB)
	}
	return out, nil
}
