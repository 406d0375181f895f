package inksep

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// UnderbaseColor is the white ink printed under colors on dark garments.
var UnderbaseColor = RGB{230, 230, 230}

// MergeCoverage adds the coverage of every source to target, clamped at 255. RGB comes
// from target. With no sources the result is an exact copy of target.
func MergeCoverage(target *PixelBuffer, sources ...*PixelBuffer) (*PixelBuffer, error) {
	if err := target.validate(); err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	out := target.Clone()
	for i, s := range sources {
		if err := s.validate(); err != nil {
			return nil, fmt.Errorf("merge source %d: %w", i, err)
		}
		if err := checkSameSize(target.Width, target.Height, s, fmt.Sprintf("merge source %d", i)); err != nil {
			return nil, err
		}
		for p := 3; p < len(out.Pix); p += 4 {
			out.Pix[p] = uint8(min(int(out.Pix[p])+int(s.Pix[p]), 255))
		}
	}
	return out, nil
}

// MergeChannels folds sources into target. The result keeps target's id, ink and
// visibility.
func MergeChannels(target Channel, sources ...Channel) (Channel, error) {
	bufs := make([]*PixelBuffer, len(sources))
	for i, s := range sources {
		bufs[i] = s.Coverage
	}
	cov, err := MergeCoverage(target.Coverage, bufs...)
	if err != nil {
		return target, err
	}
	out := target
	out.Coverage = cov
	return out, nil
}

// CoverageAsGrayscaleSource turns a channel into a synthetic source image: heavier ink
// becomes darker gray, and uninked pixels are transparent so they are not re-separated.
func CoverageAsGrayscaleSource(ch Channel) (*PixelBuffer, error) {
	if err := ch.Coverage.validate(); err != nil {
		return nil, err
	}
	b := ch.Coverage
	out := NewPixelBuffer(b.Width, b.Height)
	for i := range b.Len() {
		cov := b.Alpha(i)
		v := 255 - cov
		off := i * 4
		out.Pix[off] = v
		out.Pix[off+1] = v
		out.Pix[off+2] = v
		if cov > 0 {
			out.Pix[off+3] = 255
		}
	}
	return out, nil
}

// Chop splits one channel into up to k sub-channels by tone. Sub-channels are named
// "<parent>-<i>", carry the extracted gray as their ink and never reach outside the
// parent's inked pixels.
func (e *Engine) Chop(ctx context.Context, ch Channel, k int, cfg SeparationConfig) ([]Channel, error) {
	src, err := CoverageAsGrayscaleSource(ch)
	if err != nil {
		return nil, fmt.Errorf("chop %s: %w", ch.ID, err)
	}
	palette, err := e.ExtractPalette(src, k, cfg.SampleSize)
	if err != nil {
		return nil, fmt.Errorf("chop %s: %w", ch.ID, err)
	}
	for i := range palette {
		palette[i].ID = fmt.Sprintf("%s-%d", ch.ID, i)
	}
	parts, err := e.Separate(ctx, src, palette, cfg)
	if err != nil {
		return nil, fmt.Errorf("chop %s: %w", ch.ID, err)
	}
	for _, p := range parts {
		for i := range p.Coverage.Len() {
			if ch.Coverage.Alpha(i) == 0 {
				p.Coverage.Pix[i*4+3] = 0
			}
		}
	}
	e.log.Debug("channel chopped", zap.String("id", ch.ID), zap.Int("k", k), zap.Int("parts", len(parts)))
	return parts, nil
}

// Recolor swaps the channel's ink for hex. Coverage, id and overrides are unchanged.
func Recolor(ch Channel, hex string) (Channel, error) {
	c, err := ParseHex(hex)
	if err != nil {
		return ch, err
	}
	out := ch
	out.Entry.RGB = c
	out.Entry.Hex = c.Hex()
	return out, nil
}

// Underbase builds the white ink printed first on dark garments: the union of all
// visible channels, choked inward by choke pixels so the underbase never peeks out
// from under the colors.
func (e *Engine) Underbase(channels []Channel, choke int) (Channel, error) {
	if choke < 0 {
		return Channel{}, configErrorf("choke", "must be >= 0, got %d", choke)
	}
	if len(channels) == 0 {
		return Channel{}, fmt.Errorf("%w: underbase needs at least one channel", ErrInvalidInput)
	}
	first := channels[0].Coverage
	if err := first.validate(); err != nil {
		return Channel{}, fmt.Errorf("underbase: %w", err)
	}
	w, h := first.Width, first.Height

	union := make([]uint8, w*h)
	used := 0
	for _, ch := range channels {
		if err := ch.Coverage.validate(); err != nil {
			return Channel{}, fmt.Errorf("underbase: %w", err)
		}
		if err := checkSameSize(w, h, ch.Coverage, "channel "+ch.ID); err != nil {
			return Channel{}, err
		}
		if !ch.Visible {
			continue
		}
		used++
		for i := range union {
			union[i] = max(union[i], ch.Coverage.Alpha(i))
		}
	}

	mask := morph(coverageGray(coverageMask(w, h, union)), choke, true)
	entry := NewPaletteEntry("underbase", UnderbaseColor)
	e.log.Debug("underbase built", zap.Int("channels", used), zap.Int("choke", choke))
	return Channel{ID: entry.ID, Entry: entry, Coverage: grayToCoverage(mask), Visible: true}, nil
}
