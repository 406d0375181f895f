package inksep

import (
	"image"
	"image/color"
)

// ChannelOverrides replaces the globally derived raster parameters for one ink.
type ChannelOverrides struct {
	// Distance under which the ink is 100% solid. 0-100.
	GradientMin float64
	// Distance at which the ink fades to 0%. Must exceed GradientMin. 0-200.
	GradientMax float64
	// Per-channel gamma curve. 0.1-3.0 in practice.
	Gamma float64
}

type PaletteEntry struct {
	ID     string
	RGB    RGB
	Hex    string
	Locked bool
	// nil means the entry follows the global raster thresholds and gamma.
	Overrides *ChannelOverrides
}

func NewPaletteEntry(id string, c RGB) PaletteEntry {
	return PaletteEntry{ID: id, RGB: c, Hex: c.Hex()}
}

// PaletteEntryFromHex parses hex and builds an entry with the given id.
func PaletteEntryFromHex(id, hex string) (PaletteEntry, error) {
	c, err := ParseHex(hex)
	if err != nil {
		return PaletteEntry{}, err
	}
	return NewPaletteEntry(id, c), nil
}

func (p PaletteEntry) WithOverrides(o ChannelOverrides) PaletteEntry {
	p.Overrides = &o
	return p
}

// Channel is one ink: its palette entry plus a per-pixel coverage mask in the alpha
// channel of Coverage.
type Channel struct {
	ID       string
	Entry    PaletteEntry
	Coverage *PixelBuffer
	Visible  bool
}

// Gray returns the coverage plane as a gray image (255 = full ink).
func (ch Channel) Gray() *image.Gray {
	return coverageGray(ch.Coverage)
}

// Tinted returns a display copy of the mask colored with the channel ink.
func (ch Channel) Tinted() *image.NRGBA {
	b := ch.Coverage
	out := image.NewNRGBA(image.Rect(0, 0, b.Width, b.Height))
	c := ch.Entry.RGB
	for i := range b.Len() {
		out.Pix[i*4] = c.R
		out.Pix[i*4+1] = c.G
		out.Pix[i*4+2] = c.B
		out.Pix[i*4+3] = b.Pix[i*4+3]
	}
	return out
}

// FilmPositive renders the mask the way plates are exposed: black ink on white film.
func (ch Channel) FilmPositive() *image.Gray {
	g := ch.Gray()
	for i, v := range g.Pix {
		g.Pix[i] = 255 - v
	}
	return g
}

// InkedFraction is the share of pixels whose coverage is at least minInk.
func (ch Channel) InkedFraction() float64 {
	n := ch.Coverage.Len()
	if n == 0 {
		return 0
	}
	return float64(inkedCount(ch.Coverage, minInk)) / float64(n)
}

// minInk is the coverage below which a pixel does not count as printed.
const minInk = 8

func inkedCount(b *PixelBuffer, threshold uint8) int {
	n := 0
	for i := 3; i < len(b.Pix); i += 4 {
		if b.Pix[i] >= threshold {
			n++
		}
	}
	return n
}

func hasInk(b *PixelBuffer) bool {
	for i := 3; i < len(b.Pix); i += 4 {
		if b.Pix[i] != 0 {
			return true
		}
	}
	return false
}

func (c RGB) nrgba() color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: 255}
}
