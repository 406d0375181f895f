package inksep

import (
	"fmt"
	"image"
	"image/color"
)

// PixelBuffer is a row-major, non-premultiplied RGBA raster with 4 bytes per pixel.
//
// On a source image the alpha channel marks artwork pixels. On a channel buffer it is the
// ink coverage (0 = no ink, 255 = full ink) and RGB is black unless tinted for display.
type PixelBuffer struct {
	Width, Height int
	Pix           []uint8
}

func NewPixelBuffer(w, h int) *PixelBuffer {
	w = max(w, 0)
	h = max(h, 0)
	return &PixelBuffer{Width: w, Height: h, Pix: make([]uint8, w*h*4)}
}

// NewFilledBuffer returns a w×h buffer where every pixel is c.
func NewFilledBuffer(w, h int, c color.NRGBA) *PixelBuffer {
	b := NewPixelBuffer(w, h)
	for i := 0; i < len(b.Pix); i += 4 {
		b.Pix[i] = c.R
		b.Pix[i+1] = c.G
		b.Pix[i+2] = c.B
		b.Pix[i+3] = c.A
	}
	return b
}

// FromImage copies any image into a new buffer, converting through the NRGBA model.
func FromImage(img image.Image) *PixelBuffer {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	b := NewPixelBuffer(w, h)
	if src, ok := img.(*image.NRGBA); ok {
		for y := range h {
			start := src.PixOffset(bounds.Min.X, bounds.Min.Y+y)
			copy(b.Pix[y*w*4:(y+1)*w*4], src.Pix[start:start+w*4])
		}
		return b
	}
	for y := range h {
		for x := range w {
			c := color.NRGBAModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
			off := b.offset(x, y)
			b.Pix[off] = c.R
			b.Pix[off+1] = c.G
			b.Pix[off+2] = c.B
			b.Pix[off+3] = c.A
		}
	}
	return b
}

// NRGBA returns an image view sharing the buffer memory.
func (b *PixelBuffer) NRGBA() *image.NRGBA {
	return &image.NRGBA{
		Pix:    b.Pix,
		Stride: b.Width * 4,
		Rect:   image.Rect(0, 0, b.Width, b.Height),
	}
}

func (b *PixelBuffer) Clone() *PixelBuffer {
	out := &PixelBuffer{Width: b.Width, Height: b.Height, Pix: make([]uint8, len(b.Pix))}
	copy(out.Pix, b.Pix)
	return out
}

func (b *PixelBuffer) Len() int {
	return b.Width * b.Height
}

func (b *PixelBuffer) Empty() bool {
	return b == nil || b.Width <= 0 || b.Height <= 0
}

func (b *PixelBuffer) At(x, y int) color.NRGBA {
	off := b.offset(x, y)
	return color.NRGBA{R: b.Pix[off], G: b.Pix[off+1], B: b.Pix[off+2], A: b.Pix[off+3]}
}

// Alpha returns the alpha byte of pixel i in row-major order.
func (b *PixelBuffer) Alpha(i int) uint8 {
	return b.Pix[i*4+3]
}

func (b *PixelBuffer) SameSize(o *PixelBuffer) bool {
	return b.Width == o.Width && b.Height == o.Height
}

func (b *PixelBuffer) validate() error {
	if b == nil {
		return fmt.Errorf("%w: nil pixel buffer", ErrInvalidInput)
	}
	if b.Width < 0 || b.Height < 0 {
		return fmt.Errorf("%w: negative buffer size %dx%d", ErrInvalidInput, b.Width, b.Height)
	}
	if len(b.Pix) != b.Width*b.Height*4 {
		return fmt.Errorf("%w: buffer %dx%d has %d bytes, want %d",
			ErrInvalidInput, b.Width, b.Height, len(b.Pix), b.Width*b.Height*4)
	}
	return nil
}

func (b *PixelBuffer) offset(x, y int) int {
	return (y*b.Width + x) * 4
}

// coverageMask builds a channel buffer (black RGB) from per-pixel coverage values.
func coverageMask(w, h int, cov []uint8) *PixelBuffer {
	b := NewPixelBuffer(w, h)
	for i, a := range cov {
		b.Pix[i*4+3] = a
	}
	return b
}

// coverageGray extracts the alpha plane as a gray image.
func coverageGray(b *PixelBuffer) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, b.Width, b.Height))
	for i := range b.Len() {
		g.Pix[i] = b.Pix[i*4+3]
	}
	return g
}

func grayToCoverage(g *image.Gray) *PixelBuffer {
	w, h := g.Rect.Dx(), g.Rect.Dy()
	b := NewPixelBuffer(w, h)
	for y := range h {
		row := g.PixOffset(g.Rect.Min.X, g.Rect.Min.Y+y)
		for x := range w {
			b.Pix[(y*w+x)*4+3] = g.Pix[row+x]
		}
	}
	return b
}

func clampUnit(v float64) float64 {
	if v < 0 || v != v {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func unitToByte(v float64) uint8 {
	return uint8(clampUnit(v)*255 + 0.5)
}

func clampByte(v float64) uint8 {
	if v <= 0 || v != v {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}
