package inksep

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFromImage(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 4, 3))
	src.SetNRGBA(2, 1, color.NRGBA{10, 20, 30, 40})
	src.SetNRGBA(3, 2, color.NRGBA{200, 0, 100, 255})

	// Sub-images keep their own origin.
	sub := src.SubImage(image.Rect(2, 1, 4, 3)).(*image.NRGBA)
	got := FromImage(sub)
	want := &PixelBuffer{Width: 2, Height: 2, Pix: []uint8{
		10, 20, 30, 40, 0, 0, 0, 0,
		0, 0, 0, 0, 200, 0, 100, 255,
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FromImage mismatch (-want +got):\n%s", diff)
	}

	gray := image.NewGray(image.Rect(0, 0, 1, 1))
	gray.Pix[0] = 77
	if c := FromImage(gray).At(0, 0); c != (color.NRGBA{77, 77, 77, 255}) {
		t.Errorf("gray pixel = %v", c)
	}
}

func TestPixelBufferViewsShareMemory(t *testing.T) {
	b := NewPixelBuffer(2, 2)
	b.NRGBA().SetNRGBA(1, 1, color.NRGBA{1, 2, 3, 4})
	if c := b.At(1, 1); c != (color.NRGBA{1, 2, 3, 4}) {
		t.Errorf("At(1,1) = %v", c)
	}
	if b.Alpha(3) != 4 {
		t.Errorf("Alpha(3) = %d", b.Alpha(3))
	}
	c := b.Clone()
	c.Pix[0] = 9
	if b.Pix[0] == 9 {
		t.Errorf("Clone shares memory")
	}
}

func TestPixelBufferValidate(t *testing.T) {
	var nilBuf *PixelBuffer
	for _, b := range []*PixelBuffer{
		nilBuf,
		{Width: -1, Height: 1},
		{Width: 2, Height: 2, Pix: make([]uint8, 15)},
	} {
		if err := b.validate(); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("validate(%+v) = %v, want ErrInvalidInput", b, err)
		}
	}
	if err := NewPixelBuffer(0, 0).validate(); err != nil {
		t.Errorf("empty buffer: %v", err)
	}
}

func TestChannelViews(t *testing.T) {
	ch := channelFrom(2, 1, func(x, y int) uint8 { return []uint8{0, 200}[x] })
	ch.Entry = NewPaletteEntry("c", RGB{10, 20, 30})

	if diff := cmp.Diff([]uint8{255, 55}, ch.FilmPositive().Pix); diff != "" {
		t.Errorf("film positive mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]uint8{10, 20, 30, 0, 10, 20, 30, 200}, ch.Tinted().Pix); diff != "" {
		t.Errorf("tinted mismatch (-want +got):\n%s", diff)
	}
	if f := ch.InkedFraction(); f != 0.5 {
		t.Errorf("InkedFraction() = %v, want 0.5", f)
	}
}
