package inksep

import (
	"errors"
	"image/color"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func fullChannel(id string, w, h int, c RGB) Channel {
	ch := channelFrom(w, h, func(x, y int) uint8 { return 255 })
	ch.ID = id
	ch.Entry = NewPaletteEntry(id, c)
	return ch
}

func TestCompositeEmptyIsWhite(t *testing.T) {
	e := newTestEngine(1)
	got, err := e.Composite(nil, 3, 2, 0.9)
	if err != nil {
		t.Fatal(err)
	}
	want := NewFilledBuffer(3, 2, color.NRGBA{255, 255, 255, 255})
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("composite mismatch (-want +got):\n%s", diff)
	}
}

func TestCompositeLastWriterWins(t *testing.T) {
	e := newTestEngine(1)
	chs := []Channel{fullChannel("red", 2, 2, RGB{255, 0, 0}), fullChannel("blue", 2, 2, RGB{0, 0, 255})}
	got, err := e.Composite(chs, 2, 2, 1)
	if err != nil {
		t.Fatal(err)
	}
	want := NewFilledBuffer(2, 2, color.NRGBA{0, 0, 255, 255})
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("composite mismatch (-want +got):\n%s", diff)
	}
}

func TestCompositeOpacityAndVisibility(t *testing.T) {
	e := newTestEngine(1)
	black := fullChannel("k", 1, 1, RGB{0, 0, 0})
	got, err := e.Composite([]Channel{black}, 1, 1, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if c := got.At(0, 0); c != (color.NRGBA{128, 128, 128, 255}) {
		t.Errorf("half opacity black over white = %v", c)
	}

	black.Visible = false
	got, err = e.Composite([]Channel{black}, 1, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if c := got.At(0, 0); c != (color.NRGBA{255, 255, 255, 255}) {
		t.Errorf("hidden channel was composited: %v", c)
	}
}

func TestCompositeOnto(t *testing.T) {
	e := newTestEngine(1)
	shirt := RGB{20, 30, 40}
	ink := channelFrom(2, 1, func(x, y int) uint8 { return uint8(x * 255) })
	ink.Entry = NewPaletteEntry("w", RGB{250, 250, 250})
	got, err := e.CompositeOnto([]Channel{ink}, 2, 1, 1, shirt)
	if err != nil {
		t.Fatal(err)
	}
	if c := got.At(0, 0); c != (color.NRGBA{20, 30, 40, 255}) {
		t.Errorf("uninked pixel = %v, want the shirt color", c)
	}
	if c := got.At(1, 0); c != (color.NRGBA{250, 250, 250, 255}) {
		t.Errorf("inked pixel = %v, want the ink color", c)
	}
}

func TestCompositeInvalid(t *testing.T) {
	e := newTestEngine(1)
	if _, err := e.Composite(nil, 2, 2, 1.5); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("opacity 1.5: error = %v, want ErrInvalidConfig", err)
	}
	chs := []Channel{fullChannel("r", 3, 3, RGB{255, 0, 0})}
	if _, err := e.Composite(chs, 2, 2, 1); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("size mismatch: error = %v, want ErrInvalidInput", err)
	}
}
