package inksep

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestMergeCoverageNoSources(t *testing.T) {
	src := gradientImage(7, 5)
	got, err := MergeCoverage(src)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(src, got); diff != "" {
		t.Errorf("merge with nothing changed the buffer (-want +got):\n%s", diff)
	}
	if &got.Pix[0] == &src.Pix[0] {
		t.Errorf("merge returned the input slice")
	}
}

func TestMergeCoverageClamps(t *testing.T) {
	a := channelFrom(3, 1, func(x, y int) uint8 { return []uint8{100, 200, 0}[x] })
	b := channelFrom(3, 1, func(x, y int) uint8 { return []uint8{100, 100, 0}[x] })
	got, err := MergeChannels(a, b)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]uint8{200, 255, 0}, coverage(got)); diff != "" {
		t.Errorf("merged coverage mismatch (-want +got):\n%s", diff)
	}
	if got.ID != a.ID || got.Entry != a.Entry {
		t.Errorf("merge changed the target ink: %+v", got.Entry)
	}

	c := channelFrom(2, 1, func(x, y int) uint8 { return 1 })
	if _, err := MergeChannels(a, c); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("size mismatch: error = %v, want ErrInvalidInput", err)
	}
}

func TestCoverageAsGrayscaleSource(t *testing.T) {
	ch := channelFrom(3, 1, func(x, y int) uint8 { return []uint8{0, 100, 255}[x] })
	got, err := CoverageAsGrayscaleSource(ch)
	if err != nil {
		t.Fatal(err)
	}
	want := []uint8{
		255, 255, 255, 0,
		155, 155, 155, 255,
		0, 0, 0, 255,
	}
	if diff := cmp.Diff(want, got.Pix); diff != "" {
		t.Errorf("grayscale source mismatch (-want +got):\n%s", diff)
	}
}

func TestChop(t *testing.T) {
	e := newTestEngine(5)
	// Light and heavy ink side by side inside a clear border.
	parent := channelFrom(30, 20, func(x, y int) uint8 {
		switch {
		case y < 2 || y >= 18 || x < 2 || x >= 28:
			return 0
		case x < 15:
			return 90
		}
		return 240
	})
	parent.ID = "red"

	cfg := rawConfig(ModeVector)
	parts, err := e.Chop(context.Background(), parent, 2, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(parts) != 2 {
		t.Fatalf("got %d parts, want 2", len(parts))
	}
	for i, p := range parts {
		if want := fmt.Sprintf("red-%d", i); p.ID != want {
			t.Errorf("part %d id = %q, want %q", i, p.ID, want)
		}
		for j := range p.Coverage.Len() {
			if p.Coverage.Alpha(j) != 0 && parent.Coverage.Alpha(j) == 0 {
				t.Fatalf("part %s inks pixel %d outside its parent", p.ID, j)
			}
		}
	}
	// Every inked parent pixel lands in exactly one part.
	for j := range parent.Coverage.Len() {
		if parent.Coverage.Alpha(j) == 0 {
			continue
		}
		sum := int(parts[0].Coverage.Alpha(j)) + int(parts[1].Coverage.Alpha(j))
		if sum != 255 {
			t.Fatalf("pixel %d: parts cover %d, want 255", j, sum)
		}
	}
}

func TestRecolor(t *testing.T) {
	ch := fullChannel("a", 2, 2, RGB{1, 2, 3})
	ch.Entry = ch.Entry.WithOverrides(ChannelOverrides{GradientMin: 1, GradientMax: 9, Gamma: 2})
	got, err := Recolor(ch, "#00ff80")
	if err != nil {
		t.Fatal(err)
	}
	if got.Entry.RGB != (RGB{0, 255, 128}) || got.Entry.Hex != "#00ff80" {
		t.Errorf("entry = %+v", got.Entry)
	}
	if got.Entry.Overrides != ch.Entry.Overrides || got.Coverage != ch.Coverage || got.ID != "a" {
		t.Errorf("recolor changed more than the color")
	}
	if _, err := Recolor(ch, "nope"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("bad hex: error = %v, want ErrInvalidInput", err)
	}
}

func TestUnderbase(t *testing.T) {
	e := newTestEngine(1)
	a := squareChannel(30, 30, 2, 2, 12)
	b := squareChannel(30, 30, 12, 12, 14)
	hidden := squareChannel(30, 30, 0, 0, 30)
	hidden.Visible = false

	ub, err := e.Underbase([]Channel{a, b, hidden}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if ub.Entry.RGB != UnderbaseColor || ub.Entry.Hex != "#e6e6e6" {
		t.Errorf("underbase ink = %+v", ub.Entry)
	}
	for i := range ub.Coverage.Len() {
		v := ub.Coverage.Alpha(i)
		if v != 0 && a.Coverage.Alpha(i) == 0 && b.Coverage.Alpha(i) == 0 {
			t.Fatalf("underbase pixel %d lies outside the visible inks", i)
		}
	}
	if covAt(ub, 8, 8) != 255 {
		t.Errorf("underbase missing under the middle of a shape")
	}
	if covAt(ub, 2, 2) != 0 {
		t.Errorf("underbase not choked at the shape corner")
	}

	if _, err := e.Underbase([]Channel{a}, -1); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("negative choke: error = %v, want ErrInvalidConfig", err)
	}
	if _, err := e.Underbase(nil, 1); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("no channels: error = %v, want ErrInvalidInput", err)
	}
}
