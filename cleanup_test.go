package inksep

import (
	"errors"
	"testing"
)

// squareChannel has a solid size×size block of ink starting at (x0, y0).
func squareChannel(w, h, x0, y0, size int) Channel {
	cov := make([]uint8, w*h)
	for y := y0; y < y0+size; y++ {
		for x := x0; x < x0+size; x++ {
			cov[y*w+x] = 255
		}
	}
	return Channel{ID: "sq", Entry: NewPaletteEntry("sq", RGB{200, 0, 0}), Coverage: coverageMask(w, h, cov), Visible: true}
}

func covAt(ch Channel, x, y int) uint8 {
	return ch.Coverage.Alpha(y*ch.Coverage.Width + x)
}

func TestMorphKernel(t *testing.T) {
	tests := []struct {
		strength, inked, want int
	}{
		{0, 1000000, 1},
		{1, 100, 1},
		{1, 250000, 3},
		{10, 3600, 3},
		{10, 100000000, maxCleanupKernel},
	}
	for _, tt := range tests {
		if got := morphKernel(tt.strength, tt.inked); got != tt.want {
			t.Errorf("morphKernel(%d, %d) = %d, want %d", tt.strength, tt.inked, got, tt.want)
		}
	}
}

func TestCleanupMinCoverage(t *testing.T) {
	e := newTestEngine(1)
	ch := squareChannel(10, 10, 0, 0, 1)
	cfg := rawConfig(ModeVector)
	cfg.MinCoverage = 5
	if _, keep, err := e.Cleanup(ch, cfg); err != nil || keep {
		t.Errorf("Cleanup() keep=%v err=%v, want dropped", keep, err)
	}
	cfg.MinCoverage = 0.5
	if _, keep, err := e.Cleanup(ch, cfg); err != nil || !keep {
		t.Errorf("Cleanup() keep=%v err=%v, want kept", keep, err)
	}
}

func TestCleanupRemovesSpecksAndPinholes(t *testing.T) {
	e := newTestEngine(1)
	ch := squareChannel(100, 100, 20, 20, 60)
	ch.Coverage.Pix[(90*100+90)*4+3] = 255 // speck
	ch.Coverage.Pix[(50*100+50)*4+3] = 0   // pinhole

	cfg := rawConfig(ModeVector)
	cfg.CleanupStrength = 10
	out, keep, err := e.Cleanup(ch, cfg)
	if err != nil || !keep {
		t.Fatalf("Cleanup() keep=%v err=%v", keep, err)
	}
	if v := covAt(out, 90, 90); v != 0 {
		t.Errorf("speck survived with coverage %d", v)
	}
	if v := covAt(out, 50, 50); v != 255 {
		t.Errorf("pinhole not filled, coverage %d", v)
	}
	if v := covAt(out, 40, 40); v != 255 {
		t.Errorf("interior coverage %d, want 255", v)
	}
	if v := covAt(out, 5, 5); v != 0 {
		t.Errorf("background coverage %d, want 0", v)
	}
	if !out.Coverage.SameSize(ch.Coverage) {
		t.Errorf("size changed to %dx%d", out.Coverage.Width, out.Coverage.Height)
	}
}

func TestCleanupVectorAntiAlias(t *testing.T) {
	e := newTestEngine(1)
	ch := squareChannel(40, 40, 10, 10, 20)
	cfg := rawConfig(ModeVector)
	cfg.VectorAntiAlias = true
	out, _, err := e.Cleanup(ch, cfg)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range coverage(out) {
		if v != 0 && v != 255 {
			t.Fatalf("pixel %d: anti-aliased vector mask is not binary (%d)", i, v)
		}
	}
	if covAt(out, 20, 20) != 255 || covAt(out, 2, 2) != 0 {
		t.Errorf("interior=%d exterior=%d", covAt(out, 20, 20), covAt(out, 2, 2))
	}
}

func TestCleanupSmoothEdges(t *testing.T) {
	e := newTestEngine(1)
	ch := squareChannel(40, 40, 10, 10, 20)
	cfg := rawConfig(ModeRaster)
	cfg.SmoothEdges = 2
	out, _, err := e.Cleanup(ch, cfg)
	if err != nil {
		t.Fatal(err)
	}
	soft := 0
	for _, v := range coverage(out) {
		if v != 0 && v != 255 {
			soft++
		}
	}
	if soft == 0 {
		t.Errorf("smoothing left a hard edge")
	}
	if covAt(out, 20, 20) < 250 {
		t.Errorf("interior coverage %d, want solid", covAt(out, 20, 20))
	}
}

func TestCleanupInvalid(t *testing.T) {
	e := newTestEngine(1)
	cfg := DefaultConfig()
	cfg.SmoothEdges = 9
	if _, _, err := e.Cleanup(squareChannel(4, 4, 0, 0, 2), cfg); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("error = %v, want ErrInvalidConfig", err)
	}
	bad := Channel{ID: "x", Coverage: &PixelBuffer{Width: 2, Height: 2}}
	if _, _, err := e.Cleanup(bad, DefaultConfig()); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("error = %v, want ErrInvalidInput", err)
	}
}
