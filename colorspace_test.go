package inksep

import (
	"errors"
	"math"
	"testing"

	"github.com/lucasb-eyer/go-colorful"
)

func TestCIEDE2000Reference(t *testing.T) {
	// Pairs from Sharma, Wu & Dalal, "The CIEDE2000 Color-Difference Formula".
	tests := []struct {
		a, b Lab
		want float64
	}{
		{Lab{50, 2.6772, -79.7751}, Lab{50, 0, -82.7485}, 2.0425},
		{Lab{50, 3.1571, -77.2803}, Lab{50, 0, -82.7485}, 2.8615},
		{Lab{50, 2.8361, -74.0200}, Lab{50, 0, -82.7485}, 3.4412},
		{Lab{50, 0, 0}, Lab{50, -1, 2}, 2.3669},
		{Lab{50, -1, 2}, Lab{50, 0, 0}, 2.3669},
		{Lab{50, 2.5, 0}, Lab{73, 25, -18}, 27.1492},
		{Lab{50, 2.5, 0}, Lab{61, -5, 29}, 22.8977},
		{Lab{50, 2.5, 0}, Lab{56, -27, -3}, 31.9030},
		{Lab{50, 2.5, 0}, Lab{58, 24, 15}, 19.4535},
	}
	for _, tt := range tests {
		got := ciede2000(tt.a, tt.b, DefaultWeights())
		if math.Abs(got-tt.want) > 1e-4 {
			t.Errorf("ciede2000(%v, %v) = %.4f, want %.4f", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestCIEDE2000MatchesColorful(t *testing.T) {
	pairs := [][2]RGB{
		{{255, 0, 0}, {0, 0, 255}},
		{{200, 30, 40}, {180, 40, 60}},
		{{10, 120, 200}, {240, 200, 20}},
		{{0, 0, 0}, {255, 255, 255}},
		{{90, 200, 90}, {30, 90, 30}},
	}
	for _, p := range pairs {
		got := Distance(p[0], p[1], MethodCIEDE2000, DefaultWeights())
		want := p[0].colorful().DistanceCIEDE2000(p[1].colorful()) * 100
		if math.Abs(got-want) > 0.05 {
			t.Errorf("Distance(%v, %v) = %.4f, go-colorful says %.4f", p[0], p[1], got, want)
		}
	}
}

func TestDistanceProperties(t *testing.T) {
	colors := []RGB{{0, 0, 0}, {255, 255, 255}, {255, 0, 0}, {12, 200, 77}, {128, 128, 128}}
	methods := []DistanceMethod{MethodCIEDE2000, MethodEuclideanLab, MethodEuclideanRGB}
	for _, m := range methods {
		for _, a := range colors {
			if d := Distance(a, a, m, DefaultWeights()); d != 0 {
				t.Errorf("%v: Distance(%v, %v) = %v, want 0", m, a, a, d)
			}
			for _, b := range colors {
				d := Distance(a, b, m, DefaultWeights())
				if d < 0 || math.IsNaN(d) {
					t.Errorf("%v: Distance(%v, %v) = %v", m, a, b, d)
				}
				if r := Distance(b, a, m, DefaultWeights()); math.Abs(r-d) > 1e-9 {
					t.Errorf("%v: asymmetric distance %v vs %v", m, d, r)
				}
			}
		}
	}

	black, white := RGB{0, 0, 0}, RGB{255, 255, 255}
	if d := Distance(black, white, MethodEuclideanRGB, DefaultWeights()); math.Abs(d-100) > 1e-9 {
		t.Errorf("RGB black/white = %v, want 100", d)
	}
	if d := Distance(black, white, MethodEuclideanLab, DefaultWeights()); math.Abs(d-100) > 0.01 {
		t.Errorf("Lab black/white = %v, want 100", d)
	}
}

func TestLightnessWeight(t *testing.T) {
	a, b := Lab{40, 10, 10}, Lab{60, 10, 10}
	base := DistanceLab(a, b, MethodCIEDE2000, DefaultWeights())
	relaxed := DistanceLab(a, b, MethodCIEDE2000, Weights{KL: 2, KC: 1, KH: 1})
	if !(relaxed < base) {
		t.Errorf("kL=2 gave %v, want less than %v", relaxed, base)
	}
}

func TestLabRoundTrip(t *testing.T) {
	for _, c := range []RGB{{0, 0, 0}, {255, 255, 255}, {255, 0, 0}, {3, 140, 250}, {128, 64, 32}} {
		if got := LabToRGB(RGBToLab(c)); got != c {
			t.Errorf("LabToRGB(RGBToLab(%v)) = %v", c, got)
		}
	}
	white := RGBToLab(RGB{255, 255, 255})
	if math.Abs(white.L-100) > 0.01 {
		t.Errorf("white L = %v, want 100", white.L)
	}
	want := colorful.Color{R: 1}
	l, _, _ := want.Lab()
	if got := RGBToLab(RGB{255, 0, 0}).L; math.Abs(got-l*100) > 1e-9 {
		t.Errorf("red L = %v, want %v", got, l*100)
	}
}

func TestParseHex(t *testing.T) {
	tests := []struct {
		in   string
		want RGB
	}{
		{"#ff0000", RGB{255, 0, 0}},
		{"00ff00", RGB{0, 255, 0}},
		{"#00f", RGB{0, 0, 255}},
		{"#E6E6E6", RGB{230, 230, 230}},
	}
	for _, tt := range tests {
		got, err := ParseHex(tt.in)
		if err != nil {
			t.Fatalf("ParseHex(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseHex(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if _, err := ParseHex("#zz0000"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("ParseHex(bad) error = %v, want ErrInvalidInput", err)
	}
	if got := (RGB{255, 0, 16}).Hex(); got != "#ff0010" {
		t.Errorf("Hex() = %q", got)
	}
}
