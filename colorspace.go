package inksep

import (
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

type RGB struct {
	R, G, B uint8
}

// Lab is a CIELAB color under the D65 white point, L in [0,100].
type Lab struct {
	L, A, B float64
}

// Weights are the CIEDE2000 parametric factors for lightness, chroma and hue.
// Values above 1 make the formula less sensitive along that axis.
type Weights struct {
	KL, KC, KH float64
}

func DefaultWeights() Weights {
	return Weights{KL: 1, KC: 1, KH: 1}
}

// ParseHex accepts "#rrggbb", "rrggbb" and the short "#rgb" form.
func ParseHex(s string) (RGB, error) {
	if len(s) > 0 && s[0] != '#' {
		s = "#" + s
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return RGB{}, fmt.Errorf("%w: color %q: %v", ErrInvalidInput, s, err)
	}
	r, g, b := c.Clamped().RGB255()
	return RGB{r, g, b}, nil
}

func (c RGB) Hex() string {
	return c.colorful().Hex()
}

func (c RGB) colorful() colorful.Color {
	return colorful.Color{R: float64(c.R) / 255.0, G: float64(c.G) / 255.0, B: float64(c.B) / 255.0}
}

func RGBToLab(c RGB) Lab {
	l, a, b := c.colorful().Lab()
	return Lab{L: l * 100, A: a * 100, B: b * 100}
}

func LabToRGB(c Lab) RGB {
	r, g, b := colorful.Lab(c.L/100, c.A/100, c.B/100).Clamped().RGB255()
	return RGB{r, g, b}
}

// Distance measures the perceptual difference between two sRGB colors.
// All methods share a common scale where 100 is roughly black against white.
func Distance(a, b RGB, method DistanceMethod, w Weights) float64 {
	pa, pb := newColorPoint(a), newColorPoint(b)
	return metric{method: method, w: w}.between(&pa, &pb)
}

// DistanceLab is Distance for colors already in CIELAB.
func DistanceLab(a, b Lab, method DistanceMethod, w Weights) float64 {
	pa, pb := labPoint(a), labPoint(b)
	return metric{method: method, w: w}.between(&pa, &pb)
}

// colorPoint carries both representations so every method can be evaluated without
// converting inside the per-pixel loop.
type colorPoint struct {
	r, g, b float64
	lab     Lab
}

func newColorPoint(c RGB) colorPoint {
	return colorPoint{r: float64(c.R), g: float64(c.G), b: float64(c.B), lab: RGBToLab(c)}
}

func labPoint(l Lab) colorPoint {
	c := LabToRGB(l)
	return colorPoint{r: float64(c.R), g: float64(c.G), b: float64(c.B), lab: l}
}

// rgbScale maps Euclidean RGB distance (max 255·√3) onto the 0-100 range.
var rgbScale = 100.0 / (255.0 * math.Sqrt(3))

type metric struct {
	method DistanceMethod
	w      Weights
}

func (m metric) between(a, b *colorPoint) float64 {
	switch m.method {
	case MethodEuclideanLab:
		dL := a.lab.L - b.lab.L
		dA := a.lab.A - b.lab.A
		dB := a.lab.B - b.lab.B
		return math.Sqrt(dL*dL + dA*dA + dB*dB)
	case MethodEuclideanRGB:
		dr := a.r - b.r
		dg := a.g - b.g
		db := a.b - b.b
		return math.Sqrt(dr*dr+dg*dg+db*db) * rgbScale
	default:
		return ciede2000(a.lab, b.lab, m.w)
	}
}

const (
	pow25to7    = 6103515625.0 // 25^7
	chromaEps   = 1e-9
	deg2rad     = math.Pi / 180
	rad2deg     = 180 / math.Pi
	fullCircle  = 360.0
	halfCircle  = 180.0
	hueRotation = 275.0
)

// ciede2000 follows Sharma, Wu & Dalal (2005). Hue terms are dropped when either
// color is achromatic, where the hue angle is undefined.
func ciede2000(c1, c2 Lab, w Weights) float64 {
	kl, kc, kh := w.KL, w.KC, w.KH
	if kl <= 0 {
		kl = 1
	}
	if kc <= 0 {
		kc = 1
	}
	if kh <= 0 {
		kh = 1
	}

	cab1 := math.Hypot(c1.A, c1.B)
	cab2 := math.Hypot(c2.A, c2.B)
	cabMean := (cab1 + cab2) / 2
	cm7 := math.Pow(cabMean, 7)
	g := 0.5 * (1 - math.Sqrt(cm7/(cm7+pow25to7)))

	ap1 := (1 + g) * c1.A
	ap2 := (1 + g) * c2.A
	cp1 := math.Hypot(ap1, c1.B)
	cp2 := math.Hypot(ap2, c2.B)
	hp1 := hueAngle(c1.B, ap1, cp1)
	hp2 := hueAngle(c2.B, ap2, cp2)

	dLp := c2.L - c1.L
	dCp := cp2 - cp1

	chromatic := cp1 > chromaEps && cp2 > chromaEps
	dhp := 0.0
	if chromatic {
		dhp = hp2 - hp1
		if dhp > halfCircle {
			dhp -= fullCircle
		} else if dhp < -halfCircle {
			dhp += fullCircle
		}
	}
	dHp := 2 * math.Sqrt(cp1*cp2) * math.Sin(dhp/2*deg2rad)

	lpMean := (c1.L + c2.L) / 2
	cpMean := (cp1 + cp2) / 2
	hpMean := hp1 + hp2
	if chromatic {
		if math.Abs(hp1-hp2) <= halfCircle {
			hpMean /= 2
		} else if hpMean < fullCircle {
			hpMean = (hpMean + fullCircle) / 2
		} else {
			hpMean = (hpMean - fullCircle) / 2
		}
	}

	t := 1 -
		0.17*math.Cos((hpMean-30)*deg2rad) +
		0.24*math.Cos(2*hpMean*deg2rad) +
		0.32*math.Cos((3*hpMean+6)*deg2rad) -
		0.20*math.Cos((4*hpMean-63)*deg2rad)
	dTheta := 30 * math.Exp(-((hpMean-hueRotation)/25)*((hpMean-hueRotation)/25))
	cpm7 := math.Pow(cpMean, 7)
	rc := 2 * math.Sqrt(cpm7/(cpm7+pow25to7))
	l50 := (lpMean - 50) * (lpMean - 50)
	sl := 1 + 0.015*l50/math.Sqrt(20+l50)
	sc := 1 + 0.045*cpMean
	sh := 1 + 0.015*cpMean*t
	rt := -math.Sin(2*dTheta*deg2rad) * rc

	fl := dLp / (kl * sl)
	fc := dCp / (kc * sc)
	fh := dHp / (kh * sh)
	return math.Sqrt(max(0, fl*fl+fc*fc+fh*fh+rt*fc*fh))
}

func hueAngle(b, ap, cp float64) float64 {
	if cp <= chromaEps {
		return 0
	}
	h := math.Atan2(b, ap) * rad2deg
	if h < 0 {
		h += fullCircle
	}
	return h
}
