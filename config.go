package inksep

import (
	"fmt"
	"math"
	"strings"

	"go.uber.org/multierr"
)

type DistanceMethod int

const (
	MethodCIEDE2000 DistanceMethod = iota
	MethodEuclideanLab
	MethodEuclideanRGB
)

func (m DistanceMethod) String() string {
	switch m {
	case MethodEuclideanLab:
		return "euclidean-lab"
	case MethodEuclideanRGB:
		return "euclidean-rgb"
	default:
		return "ciede2000"
	}
}

func ParseDistanceMethod(s string) (DistanceMethod, error) {
	switch strings.ToLower(s) {
	case "ciede2000", "de2000":
		return MethodCIEDE2000, nil
	case "euclidean", "euclidean-lab", "lab":
		return MethodEuclideanLab, nil
	case "euclidean-rgb", "rgb":
		return MethodEuclideanRGB, nil
	default:
		return 0, configErrorf("method", "unknown distance method %q", s)
	}
}

// SeparationMode selects hard (one ink per pixel) or soft (continuous coverage)
// classification.
type SeparationMode int

const (
	ModeVector SeparationMode = iota
	ModeRaster
)

func (m SeparationMode) String() string {
	if m == ModeRaster {
		return "raster"
	}
	return "vector"
}

func ParseSeparationMode(s string) (SeparationMode, error) {
	switch strings.ToLower(s) {
	case "vector", "spot", "hard":
		return ModeVector, nil
	case "raster", "soft":
		return ModeRaster, nil
	default:
		return 0, configErrorf("mode", "unknown separation mode %q", s)
	}
}

type HalftoneType int

const (
	// HalftoneAM is a rotated periodic dot screen.
	HalftoneAM HalftoneType = iota
	// HalftoneFM is error-diffusion dithering.
	HalftoneFM
)

func (t HalftoneType) String() string {
	if t == HalftoneFM {
		return "fm"
	}
	return "am"
}

func ParseHalftoneType(s string) (HalftoneType, error) {
	switch strings.ToLower(s) {
	case "am", "dot", "screen":
		return HalftoneAM, nil
	case "fm", "dither", "stochastic":
		return HalftoneFM, nil
	default:
		return 0, configErrorf("halftone.type", "unknown halftone type %q", s)
	}
}

// Measurement says which output dimension OutputSizeInches refers to.
type Measurement int

const (
	MeasureWidth Measurement = iota
	MeasureHeight
)

func (m Measurement) String() string {
	if m == MeasureHeight {
		return "height"
	}
	return "width"
}

func ParseMeasurement(s string) (Measurement, error) {
	switch strings.ToLower(s) {
	case "width", "w":
		return MeasureWidth, nil
	case "height", "h":
		return MeasureHeight, nil
	default:
		return 0, configErrorf("output.measurement", "unknown measurement %q", s)
	}
}

type HalftoneConfig struct {
	Type HalftoneType
	// Screen ruling in lines per inch. Physical limit is about mesh count / 4.5.
	LPI float64
	// Screen angle in degrees. Use different angles per ink to avoid moiré.
	Angle float64
}

// SubstrateKnockout leaves pixels close to the garment/paper color unprinted.
type SubstrateKnockout struct {
	Color RGB
	// Distance (same scale as the separation method) under which a pixel counts as
	// substrate. 0-100.
	Threshold float64
}

// AdaptiveTuning holds the empirical factors that derive raster thresholds from the
// palette's own spacing. They are defaults to re-tune, not physical constants.
type AdaptiveTuning struct {
	// maxDist = mean pairwise palette distance * MaxScale, clamped to [MinMaxDist, MaxMaxDist].
	MaxScale   float64
	MinMaxDist float64
	MaxMaxDist float64
	// slope = min pairwise palette distance * SlopeScale, clamped to [MinSlope, MaxSlope].
	// Close palette colors shrink the slope, limiting bleed between them.
	SlopeScale float64
	MinSlope   float64
	MaxSlope   float64
}

func DefaultAdaptiveTuning() AdaptiveTuning {
	return AdaptiveTuning{
		MaxScale:   1.0,
		MinMaxDist: 15,
		MaxMaxDist: 100,
		SlopeScale: 0.75,
		MinSlope:   4,
		MaxSlope:   50,
	}
}

// SeparationConfig carries every tunable of a separation run. It is passed by value
// and never modified by the engine.
type SeparationConfig struct {
	// Pixels sampled for palette analysis.
	// 5000-100000. Larger is slower but more stable across runs.
	SampleSize int
	// Preview ink density used by the compositor. 0-1.
	InkOpacity float64

	Method  DistanceMethod
	Weights Weights

	Mode SeparationMode

	// Bilateral pre-filter color sigma. 0 disables the filter.
	// High values produce a watercolor look and lose texture.
	DenoiseStrength float64
	// Bilateral pre-filter spatial sigma in pixels.
	DenoiseSpatial float64

	// Vector only: blur then re-threshold each mask to smooth stair-stepped edges.
	VectorAntiAlias   bool
	VectorAASigma     float64
	VectorAAThreshold uint8

	// Raster only: derive maxDist/slope from palette spacing instead of the fixed values.
	RasterAdaptive    bool
	RasterMaxDistance float64
	RasterSlope       float64
	Adaptive          AdaptiveTuning

	// Exponent applied to raster coverage. >1 tightens transitions, <1 softens them.
	Gamma float64

	// nil disables substrate knockout.
	Knockout *SubstrateKnockout

	// 0-10. Morphological kernel grows with strength and with the channel's inked area.
	// High values remove fine detail.
	CleanupStrength int
	// 0-5 Gaussian steps of edge smoothing.
	SmoothEdges int
	// Percent of the image a channel must cover to survive. 0 keeps empty channels.
	MinCoverage float64

	Halftone HalftoneConfig

	OutputDPI         float64
	OutputSizeInches  float64
	OutputMeasurement Measurement
}

func DefaultConfig() SeparationConfig {
	return SeparationConfig{
		SampleSize:        25000,
		InkOpacity:        0.90,
		Method:            MethodCIEDE2000,
		Weights:           DefaultWeights(),
		Mode:              ModeVector,
		DenoiseStrength:   10,
		DenoiseSpatial:    5,
		VectorAntiAlias:   true,
		VectorAASigma:     1.0,
		VectorAAThreshold: 127,
		RasterAdaptive:    true,
		RasterMaxDistance: 50,
		RasterSlope:       25,
		Adaptive:          DefaultAdaptiveTuning(),
		Gamma:             1.25,
		CleanupStrength:   1,
		SmoothEdges:       0,
		MinCoverage:       0.2,
		Halftone: HalftoneConfig{
			Type:  HalftoneAM,
			LPI:   45,
			Angle: 22.5,
		},
		OutputDPI:         300,
		OutputSizeInches:  3,
		OutputMeasurement: MeasureWidth,
	}
}

// Validate reports every out-of-range parameter at once.
func (c SeparationConfig) Validate() error {
	var err error
	check := func(ok bool, field, format string, args ...any) {
		if !ok {
			err = multierr.Append(err, configErrorf(field, format, args...))
		}
	}

	check(c.SampleSize >= 1, "sampleSize", "must be at least 1, got %d", c.SampleSize)
	check(finite(c.InkOpacity) && c.InkOpacity >= 0 && c.InkOpacity <= 1,
		"inkOpacity", "must be within [0,1], got %v", c.InkOpacity)
	check(c.Method >= MethodCIEDE2000 && c.Method <= MethodEuclideanRGB,
		"method", "unknown distance method %d", int(c.Method))
	for _, wk := range []struct {
		name string
		v    float64
	}{{"kL", c.Weights.KL}, {"kC", c.Weights.KC}, {"kH", c.Weights.KH}} {
		check(finite(wk.v) && wk.v >= 0.1 && wk.v <= 5, "weights."+wk.name, "must be within [0.1,5], got %v", wk.v)
	}
	check(c.Mode == ModeVector || c.Mode == ModeRaster, "mode", "unknown separation mode %d", int(c.Mode))
	check(finite(c.DenoiseStrength) && c.DenoiseStrength >= 0,
		"denoiseStrength", "must be >= 0, got %v", c.DenoiseStrength)
	check(finite(c.DenoiseSpatial) && c.DenoiseSpatial >= 0,
		"denoiseSpatial", "must be >= 0, got %v", c.DenoiseSpatial)
	check(finite(c.VectorAASigma) && c.VectorAASigma >= 0,
		"vectorAASigma", "must be >= 0, got %v", c.VectorAASigma)
	check(finite(c.RasterMaxDistance) && c.RasterMaxDistance > 0,
		"rasterMaxDistance", "must be > 0, got %v", c.RasterMaxDistance)
	check(finite(c.RasterSlope) && c.RasterSlope > 0,
		"rasterSlope", "must be > 0, got %v", c.RasterSlope)
	a := c.Adaptive
	check(a.MaxScale > 0 && a.SlopeScale > 0, "adaptive", "scale factors must be > 0")
	check(a.MinMaxDist > 0 && a.MinMaxDist <= a.MaxMaxDist, "adaptive",
		"maxDist range [%v,%v] is empty", a.MinMaxDist, a.MaxMaxDist)
	check(a.MinSlope > 0 && a.MinSlope <= a.MaxSlope, "adaptive",
		"slope range [%v,%v] is empty", a.MinSlope, a.MaxSlope)
	check(finite(c.Gamma) && c.Gamma > 0 && c.Gamma <= 10, "gamma", "must be within (0,10], got %v", c.Gamma)
	if c.Knockout != nil {
		check(finite(c.Knockout.Threshold) && c.Knockout.Threshold >= 0 && c.Knockout.Threshold <= 100,
			"knockout.threshold", "must be within [0,100], got %v", c.Knockout.Threshold)
	}
	check(c.CleanupStrength >= 0 && c.CleanupStrength <= 10,
		"cleanupStrength", "must be within [0,10], got %d", c.CleanupStrength)
	check(c.SmoothEdges >= 0 && c.SmoothEdges <= 5,
		"smoothEdges", "must be within [0,5], got %d", c.SmoothEdges)
	check(finite(c.MinCoverage) && c.MinCoverage >= 0 && c.MinCoverage <= 100,
		"minCoverage", "must be within [0,100], got %v", c.MinCoverage)
	check(c.Halftone.Type == HalftoneAM || c.Halftone.Type == HalftoneFM,
		"halftone.type", "unknown halftone type %d", int(c.Halftone.Type))
	check(finite(c.Halftone.LPI) && c.Halftone.LPI > 0, "halftone.lpi", "must be > 0, got %v", c.Halftone.LPI)
	check(finite(c.Halftone.Angle), "halftone.angle", "must be finite")
	check(finite(c.OutputDPI) && c.OutputDPI > 0, "outputDpi", "must be > 0, got %v", c.OutputDPI)
	check(finite(c.OutputSizeInches) && c.OutputSizeInches > 0,
		"outputSizeInches", "must be > 0, got %v", c.OutputSizeInches)
	check(c.OutputMeasurement == MeasureWidth || c.OutputMeasurement == MeasureHeight,
		"outputMeasurement", "unknown measurement %d", int(c.OutputMeasurement))
	return err
}

func validateOverrides(e PaletteEntry) error {
	o := e.Overrides
	if o == nil {
		return nil
	}
	field := fmt.Sprintf("palette[%s].overrides", e.ID)
	switch {
	case !finite(o.GradientMin) || !finite(o.GradientMax) || !finite(o.Gamma):
		return configErrorf(field, "values must be finite, got min=%v max=%v gamma=%v",
			o.GradientMin, o.GradientMax, o.Gamma)
	case o.GradientMin < 0:
		return configErrorf(field, "gradientMin must be >= 0, got %v", o.GradientMin)
	case o.GradientMax <= o.GradientMin:
		return configErrorf(field, "gradientMax (%v) must exceed gradientMin (%v)", o.GradientMax, o.GradientMin)
	case !(o.Gamma > 0 && o.Gamma <= 10):
		return configErrorf(field, "gamma must be within (0,10], got %v", o.Gamma)
	}
	return nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
