package inksep

import (
	"fmt"
	"image"
	"math"
	"strings"

	"github.com/nfnt/resize"
	"go.uber.org/zap"
	"golang.org/x/image/draw"
)

// ResampleKernel is the interpolation filter used by Resize.
type ResampleKernel int

const (
	KernelLanczos3 ResampleKernel = iota
	KernelCatmullRom
	KernelBilinear
	KernelNearestNeighbor
)

func (k ResampleKernel) String() string {
	switch k {
	case KernelCatmullRom:
		return "catmullrom"
	case KernelBilinear:
		return "bilinear"
	case KernelNearestNeighbor:
		return "nearest"
	default:
		return "lanczos3"
	}
}

func ParseResampleKernel(s string) (ResampleKernel, error) {
	switch strings.ToLower(s) {
	case "lanczos3", "lanczos":
		return KernelLanczos3, nil
	case "catmullrom", "bicubic":
		return KernelCatmullRom, nil
	case "bilinear", "linear":
		return KernelBilinear, nil
	case "nearest", "nearestneighbor":
		return KernelNearestNeighbor, nil
	default:
		return 0, configErrorf("resample", "unknown resample kernel %q", s)
	}
}

// Resize resamples src to w×h with the engine's kernel. Alpha is resampled with color.
func (e *Engine) Resize(src *PixelBuffer, w, h int) (*PixelBuffer, error) {
	if w < 1 || h < 1 {
		return nil, configErrorf("size", "target size must be at least 1x1, got %dx%d", w, h)
	}
	if err := src.validate(); err != nil {
		return nil, fmt.Errorf("resize: %w", err)
	}
	if src.Empty() {
		return nil, fmt.Errorf("%w: cannot resize an empty image", ErrInvalidInput)
	}
	if src.Width == w && src.Height == h {
		return src.Clone(), nil
	}

	var out *PixelBuffer
	switch e.opts.Resample {
	case KernelCatmullRom:
		out = scaleWith(draw.CatmullRom, src, w, h)
	case KernelBilinear:
		out = scaleWith(draw.BiLinear, src, w, h)
	case KernelNearestNeighbor:
		out = scaleWith(draw.NearestNeighbor, src, w, h)
	default:
		out = FromImage(resize.Resize(uint(w), uint(h), src.NRGBA(), resize.Lanczos3))
	}
	e.log.Debug("resized",
		zap.Stringer("kernel", e.opts.Resample),
		zap.Int("fromW", src.Width), zap.Int("fromH", src.Height),
		zap.Int("toW", w), zap.Int("toH", h))
	return out, nil
}

func scaleWith(s draw.Scaler, src *PixelBuffer, w, h int) *PixelBuffer {
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	s.Scale(dst, dst.Bounds(), src.NRGBA(), image.Rect(0, 0, src.Width, src.Height), draw.Src, nil)
	return &PixelBuffer{Width: w, Height: h, Pix: dst.Pix}
}

// TargetSize converts the configured print size into pixels. The measured side is
// inches × DPI; the other side follows the source aspect ratio.
func TargetSize(srcW, srcH int, cfg SeparationConfig) (int, int, error) {
	if srcW < 1 || srcH < 1 {
		return 0, 0, fmt.Errorf("%w: source size %dx%d", ErrInvalidInput, srcW, srcH)
	}
	if !(cfg.OutputDPI > 0) || !(cfg.OutputSizeInches > 0) {
		return 0, 0, configErrorf("output", "dpi and size must be > 0, got %v/%v", cfg.OutputDPI, cfg.OutputSizeInches)
	}
	aspect := float64(srcW) / float64(srcH)
	side := math.Round(cfg.OutputSizeInches * cfg.OutputDPI)
	var w, h float64
	if cfg.OutputMeasurement == MeasureHeight {
		h = side
		w = math.Round(h * aspect)
	} else {
		w = side
		h = math.Round(w / aspect)
	}
	return max(int(w), 1), max(int(h), 1), nil
}

// ResizeForOutput scales src to its print size at cfg.OutputDPI.
func (e *Engine) ResizeForOutput(src *PixelBuffer, cfg SeparationConfig) (*PixelBuffer, error) {
	if err := src.validate(); err != nil {
		return nil, fmt.Errorf("resize: %w", err)
	}
	w, h, err := TargetSize(src.Width, src.Height, cfg)
	if err != nil {
		return nil, err
	}
	return e.Resize(src, w, h)
}
