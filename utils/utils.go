package utils

import (
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/setanarut/inksep"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// SortPaletteByBrightness orders entries from darkest to brightest by relative
// luminance. Equal luminances keep their order.
func SortPaletteByBrightness(palette []inksep.PaletteEntry) {
	slices.SortStableFunc(palette, func(a, b inksep.PaletteEntry) int {
		yi, yj := luminance(a.RGB), luminance(b.RGB)
		if yi < yj {
			return -1
		}
		if yi > yj {
			return 1
		}
		return 0
	})
}

func luminance(c inksep.RGB) float64 {
	r, g, b := colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}.LinearRgb()
	return 0.2126*r + 0.7152*g + 0.0722*b
}

// ParsePalette reads a comma separated list of hex colors ("#ff0000,00f") into entries
// named ink-0, ink-1, ...
func ParsePalette(list string) ([]inksep.PaletteEntry, error) {
	var out []inksep.PaletteEntry
	for _, field := range strings.Split(list, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		p, err := inksep.PaletteEntryFromHex(fmt.Sprintf("ink-%d", len(out)), field)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty palette %q", list)
	}
	return out, nil
}

// ReadImage decodes a PNG, JPEG, GIF, BMP, TIFF or WebP file.
func ReadImage(path string) (*inksep.PixelBuffer, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return inksep.FromImage(img), nil
}

func SaveImage(img image.Image, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ChannelFileName is "NN_RRGGBB.png", numbered in print order.
func ChannelFileName(i int, ch inksep.Channel) string {
	return fmt.Sprintf("%02d_%s.png", i+1, strings.TrimPrefix(ch.Entry.Hex, "#"))
}

// SaveChannels writes one PNG per channel into dir. Film positives are black ink on
// white, ready for exposing screens; otherwise masks are tinted with their ink.
func SaveChannels(channels []inksep.Channel, dir string, film bool) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(channels))
	for i, ch := range channels {
		var img image.Image = ch.Tinted()
		if film {
			img = ch.FilmPositive()
		}
		p := filepath.Join(dir, ChannelFileName(i, ch))
		if err := SaveImage(img, p); err != nil {
			return paths, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// SavePalette writes one tileSize square swatch per entry, left to right.
func SavePalette(palette []inksep.PaletteEntry, tileSize int, filename string) error {
	if len(palette) == 0 {
		return fmt.Errorf("empty palette")
	}
	if tileSize <= 0 {
		tileSize = 64
	}

	w := tileSize * len(palette)
	h := tileSize
	img := image.NewRGBA(image.Rect(0, 0, w, h))

	for i, p := range palette {
		c := color.RGBA{R: p.RGB.R, G: p.RGB.G, B: p.RGB.B, A: 255}
		x0 := i * tileSize
		x1 := x0 + tileSize
		for y := range h {
			for x := x0; x < x1; x++ {
				img.SetRGBA(x, y, c)
			}
		}
	}
	return SaveImage(img, filename)
}
