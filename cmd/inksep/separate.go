package main

import (
	"fmt"
	"path/filepath"

	"github.com/setanarut/inksep"
	"github.com/setanarut/inksep/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var separateCmd = &cobra.Command{
	Use:   "separate",
	Short: "Split an image into one mask per ink",
	RunE:  runSeparate,
}

func init() {
	def := inksep.DefaultConfig()
	f := separateCmd.Flags()
	f.StringP("input", "i", "", "Input image")
	f.StringP("output", "o", "", "Output directory")
	f.StringP("palette", "p", "", "Comma separated hex inks; extracted from the image when empty")
	f.IntP("colors", "k", 6, "Number of inks to extract when no palette is given")
	f.Int("sample", def.SampleSize, "Pixels sampled for palette analysis")
	f.String("palette-method", inksep.PaletteLabKMeans.String(), "Palette extraction method (lab-kmeans, kmeans, dominantcolor)")
	f.String("mode", def.Mode.String(), "Separation mode (vector, raster)")
	f.String("method", def.Method.String(), "Color distance (ciede2000, euclidean-lab, euclidean-rgb)")
	f.Float64("kl", def.Weights.KL, "CIEDE2000 lightness weight")
	f.Float64("kc", def.Weights.KC, "CIEDE2000 chroma weight")
	f.Float64("kh", def.Weights.KH, "CIEDE2000 hue weight")
	f.Float64("denoise", def.DenoiseStrength, "Bilateral pre-filter strength (0 disables)")
	f.Float64("denoise-spatial", def.DenoiseSpatial, "Bilateral pre-filter spatial sigma")
	f.Bool("antialias", def.VectorAntiAlias, "Smooth vector mask edges")
	f.Float64("aa-sigma", def.VectorAASigma, "Blur sigma for vector anti-aliasing")
	f.Uint8("aa-threshold", def.VectorAAThreshold, "Blurred coverage at or below this is cleared after anti-aliasing")
	f.Bool("adaptive", def.RasterAdaptive, "Derive raster thresholds from palette spacing")
	f.Float64("max-distance", def.RasterMaxDistance, "Raster distance where coverage reaches 0")
	f.Float64("slope", def.RasterSlope, "Raster exclusivity slope")
	f.Float64("gamma", def.Gamma, "Raster coverage gamma")
	f.Int("cleanup", def.CleanupStrength, "Morphological cleanup strength (0-10)")
	f.Int("smooth", def.SmoothEdges, "Edge smoothing steps (0-5)")
	f.Float64("min-coverage", def.MinCoverage, "Drop inks covering less than this percent")
	f.String("knockout", "", "Substrate color to leave unprinted, e.g. #000000")
	f.Float64("knockout-threshold", 10, "Distance under which pixels count as substrate")
	f.String("halftone", "", "Screen the masks (am, fm); empty keeps soft coverage")
	f.Float64("lpi", def.Halftone.LPI, "Halftone lines per inch")
	f.Float64("angle", def.Halftone.Angle, "Halftone screen angle in degrees")
	f.Float64("dpi", def.OutputDPI, "Output resolution")
	f.Float64("size", def.OutputSizeInches, "Print size in inches")
	f.String("measure", def.OutputMeasurement.String(), "Side the print size refers to (width, height)")
	f.Bool("resize", false, "Resize the image to its print size before separating")
	f.Bool("film", false, "Write black-on-white film positives instead of tinted masks")
	f.Float64("opacity", def.InkOpacity, "Ink opacity for the composite preview")
	f.String("shirt", "#ffffff", "Garment color for the composite preview")
	f.Int("underbase", -1, "Write a white underbase choked by this many pixels (-1 disables)")
	separateCmd.MarkFlagRequired("input")
	separateCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(separateCmd)
}

func configFromFlags(cmd *cobra.Command) (inksep.SeparationConfig, error) {
	f := cmd.Flags()
	cfg := inksep.DefaultConfig()
	var err error

	modeStr, _ := f.GetString("mode")
	if cfg.Mode, err = inksep.ParseSeparationMode(modeStr); err != nil {
		return cfg, err
	}
	methodStr, _ := f.GetString("method")
	if cfg.Method, err = inksep.ParseDistanceMethod(methodStr); err != nil {
		return cfg, err
	}
	measureStr, _ := f.GetString("measure")
	if cfg.OutputMeasurement, err = inksep.ParseMeasurement(measureStr); err != nil {
		return cfg, err
	}
	if s, _ := f.GetString("halftone"); s != "" {
		if cfg.Halftone.Type, err = inksep.ParseHalftoneType(s); err != nil {
			return cfg, err
		}
	}
	if s, _ := f.GetString("knockout"); s != "" {
		c, err := inksep.ParseHex(s)
		if err != nil {
			return cfg, err
		}
		t, _ := f.GetFloat64("knockout-threshold")
		cfg.Knockout = &inksep.SubstrateKnockout{Color: c, Threshold: t}
	}

	cfg.SampleSize, _ = f.GetInt("sample")
	cfg.DenoiseStrength, _ = f.GetFloat64("denoise")
	cfg.DenoiseSpatial, _ = f.GetFloat64("denoise-spatial")
	cfg.Weights.KL, _ = f.GetFloat64("kl")
	cfg.Weights.KC, _ = f.GetFloat64("kc")
	cfg.Weights.KH, _ = f.GetFloat64("kh")
	cfg.VectorAntiAlias, _ = f.GetBool("antialias")
	cfg.VectorAASigma, _ = f.GetFloat64("aa-sigma")
	cfg.VectorAAThreshold, _ = f.GetUint8("aa-threshold")
	cfg.RasterAdaptive, _ = f.GetBool("adaptive")
	cfg.RasterMaxDistance, _ = f.GetFloat64("max-distance")
	cfg.RasterSlope, _ = f.GetFloat64("slope")
	cfg.Gamma, _ = f.GetFloat64("gamma")
	cfg.CleanupStrength, _ = f.GetInt("cleanup")
	cfg.SmoothEdges, _ = f.GetInt("smooth")
	cfg.MinCoverage, _ = f.GetFloat64("min-coverage")
	cfg.Halftone.LPI, _ = f.GetFloat64("lpi")
	cfg.Halftone.Angle, _ = f.GetFloat64("angle")
	cfg.OutputDPI, _ = f.GetFloat64("dpi")
	cfg.OutputSizeInches, _ = f.GetFloat64("size")
	cfg.InkOpacity, _ = f.GetFloat64("opacity")
	return cfg, cfg.Validate()
}

func runSeparate(cmd *cobra.Command, args []string) error {
	inputPath, _ := cmd.Flags().GetString("input")
	outDir, _ := cmd.Flags().GetString("output")
	paletteStr, _ := cmd.Flags().GetString("palette")
	k, _ := cmd.Flags().GetInt("colors")
	methodStr, _ := cmd.Flags().GetString("palette-method")
	halftone, _ := cmd.Flags().GetString("halftone")
	doResize, _ := cmd.Flags().GetBool("resize")
	film, _ := cmd.Flags().GetBool("film")
	shirtStr, _ := cmd.Flags().GetString("shirt")
	choke, _ := cmd.Flags().GetInt("underbase")

	cfg, err := configFromFlags(cmd)
	if err != nil {
		return err
	}
	shirt, err := inksep.ParseHex(shirtStr)
	if err != nil {
		return err
	}
	method, err := inksep.ParsePaletteMethod(methodStr)
	if err != nil {
		return err
	}
	engine, err := newEngine(cmd)
	if err != nil {
		return err
	}
	log := engine.Logger()
	defer log.Sync()

	src, err := utils.ReadImage(inputPath)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	if doResize {
		if src, err = engine.ResizeForOutput(src, cfg); err != nil {
			return fmt.Errorf("resizing: %w", err)
		}
	}

	var palette []inksep.PaletteEntry
	if paletteStr != "" {
		palette, err = utils.ParsePalette(paletteStr)
	} else {
		opt := inksep.DefaultExtractOptions(k)
		opt.SampleSize = cfg.SampleSize
		opt.Method = method
		palette, err = engine.ExtractPaletteWith(src, opt)
	}
	if err != nil {
		return fmt.Errorf("palette: %w", err)
	}

	channels, err := engine.Separate(cmd.Context(), src, palette, cfg)
	if err != nil {
		return fmt.Errorf("separating: %w", err)
	}
	if halftone != "" {
		for i := range channels {
			if channels[i], err = engine.Halftone(channels[i], cfg); err != nil {
				return fmt.Errorf("halftone %s: %w", channels[i].ID, err)
			}
		}
	}

	inks := channels
	if choke >= 0 && len(channels) > 0 {
		ub, err := engine.Underbase(channels, choke)
		if err != nil {
			return fmt.Errorf("underbase: %w", err)
		}
		inks = append([]inksep.Channel{ub}, channels...)
	}

	paths, err := utils.SaveChannels(inks, outDir, film)
	if err != nil {
		return fmt.Errorf("writing channels: %w", err)
	}
	preview, err := engine.CompositeOnto(inks, src.Width, src.Height, cfg.InkOpacity, shirt)
	if err != nil {
		return fmt.Errorf("compositing: %w", err)
	}
	if err := utils.SaveImage(preview.NRGBA(), filepath.Join(outDir, "composite.png")); err != nil {
		return fmt.Errorf("writing composite: %w", err)
	}
	if err := utils.SavePalette(palette, 64, filepath.Join(outDir, "palette.png")); err != nil {
		return fmt.Errorf("writing palette: %w", err)
	}

	log.Info("separation written", zap.String("dir", outDir), zap.Int("files", len(paths)))
	fmt.Printf("Separated %dx%d into %d inks\n", src.Width, src.Height, len(channels))
	for _, p := range paths {
		fmt.Println(p)
	}
	return nil
}
