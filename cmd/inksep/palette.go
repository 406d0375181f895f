package main

import (
	"fmt"

	"github.com/setanarut/inksep"
	"github.com/setanarut/inksep/utils"
	"github.com/spf13/cobra"
)

var paletteCmd = &cobra.Command{
	Use:   "palette",
	Short: "Propose an ink palette for an image",
	RunE:  runPalette,
}

func init() {
	paletteCmd.Flags().StringP("input", "i", "", "Input image")
	paletteCmd.Flags().IntP("colors", "k", 6, "Number of inks")
	paletteCmd.Flags().Int("sample", 25000, "Pixels sampled for analysis")
	paletteCmd.Flags().String("method", "lab-kmeans", "Extraction method (lab-kmeans, kmeans, dominantcolor)")
	paletteCmd.Flags().Bool("sort", false, "Sort inks from darkest to brightest")
	paletteCmd.Flags().String("swatch", "", "Write a swatch PNG to this path")
	paletteCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(paletteCmd)
}

func runPalette(cmd *cobra.Command, args []string) error {
	inputPath, _ := cmd.Flags().GetString("input")
	k, _ := cmd.Flags().GetInt("colors")
	sample, _ := cmd.Flags().GetInt("sample")
	methodStr, _ := cmd.Flags().GetString("method")
	sortInks, _ := cmd.Flags().GetBool("sort")
	swatch, _ := cmd.Flags().GetString("swatch")

	method, err := inksep.ParsePaletteMethod(methodStr)
	if err != nil {
		return err
	}
	engine, err := newEngine(cmd)
	if err != nil {
		return err
	}
	defer engine.Logger().Sync()

	src, err := utils.ReadImage(inputPath)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	opt := inksep.DefaultExtractOptions(k)
	opt.SampleSize = sample
	opt.Method = method
	palette, err := engine.ExtractPaletteWith(src, opt)
	if err != nil {
		return fmt.Errorf("extracting palette: %w", err)
	}
	if sortInks {
		utils.SortPaletteByBrightness(palette)
	}

	for _, p := range palette {
		fmt.Println(p.Hex)
	}
	if swatch != "" {
		if err := utils.SavePalette(palette, 64, swatch); err != nil {
			return fmt.Errorf("writing swatch: %w", err)
		}
	}
	return nil
}
