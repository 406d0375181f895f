package main

import (
	"fmt"
	"os"

	"github.com/setanarut/inksep"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:          "inksep",
	Short:        "Separate artwork into screen-printing ink channels",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log pipeline stages to stderr")
	rootCmd.PersistentFlags().Uint64("seed", 0, "Random seed for palette sampling (0 = clock)")
	rootCmd.PersistentFlags().Int("workers", 0, "Worker goroutines per stage (0 = GOMAXPROCS)")
	rootCmd.PersistentFlags().String("resample", "lanczos3", "Resize kernel (lanczos3, catmullrom, bilinear, nearest)")
}

func newEngine(cmd *cobra.Command) (*inksep.Engine, error) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	seed, _ := cmd.Flags().GetUint64("seed")
	workers, _ := cmd.Flags().GetInt("workers")
	resampleStr, _ := cmd.Flags().GetString("resample")

	kernel, err := inksep.ParseResampleKernel(resampleStr)
	if err != nil {
		return nil, err
	}
	opt := inksep.DefaultEngineOptions()
	opt.Seed = seed
	opt.Workers = workers
	opt.Resample = kernel
	if verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			return nil, fmt.Errorf("creating logger: %w", err)
		}
		opt.Logger = logger
	}
	return inksep.NewEngine(opt), nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
