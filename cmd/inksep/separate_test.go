package main

import (
	"errors"
	"testing"

	"github.com/setanarut/inksep"
)

func TestConfigFromFlags(t *testing.T) {
	err := separateCmd.ParseFlags([]string{
		"--mode", "raster",
		"--kl", "2", "--kc", "0.5", "--kh", "1.5",
		"--aa-sigma", "2.5", "--aa-threshold", "90",
		"--palette-method", "dominantcolor",
	})
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := configFromFlags(separateCmd)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Mode != inksep.ModeRaster {
		t.Errorf("mode = %v, want raster", cfg.Mode)
	}
	if want := (inksep.Weights{KL: 2, KC: 0.5, KH: 1.5}); cfg.Weights != want {
		t.Errorf("weights = %+v, want %+v", cfg.Weights, want)
	}
	if cfg.VectorAASigma != 2.5 || cfg.VectorAAThreshold != 90 {
		t.Errorf("anti-alias sigma=%v threshold=%d", cfg.VectorAASigma, cfg.VectorAAThreshold)
	}
	if s, _ := separateCmd.Flags().GetString("palette-method"); s != "dominantcolor" {
		t.Errorf("palette-method = %q", s)
	}

	if err := separateCmd.ParseFlags([]string{"--kl", "9"}); err != nil {
		t.Fatal(err)
	}
	if _, err := configFromFlags(separateCmd); !errors.Is(err, inksep.ErrInvalidConfig) {
		t.Errorf("kl 9: error = %v, want ErrInvalidConfig", err)
	}
}
