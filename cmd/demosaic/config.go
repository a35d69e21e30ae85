package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/gogpu/demosaic"
)

// fileConfig is the YAML form of demosaic.Config plus engine options.
// Empty fields keep their defaults.
type fileConfig struct {
	Method                string  `yaml:"method"`
	MedianThreshold       float32 `yaml:"median_threshold"`
	GreenEq               string  `yaml:"green_eq"`
	GreenEqThreshold      float32 `yaml:"green_eq_threshold"`
	ColorSmoothingPasses  int     `yaml:"color_smoothing_passes"`
	Context               string  `yaml:"context"`
	Backend               string  `yaml:"backend"`
	Sensitivity           float64 `yaml:"sensitivity"`
	ThumbnailQualityFloor int     `yaml:"thumbnail_quality_floor"`

	MemoryLimitMB int `yaml:"memory_limit_mb"`
	TileSize      int `yaml:"tile_size"`
	Workers       int `yaml:"workers"`
}

func loadConfig(path string) (fileConfig, error) {
	var c fileConfig
	if path == "" {
		return c, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return c, fmt.Errorf("parse config %s: %w", path, err)
	}
	return c, nil
}

// apply overlays the non-empty fields of c onto cfg.
func (c fileConfig) apply(cfg *demosaic.Config) error {
	var err error
	if c.Method != "" {
		if cfg.Method, err = demosaic.ParseMethod(c.Method); err != nil {
			return err
		}
	}
	if c.GreenEq != "" {
		if cfg.GreenEq, err = demosaic.ParseGreenEq(c.GreenEq); err != nil {
			return err
		}
	}
	if c.Context != "" {
		if cfg.Context, err = demosaic.ParseContext(c.Context); err != nil {
			return err
		}
	}
	if c.Backend != "" {
		if cfg.Backend, err = demosaic.ParseBackend(c.Backend); err != nil {
			return err
		}
	}
	if c.MedianThreshold != 0 {
		cfg.MedianThreshold = c.MedianThreshold
	}
	if c.GreenEqThreshold != 0 {
		cfg.GreenEqThreshold = c.GreenEqThreshold
	}
	if c.ColorSmoothingPasses != 0 {
		cfg.ColorSmoothingPasses = c.ColorSmoothingPasses
	}
	if c.Sensitivity != 0 {
		cfg.Sensitivity = c.Sensitivity
	}
	if c.ThumbnailQualityFloor != 0 {
		cfg.ThumbnailQualityFloor = c.ThumbnailQualityFloor
	}
	return cfg.Validate()
}

func (c fileConfig) options() []demosaic.Option {
	var opts []demosaic.Option
	if c.MemoryLimitMB > 0 {
		opts = append(opts, demosaic.WithMemoryLimit(int64(c.MemoryLimitMB)<<20))
	}
	if c.TileSize > 0 {
		opts = append(opts, demosaic.WithTileSize(c.TileSize))
	}
	if c.Workers > 0 {
		opts = append(opts, demosaic.WithWorkers(c.Workers))
	}
	return opts
}
