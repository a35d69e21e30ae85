// Command demosaic reconstructs an RGB image from a raw sensor mosaic.
//
// The input is a single-channel TIFF of undemosaiced samples:
//
//	demosaic -in raw.tif -cfa rggb -bits 14 -method ppg -out out.png
//	demosaic -in xtrans.tif -cfa xtrans -config export.yaml -out out.hdr
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/gogpu/demosaic"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		log.Fatalf("demosaic: %v", err)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("demosaic", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		input   = fs.String("in", "", "input TIFF holding the raw mosaic")
		output  = fs.String("out", "", "output file (.png, .tif or .hdr)")
		bits    = fs.Int("bits", 16, "bit depth of the raw samples")
		pattern = fs.String("cfa", "rggb", "CFA layout: rggb, bggr, grbg, gbrg or xtrans")
		cfgPath = fs.String("config", "", "YAML configuration file")
		method  = fs.String("method", "", "demosaic method, overrides the config file")
		context = fs.String("context", "", "pipeline context, overrides the config file")
		scale   = fs.Float64("scale", 1, "output scale in (0, 1]")
		region  = fs.String("region", "", "raw region x,y,w,h")
		iso     = fs.Float64("iso", 0, "sensitivity; read from EXIF when 0")
		bench   = fs.Int("bench", 0, "run N times and report latency")
		stats   = fs.Bool("stats", false, "print per-channel statistics")
		verbose = fs.Bool("v", false, "debug logging")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *input == "" {
		return errors.New("-in is required")
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	demosaic.SetLogger(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})))
	defer demosaic.SetLogger(nil)

	fc, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	if *method != "" {
		fc.Method = *method
	}
	if *context != "" {
		fc.Context = *context
	}
	cfg := demosaic.DefaultConfig()
	if *iso > 0 {
		cfg.Sensitivity = *iso
	} else if v, err := readISO(*input); err == nil && v > 0 {
		cfg.Sensitivity = v
	} else if err != nil {
		demosaic.Logger().Debug("no ISO in input", "err", err)
	}
	if err := fc.apply(&cfg); err != nil {
		return err
	}

	pat, err := parseCFA(*pattern)
	if err != nil {
		return err
	}
	raw, err := loadRaw(*input, *bits)
	if err != nil {
		return err
	}
	r, err := parseRegion(*region, raw)
	if err != nil {
		return err
	}

	e := demosaic.NewEngine(fc.options()...)
	defer e.Close()

	req := demosaic.Request{Raw: raw, CFA: pat, Region: r, Scale: *scale, Config: cfg}
	if *bench > 0 {
		return benchmark(stdout, e, req, *bench)
	}

	res, err := e.Process(req)
	if err != nil {
		return err
	}
	if !res.OK() {
		return fmt.Errorf("%s", res.Reason)
	}
	fmt.Fprintf(stdout, "%dx%d method=%s backend=%s tiles=%d tile=%d reason=%s\n",
		res.Output.Width, res.Output.Height, res.Method, res.Backend, res.Tiles, res.TileSize, res.Reason)
	if *stats {
		channelStats(stdout, res.Output)
	}
	if *output == "" {
		return nil
	}
	return writeOutput(*output, res.Output)
}
