package main

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"weaksource/internal/config"
	"weaksource/internal/logging"
	"weaksource/internal/models"
	"weaksource/internal/report"
)

const sourceCLI = "cli"

type runOptions struct {
	configPath string
	seed       int64
	window     int
	factor     float64
	length     int
	format     string
	smoothed   bool
}

func newRootCommand() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "weaksource",
		Short: "Detect a weak source in a synthetic noisy signal",
		Long: `weaksource generates a noisy signal with one weak Gaussian bump,
smooths it with a moving average and reports every point above
background level * threshold factor.

Without flags it runs 200 points, window 15, factor 1.6.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDetection(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.configPath, "config", "", "path to config file")
	flags.Int64Var(&opts.seed, "seed", 0, "random seed, 0 seeds from the clock")
	flags.IntVar(&opts.window, "window", 0, "smoothing window size")
	flags.Float64Var(&opts.factor, "factor", 0, "alarm threshold factor")
	flags.IntVar(&opts.length, "length", 0, "number of generated points")
	flags.StringVar(&opts.format, "format", report.FormatText, "output format: text, table, json, yaml")
	flags.BoolVar(&opts.smoothed, "smoothed", false, "include smoothed values in json/yaml output")

	return cmd
}

func runDetection(cmd *cobra.Command, opts *runOptions) error {
	format, err := report.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	applyFlags(cmd, opts, cfg)

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	seed := cfg.Generator.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	data := cfg.GeneratorParams().Generate(rand.New(rand.NewSource(seed)), cfg.Generator.Length)

	detector := cfg.NewDetector()
	detection, err := detector.Detect(data)
	if err != nil {
		return fmt.Errorf("detect: %w", err)
	}

	if detection.BackgroundCoverage == 0 {
		logger.Warn("background window has no smoothed values, threshold is zero",
			"window_size", detector.WindowSize,
			"background_samples", detector.BackgroundSamples,
		)
	}

	result := models.NewScanResult(uuid.NewString(), sourceCLI, time.Now(), len(data), detector, detection)
	result.Seed = seed
	if !opts.smoothed {
		result.Smoothed = nil
	}

	logger.Debug("detection complete",
		"seed", seed,
		"background", detection.BackgroundLevel,
		"threshold", detection.AlarmThreshold,
		"background_coverage", detection.BackgroundCoverage,
		"anomalies", len(detection.Indices),
	)

	return report.Write(cmd.OutOrStdout(), report.Report{
		Result:         result,
		ExpectedCenter: cfg.Generator.Center,
	}, format)
}

// applyFlags переопределяет конфигурацию явно заданными флагами
func applyFlags(cmd *cobra.Command, opts *runOptions, cfg *config.Config) {
	flags := cmd.Flags()

	if flags.Changed("seed") {
		cfg.Generator.Seed = opts.seed
	}
	if flags.Changed("window") {
		cfg.Detector.WindowSize = opts.window
	}
	if flags.Changed("factor") {
		cfg.Detector.ThresholdFactor = opts.factor
	}
	if flags.Changed("length") {
		cfg.Generator.Length = opts.length
	}
}
