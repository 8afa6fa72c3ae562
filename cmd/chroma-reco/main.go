// Command chroma-reco teaches and recognises coloured objects from a camera
// feed or still images using HSV colour fingerprints.
package main

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/urfave/cli/v2"

	"chroma-reco/internal/config"
	"chroma-reco/internal/logger"
)

const (
	AppName    = "chroma-reco"
	AppVersion = "1.0.0"

	flagConfig    = "config"
	flagLogLevel  = "log-level"
	flagJSON      = "json"
	flagDevice    = "device"
	flagThreshold = "threshold"
	flagRefine    = "refine"
	flagTile      = "tile"
	flagWorkers   = "workers"
	flagBackgr    = "background"
	flagObject    = "object"
	flagOutput    = "output"
	flagConverter = "converter"
)

func init() {
	// highgui windows must stay on the main thread.
	runtime.LockOSThread()
}

func main() {
	app := &cli.App{
		Name:    AppName,
		Usage:   "recognise taught colour regions by HSV fingerprint",
		Version: AppVersion,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "YAML configuration file",
				EnvVars: []string{"CHROMA_RECO_CONFIG"},
			},
			&cli.StringFlag{
				Name:  flagLogLevel,
				Usage: "debug, info, warn or error",
			},
			&cli.BoolFlag{
				Name:  flagJSON,
				Usage: "log JSON lines instead of console output",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "live",
				Usage:  "run the interactive camera window",
				Action: liveAction,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: flagDevice, Aliases: []string{"d"}, Usage: "camera index or video path"},
					&cli.IntFlag{Name: flagThreshold, Aliases: []string{"t"}, Value: -1, Usage: "distance threshold percent (0-100)"},
					&cli.BoolFlag{Name: flagRefine, Usage: "start with watershed refinement on once recognising"},
					&cli.IntFlag{Name: flagTile, Usage: "classification tile size in pixels"},
					&cli.IntFlag{Name: flagWorkers, Usage: "classification workers, 0 for all CPUs"},
				},
			},
			{
				Name:      "classify",
				Usage:     "teach from still images and label another image",
				ArgsUsage: "<input image>",
				Action:    classifyAction,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: flagBackgr, Aliases: []string{"b"}, Required: true, Usage: "background image"},
					&cli.StringSliceFlag{Name: flagObject, Aliases: []string{"a"}, Usage: "object image, sampled at its centre (repeatable)"},
					&cli.StringFlag{Name: flagOutput, Aliases: []string{"o"}, Value: "recognized.png", Usage: "output image"},
					&cli.IntFlag{Name: flagThreshold, Aliases: []string{"t"}, Value: -1, Usage: "distance threshold percent (0-100)"},
					&cli.BoolFlag{Name: flagRefine, Usage: "refine boundaries with watershed"},
					&cli.IntFlag{Name: flagTile, Usage: "classification tile size in pixels"},
					&cli.IntFlag{Name: flagWorkers, Usage: "classification workers, 0 for all CPUs"},
					&cli.StringFlag{Name: flagConverter, Value: converterOpenCV, Usage: "HSV converter: opencv or colorful"},
				},
			},
			{
				Name:      "compare",
				Usage:     "print the fingerprint distance between the left and right halves of an image",
				ArgsUsage: "<image>",
				Action:    compareAction,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: flagConverter, Value: converterOpenCV, Usage: "HSV converter: opencv or colorful"},
				},
			},
			{
				Name:   "config",
				Usage:  "write the effective configuration as YAML",
				Action: configAction,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: flagOutput, Aliases: []string{"o"}, Value: "chroma-reco.yaml", Usage: "destination file"},
				},
			},
		},
	}

	if err := app.RunContext(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", AppName, err)
		os.Exit(1)
	}
}

// setup loads configuration, applies global flag overrides and builds the
// logger.
func setup(c *cli.Context) (*config.Config, logger.Logger, error) {
	cfg := config.Default()
	if path := c.String(flagConfig); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, nil, err
		}
		cfg = loaded
	}

	if c.IsSet(flagLogLevel) {
		cfg.Logging.Level = c.String(flagLogLevel)
	}
	if c.IsSet(flagJSON) {
		cfg.Logging.JSON = c.Bool(flagJSON)
	}
	if c.IsSet(flagDevice) {
		cfg.Capture.Device = c.String(flagDevice)
	}
	if c.IsSet(flagThreshold) {
		cfg.Recognition.DistanceThreshold = float64(c.Int(flagThreshold)) / 100
	}
	if c.IsSet(flagTile) {
		cfg.Recognition.TileSize = c.Int(flagTile)
	}
	if c.IsSet(flagWorkers) {
		cfg.Recognition.Workers = c.Int(flagWorkers)
	}
	if c.IsSet(flagRefine) {
		cfg.Refinement.Enabled = c.Bool(flagRefine)
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.JSON)
	log.Info("Main", "configuration loaded", map[string]interface{}{
		"go_version": runtime.Version(),
		"num_cpu":    runtime.NumCPU(),
		"config":     c.String(flagConfig),
		"log_level":  cfg.Logging.Level,
	})
	return cfg, log, nil
}
