package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"chroma-reco/internal/app"
	"chroma-reco/internal/capture"
	"chroma-reco/internal/colorspace"
	"chroma-reco/internal/frame"
	"chroma-reco/internal/metrics"
	"chroma-reco/internal/opencv/conversion"
	"chroma-reco/internal/opencv/segmentation"
	"chroma-reco/internal/session"
)

const (
	converterOpenCV   = "opencv"
	converterColorful = "colorful"
)

func converterFor(name string) (colorspace.Converter, error) {
	switch name {
	case converterOpenCV, "":
		return conversion.HSVConverter{}, nil
	case converterColorful:
		return colorspace.Colorful{}, nil
	default:
		return nil, fmt.Errorf("unknown converter %q, want %s or %s", name, converterOpenCV, converterColorful)
	}
}

func liveAction(c *cli.Context) error {
	cfg, log, err := setup(c)
	if err != nil {
		return err
	}

	application, err := app.NewApplication(c.Context, cfg, log)
	if err != nil {
		return fmt.Errorf("start: %w", err)
	}

	runErr := application.Run()
	if err := application.Shutdown(); err != nil {
		log.Error("Main", err, nil)
	}
	return runErr
}

func classifyAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("classify needs exactly one input image", 2)
	}
	cfg, log, err := setup(c)
	if err != nil {
		return err
	}
	converter, err := converterFor(c.String(flagConverter))
	if err != nil {
		return err
	}

	timer := metrics.NewTracker(cfg.Display.StatsPeriod)
	engine, err := session.New(cfg, converter, segmentation.Watershed{}, timer, log)
	if err != nil {
		return err
	}

	background, err := readStill(c.String(flagBackgr))
	if err != nil {
		return err
	}
	var objects []*frame.Frame
	for _, path := range c.StringSlice(flagObject) {
		obj, err := readStill(path)
		if err != nil {
			return err
		}
		objects = append(objects, obj)
	}
	if err := engine.Teach(background, objects); err != nil {
		return err
	}

	input, err := readStill(c.Args().First())
	if err != nil {
		return err
	}
	out, err := engine.Process(input)
	if err != nil {
		return err
	}

	dest := c.String(flagOutput)
	if err := capture.SaveImage(out.Display, dest); err != nil {
		return err
	}

	fields := timer.Fields()
	fields["output"] = dest
	fields["classes"] = engine.Dictionary().Len()
	fields["tiles"] = out.Result.Tiles
	log.Info("Main", "recognition written", fields)
	return nil
}

func compareAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("compare needs exactly one image", 2)
	}
	cfg, log, err := setup(c)
	if err != nil {
		return err
	}
	converter, err := converterFor(c.String(flagConverter))
	if err != nil {
		return err
	}
	engine, err := session.New(cfg, converter, nil, nil, log)
	if err != nil {
		return err
	}

	img, err := readStill(c.Args().First())
	if err != nil {
		return err
	}
	dist, err := engine.CompareHalves(img)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "%.6f\n", dist)
	return nil
}

func configAction(c *cli.Context) error {
	cfg, _, err := setup(c)
	if err != nil {
		return err
	}
	return cfg.Save(c.String(flagOutput))
}

func readStill(path string) (*frame.Frame, error) {
	src, err := capture.OpenStill(path)
	if err != nil {
		return nil, err
	}
	defer src.Close()
	return src.Read()
}
