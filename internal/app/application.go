// Package app runs the interactive camera loop: an OpenCV window showing the
// live feed, a threshold trackbar and single-key teaching commands.
package app

import (
	"context"
	"errors"
	"fmt"

	"gocv.io/x/gocv"

	"chroma-reco/internal/capture"
	"chroma-reco/internal/config"
	"chroma-reco/internal/frame"
	"chroma-reco/internal/logger"
	"chroma-reco/internal/metrics"
	"chroma-reco/internal/opencv/conversion"
	"chroma-reco/internal/opencv/segmentation"
	"chroma-reco/internal/opencv/video"
	"chroma-reco/internal/session"
	"chroma-reco/internal/shutdown"
)

const (
	component      = "Application"
	ThresholdTrack = "Distance threshold"
	thresholdMax   = 100
)

type Application struct {
	cfg       *config.Config
	source    capture.Source
	window    *gocv.Window
	trackbar  *gocv.Trackbar
	engine    *session.Engine
	timer     *metrics.Tracker
	logger    logger.Logger
	lifecycle *Lifecycle

	current *frame.Frame
	lastPos int
	frames  int
}

// NewApplication opens the capture device and the display window. The caller
// must invoke Run and then Shutdown from the same OS thread, which for highgui
// means the main goroutine.
func NewApplication(ctx context.Context, cfg *config.Config, log logger.Logger) (*Application, error) {
	if log == nil {
		log = logger.Nop{}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	timer := metrics.NewTracker(cfg.Display.StatsPeriod)
	engine, err := session.New(cfg, conversion.HSVConverter{}, segmentation.Watershed{}, timer, log)
	if err != nil {
		return nil, err
	}

	source, err := video.OpenVideo(cfg.Capture.Device, cfg.Capture.Width, cfg.Capture.Height, log)
	if err != nil {
		return nil, err
	}

	window := gocv.NewWindow(cfg.Display.Window)
	trackbar := window.CreateTrackbar(ThresholdTrack, thresholdMax)
	pos := cfg.ThresholdPercent()
	trackbar.SetPos(pos)

	manager := shutdown.NewManager(ctx, log)
	manager.Register("capture", source)

	a := &Application{
		cfg:      cfg,
		source:   source,
		window:   window,
		trackbar: trackbar,
		engine:   engine,
		timer:    timer,
		logger:   log,
		lastPos:  pos,
	}
	a.lifecycle = NewLifecycle(manager, window, log)

	log.Info(component, "application started", map[string]interface{}{
		"device":    cfg.Capture.Device,
		"width":     cfg.Capture.Width,
		"height":    cfg.Capture.Height,
		"threshold": engine.Threshold(),
		"tile_size": cfg.Recognition.TileSize,
	})
	log.Info(component, "keys: b background, a add sample, n new object, r recognize, w watershed, f freeze, v compare halves, q quit", nil)

	return a, nil
}

// Run processes frames until the user quits, the stream ends or the context
// is cancelled.
func (a *Application) Run() error {
	a.lifecycle.Listen()
	ctx := a.lifecycle.Context()

	for {
		select {
		case <-ctx.Done():
			a.logger.Info(component, "stopping on cancellation", nil)
			return nil
		default:
		}

		key := a.window.WaitKey(a.cfg.Display.WaitMillis)
		if a.windowClosed() {
			return nil
		}

		if err := a.advance(); err != nil {
			if errors.Is(err, capture.ErrEndOfStream) {
				a.logger.Info(component, "end of stream", map[string]interface{}{"frames": a.frames})
				return nil
			}
			return err
		}

		a.pollThreshold()

		cmd := session.CommandForKey(key)
		if cmd == session.Quit {
			return nil
		}
		a.handleCommand(cmd)

		if err := a.render(); err != nil {
			return err
		}
		a.reportStats()
	}
}

// advance reads the next frame unless the display is frozen.
func (a *Application) advance() error {
	if a.engine.Frozen() && a.current != nil {
		return nil
	}

	stop := a.timer.Start("capture")
	f, err := a.source.Read()
	stop()
	if err != nil {
		return err
	}
	a.current = f
	a.frames++
	return nil
}

func (a *Application) render() error {
	out, err := a.engine.Process(a.current)
	if err != nil {
		return fmt.Errorf("process frame %d: %w", a.frames, err)
	}

	mat, err := conversion.FrameToMat(out.Display, "display")
	if err != nil {
		return err
	}
	defer mat.Close()

	a.window.IMShow(mat.GetMat())
	return nil
}

func (a *Application) windowClosed() bool {
	if !a.window.IsOpen() {
		return true
	}
	return hiddenByUser(a.window.GetWindowProperty(gocv.WindowPropertyVisible))
}

// hiddenByUser reads the highgui visibility property. Backends without the
// property report a negative value, which says nothing about the window.
func hiddenByUser(visible float64) bool {
	return visible >= 0 && visible < 1
}

// Shutdown releases the capture device and closes the window.
func (a *Application) Shutdown() error {
	return a.lifecycle.Shutdown()
}
