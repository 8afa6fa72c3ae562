// Package session holds the state of an interactive teaching session: the
// class dictionary, the samples of the object being taught, and the toggles
// that decide what each processed frame shows.
package session

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"chroma-reco/internal/classifier"
	"chroma-reco/internal/colorspace"
	"chroma-reco/internal/config"
	"chroma-reco/internal/dictionary"
	"chroma-reco/internal/fingerprint"
	"chroma-reco/internal/frame"
	"chroma-reco/internal/logger"
	"chroma-reco/internal/metrics"
	"chroma-reco/internal/refine"
)

const component = "Session"

var (
	ErrNotReady    = errors.New("dictionary has no prototypes yet")
	ErrNoGrower    = errors.New("boundary refinement unavailable")
	ErrFrameTooLow = errors.New("frame smaller than the sample window")
)

// SampleColor outlines the teaching window.
var SampleColor = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}

// Output is what one processed frame produces for display.
type Output struct {
	Display  *frame.Frame
	Result   *classifier.Result
	Boundary *refine.Mask
}

// Engine is driven from a single goroutine. Only its dictionary may be read
// concurrently.
type Engine struct {
	cfg        config.Config
	converter  colorspace.Converter
	classifier *classifier.Classifier
	segmenter  refine.Segmenter
	dict       *dictionary.Dictionary
	samples    dictionary.SampleBuffer
	timer      *metrics.Tracker
	logger     logger.Logger

	threshold   float64
	recognizing bool
	frozen      bool
	refining    bool
}

// New builds an engine. segmenter may be nil, in which case refinement cannot
// be switched on.
func New(cfg *config.Config, converter colorspace.Converter, segmenter refine.Segmenter, timer *metrics.Tracker, log logger.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop{}
	}
	if timer == nil {
		timer = metrics.NewTracker(0)
	}

	cls, err := classifier.New(cfg.Recognition.TileSize, cfg.Recognition.Workers)
	if err != nil {
		return nil, err
	}

	return &Engine{
		cfg:        *cfg,
		converter:  converter,
		classifier: cls,
		segmenter:  segmenter,
		dict:       dictionary.New(cfg.Recognition.Seed, log),
		timer:      timer,
		logger:     log,
		threshold:  cfg.Recognition.DistanceThreshold,
		refining:   cfg.Refinement.Enabled && segmenter != nil,
	}, nil
}

func (e *Engine) Dictionary() *dictionary.Dictionary {
	return e.dict
}

func (e *Engine) Threshold() float64 {
	return e.threshold
}

// SetThresholdPercent applies a 0..100 slider position.
func (e *Engine) SetThresholdPercent(percent int) float64 {
	e.threshold = dictionary.ThresholdFromPercent(percent)
	e.logger.Info(component, "distance threshold updated", map[string]interface{}{
		"threshold": e.threshold,
	})
	return e.threshold
}

// SampleRect is the teaching window for a frame of the given bounds.
func (e *Engine) SampleRect(bounds image.Rectangle) image.Rectangle {
	return frame.CenteredSquare(bounds, e.cfg.Capture.SampleSize)
}

func (e *Engine) hsv(bgr *frame.Frame) (*frame.Frame, error) {
	stop := e.timer.Start("hsv")
	defer stop()

	hsv, err := e.converter.ToHSV(bgr)
	if err != nil {
		return nil, fmt.Errorf("hsv conversion failed: %w", err)
	}
	return hsv, nil
}

// LearnBackground adds the non-redundant background tiles of bgr.
func (e *Engine) LearnBackground(bgr *frame.Frame) (int, error) {
	hsv, err := e.hsv(bgr)
	if err != nil {
		return 0, err
	}
	added, err := e.dict.LearnBackground(hsv, e.cfg.Recognition.BackgroundTile, e.threshold)
	if err != nil {
		return 0, fmt.Errorf("background capture failed: %w", err)
	}
	return added, nil
}

// AddSample stores the teaching window of bgr for the current object and
// returns the buffer size.
func (e *Engine) AddSample(bgr *frame.Frame) (int, error) {
	d, err := e.sample(bgr)
	if err != nil {
		return 0, err
	}
	n := e.samples.Add(d)
	e.logger.Info(component, "sample added for current object", map[string]interface{}{
		"samples": n,
	})
	return n, nil
}

func (e *Engine) sample(bgr *frame.Frame) (fingerprint.Descriptor, error) {
	r := e.SampleRect(bgr.Bounds())
	if !r.In(bgr.Bounds()) {
		return fingerprint.Descriptor{}, fmt.Errorf("%w: window %v, frame %v", ErrFrameTooLow, r, bgr.Bounds())
	}
	hsv, err := e.hsv(bgr)
	if err != nil {
		return fingerprint.Descriptor{}, err
	}
	return fingerprint.FromRegion(hsv, r)
}

// PendingSamples is the size of the sample buffer.
func (e *Engine) PendingSamples() int {
	return e.samples.Len()
}

// CommitObject turns the buffered samples into a new class.
func (e *Engine) CommitObject() (int, error) {
	samples := e.samples.Drain()
	if len(samples) == 0 {
		e.logger.Warning(component, "no samples for this object, add some first", nil)
		return 0, dictionary.ErrNoSamples
	}
	return e.dict.AddObject("", samples)
}

// ToggleRecognition flips recognition mode. It refuses to switch on before
// any class has prototypes.
func (e *Engine) ToggleRecognition() (bool, error) {
	if !e.recognizing && !e.dict.Ready() {
		return false, ErrNotReady
	}
	e.recognizing = !e.recognizing
	e.logger.Info(component, "recognition mode changed", map[string]interface{}{
		"enabled": e.recognizing,
		"classes": e.dict.Len(),
	})
	return e.recognizing, nil
}

func (e *Engine) Recognizing() bool {
	return e.recognizing
}

func (e *Engine) ToggleFreeze() bool {
	e.frozen = !e.frozen
	e.logger.Debug(component, "freeze changed", map[string]interface{}{"frozen": e.frozen})
	return e.frozen
}

func (e *Engine) Frozen() bool {
	return e.frozen
}

// ToggleRefinement flips watershed refinement of recognized frames.
func (e *Engine) ToggleRefinement() (bool, error) {
	if e.segmenter == nil {
		return false, ErrNoGrower
	}
	e.refining = !e.refining
	e.logger.Info(component, "boundary refinement changed", map[string]interface{}{
		"enabled": e.refining,
	})
	return e.refining, nil
}

func (e *Engine) Refining() bool {
	return e.refining
}

// CompareHalves reports the distance between the left and right halves of bgr.
func (e *Engine) CompareHalves(bgr *frame.Frame) (float64, error) {
	hsv, err := e.hsv(bgr)
	if err != nil {
		return 0, err
	}

	mid := hsv.Width / 2
	left, err := fingerprint.FromRegion(hsv, image.Rect(0, 0, mid, hsv.Height))
	if err != nil {
		return 0, fmt.Errorf("left half: %w", err)
	}
	right, err := fingerprint.FromRegion(hsv, image.Rect(mid, 0, hsv.Width, hsv.Height))
	if err != nil {
		return 0, fmt.Errorf("right half: %w", err)
	}

	dist := fingerprint.Distance(&left, &right)
	e.logger.Info(component, "half frame distance", map[string]interface{}{"distance": dist})
	return dist, nil
}

// Classify labels bgr against a snapshot of the dictionary.
func (e *Engine) Classify(bgr *frame.Frame) (*classifier.Result, error) {
	hsv, err := e.hsv(bgr)
	if err != nil {
		return nil, err
	}

	stop := e.timer.Start("classify")
	defer stop()
	return e.classifier.Classify(bgr, hsv, e.dict.Snapshot())
}

// Process renders one frame for display. In recognition mode the painted
// tiles are blended over a grayscale copy of the input, optionally with
// refined boundaries; otherwise the input is shown with the teaching window.
func (e *Engine) Process(bgr *frame.Frame) (*Output, error) {
	if !e.recognizing {
		display := bgr.Clone()
		display.StrokeRect(e.SampleRect(bgr.Bounds()), SampleColor)
		return &Output{Display: display}, nil
	}

	res, err := e.Classify(bgr)
	if err != nil {
		return nil, err
	}

	stop := e.timer.Start("blend")
	display, err := frame.Blend(bgr.Grayscale(), res.Painted, e.cfg.Display.BlendAlpha)
	stop()
	if err != nil {
		return nil, err
	}
	out := &Output{Display: display, Result: res}

	if e.refining {
		stop := e.timer.Start("refine")
		refined, err := refine.Refine(bgr, res.Labels, e.segmenter, e.cfg.Refinement.Margin)
		stop()
		if err != nil {
			return nil, err
		}
		if err := refine.Overlay(display, refined.Boundary, refine.DefaultColor); err != nil {
			return nil, err
		}
		out.Boundary = refined.Boundary
	}

	display.StrokeRect(e.SampleRect(bgr.Bounds()), SampleColor)
	return out, nil
}
