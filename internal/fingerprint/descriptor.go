// Package fingerprint builds compact color descriptors for image regions and
// compares them.
//
// A Descriptor is a normalized 8x8x8 histogram over an 8-bit HSV region. Hue
// and saturation are quantized by 32 and value by 64, so only four of the eight
// value slots are reachable.
package fingerprint

import (
	"errors"
	"fmt"
	"image"
	"math"

	"gonum.org/v1/gonum/floats"

	"chroma-reco/internal/frame"
)

const (
	HueBins        = 8
	SaturationBins = 8
	ValueBins      = 8
	Size           = HueBins * SaturationBins * ValueBins

	hueStep        = 32
	saturationStep = 32
	valueStep      = 64
)

var (
	ErrEmptyRegion       = errors.New("region contains no pixels")
	ErrFinalized         = errors.New("descriptor already finalized")
	ErrEmptyPrototypeSet = errors.New("prototype set is empty")
	ErrInvalidBins       = errors.New("histogram is not a normalized distribution")
)

const normTolerance = 1e-6

// Descriptor is a value type; copies share nothing.
type Descriptor struct {
	bins      [Size]float64
	count     int
	finalized bool
}

// BinIndex returns the histogram slot for one HSV pixel.
func BinIndex(h, s, v uint8) int {
	return int(h/hueStep)*HueBins*SaturationBins + int(s/saturationStep)*ValueBins + int(v/valueStep)
}

// Add accumulates one HSV pixel.
func (d *Descriptor) Add(h, s, v uint8) error {
	if d.finalized {
		return ErrFinalized
	}
	d.bins[BinIndex(h, s, v)]++
	d.count++
	return nil
}

// Finalize normalizes the raw counts so the bins sum to one. A descriptor with
// no pixels is rejected and its bins stay zero.
func (d *Descriptor) Finalize() error {
	if d.finalized {
		return ErrFinalized
	}
	if d.count == 0 {
		return ErrEmptyRegion
	}
	floats.Scale(1/float64(d.count), d.bins[:])
	d.finalized = true
	return nil
}

func (d *Descriptor) Count() int {
	return d.count
}

func (d *Descriptor) Finalized() bool {
	return d.finalized
}

// Bins returns a copy of the histogram.
func (d *Descriptor) Bins() [Size]float64 {
	return d.bins
}

func (d *Descriptor) Sum() float64 {
	return floats.Sum(d.bins[:])
}

// FromBins builds a finalized descriptor from an already normalized histogram.
// Bins must be finite and non-negative, sum to one, and count must be positive.
func FromBins(bins [Size]float64, count int) (Descriptor, error) {
	if count <= 0 {
		return Descriptor{}, fmt.Errorf("%w: count %d", ErrInvalidBins, count)
	}
	for i, b := range bins {
		if math.IsNaN(b) || math.IsInf(b, 0) || b < 0 {
			return Descriptor{}, fmt.Errorf("%w: bin %d is %v", ErrInvalidBins, i, b)
		}
	}
	if sum := floats.Sum(bins[:]); math.Abs(sum-1) > normTolerance {
		return Descriptor{}, fmt.Errorf("%w: bins sum to %v", ErrInvalidBins, sum)
	}
	return Descriptor{bins: bins, count: count, finalized: true}, nil
}

// Build bins a row-major sequence of HSV pixels and finalizes the result.
func Build(pixels [][3]uint8) (Descriptor, error) {
	var d Descriptor
	for _, p := range pixels {
		// Cannot fail before Finalize.
		_ = d.Add(p[0], p[1], p[2])
	}
	if err := d.Finalize(); err != nil {
		return Descriptor{}, err
	}
	return d, nil
}

// FromRegion builds the descriptor of r within an HSV frame. The rectangle must
// have positive area and lie fully inside the frame.
func FromRegion(hsv *frame.Frame, r image.Rectangle) (Descriptor, error) {
	if r.Empty() {
		return Descriptor{}, fmt.Errorf("%w: %v", ErrEmptyRegion, r)
	}
	if hsv.Empty() || !r.In(hsv.Bounds()) {
		return Descriptor{}, fmt.Errorf("%w: %v outside frame %v", ErrEmptyRegion, r, hsv.Bounds())
	}

	var d Descriptor
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := hsv.Row(y, r.Min.X, r.Max.X)
		for i := 0; i < len(row); i += frame.Channels {
			d.bins[BinIndex(row[i], row[i+1], row[i+2])]++
		}
	}
	d.count = r.Dx() * r.Dy()

	if err := d.Finalize(); err != nil {
		return Descriptor{}, err
	}
	return d, nil
}
