// Package refine turns blocky tile labels into seeds for a region-growing
// primitive and overlays the boundaries it finds.
package refine

import (
	"errors"
	"fmt"
	"image/color"

	"chroma-reco/internal/frame"
)

// Marker values follow the OpenCV watershed convention.
const (
	Unknown        int32 = 0
	BackgroundSeed int32 = 1
	Boundary       int32 = -1
)

// DefaultMargin is the half-width, in pixels, of the undecided band left
// around every label transition.
const DefaultMargin = 4

// DefaultColor highlights boundary pixels.
var DefaultColor = color.RGBA{G: 0xff, A: 0xff}

var (
	ErrMarkerMismatch = errors.New("refinement primitive returned a map of the wrong size")
	ErrNoDilator      = errors.New("a positive margin needs a dilator")
)

// Grower partitions an image from seed markers. Every output pixel is either
// a seed value or Boundary. Implementations must be deterministic.
type Grower interface {
	Grow(bgr *frame.Frame, markers *frame.LabelMap) (*frame.LabelMap, error)
}

// Dilator grows the set bits of a mask by r pixels in every direction with a
// square window. Pixels outside the mask count as unset.
type Dilator interface {
	Dilate(mask *Mask, r int) (*Mask, error)
}

// Segmenter provides both primitives refinement needs.
type Segmenter interface {
	Grower
	Dilator
}

// Mask flags boundary pixels.
type Mask struct {
	Width  int
	Height int
	Bits   []bool
}

func (m *Mask) At(x, y int) bool {
	return m.Bits[y*m.Width+x]
}

func (m *Mask) Clone() *Mask {
	bits := make([]bool, len(m.Bits))
	copy(bits, m.Bits)
	return &Mask{Width: m.Width, Height: m.Height, Bits: bits}
}

func (m *Mask) Count() int {
	n := 0
	for _, b := range m.Bits {
		if b {
			n++
		}
	}
	return n
}

// SeedFor maps a class index to its marker value.
func SeedFor(class int32) int32 {
	return class + 1
}

// ClassFor maps a marker value back to a class index, or frame.Unlabeled for
// Unknown and Boundary.
func ClassFor(seed int32) int32 {
	if seed <= Unknown {
		return frame.Unlabeled
	}
	return seed - 1
}

// Markers builds the seed map: background pixels get BackgroundSeed, class k
// gets k+1. Unlabeled pixels and a band of margin pixels on both sides of
// every label change stay Unknown for the grower to decide. dil may be nil
// when margin is zero.
func Markers(labels *frame.LabelMap, margin int, dil Dilator) (*frame.LabelMap, error) {
	w, h := labels.Width, labels.Height
	markers := frame.NewLabelMap(w, h, Unknown)

	band := &Mask{Width: w, Height: h, Bits: transitions(labels)}
	if margin > 0 {
		if dil == nil {
			return nil, ErrNoDilator
		}
		widened, err := dil.Dilate(band, margin)
		if err != nil {
			return nil, fmt.Errorf("band dilation failed: %w", err)
		}
		if widened.Width != w || widened.Height != h || len(widened.Bits) != w*h {
			return nil, fmt.Errorf("%w: dilated band %dx%d", ErrMarkerMismatch, widened.Width, widened.Height)
		}
		band = widened
	}

	for i, label := range labels.Labels {
		if label == frame.Unlabeled || band.Bits[i] {
			continue
		}
		markers.Labels[i] = SeedFor(label)
	}
	return markers, nil
}

// transitions flags pixels whose right or lower neighbour carries a different
// label, on both sides of the edge.
func transitions(labels *frame.LabelMap) []bool {
	w, h := labels.Width, labels.Height
	edge := make([]bool, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			if x+1 < w && labels.Labels[i+1] != labels.Labels[i] {
				edge[i], edge[i+1] = true, true
			}
			if y+1 < h && labels.Labels[i+w] != labels.Labels[i] {
				edge[i], edge[i+w] = true, true
			}
		}
	}
	return edge
}

// Outcome is what Refine hands back to the display.
type Outcome struct {
	// Regions holds the class index per pixel after growing, frame.Unlabeled on boundaries.
	Regions  *frame.LabelMap
	Boundary *Mask
}

// Refine seeds the grower from tile labels and collects its boundary pixels.
// The outer ring of the image is never reported as boundary: region growers
// such as cv::watershed mark it unconditionally, so ring pixels take the
// result of their inward neighbour instead.
func Refine(bgr *frame.Frame, labels *frame.LabelMap, seg Segmenter, margin int) (*Outcome, error) {
	if bgr.Width != labels.Width || bgr.Height != labels.Height {
		return nil, fmt.Errorf("%w: frame %dx%d, labels %dx%d", frame.ErrSizeMismatch, bgr.Width, bgr.Height, labels.Width, labels.Height)
	}

	markers, err := Markers(labels, margin, seg)
	if err != nil {
		return nil, err
	}
	grown, err := seg.Grow(bgr, markers)
	if err != nil {
		return nil, fmt.Errorf("region growing failed: %w", err)
	}
	if grown.Width != labels.Width || grown.Height != labels.Height {
		return nil, fmt.Errorf("%w: %dx%d", ErrMarkerMismatch, grown.Width, grown.Height)
	}
	clearRing(grown)

	out := &Outcome{
		Regions:  frame.NewLabelMap(grown.Width, grown.Height, frame.Unlabeled),
		Boundary: &Mask{Width: grown.Width, Height: grown.Height, Bits: make([]bool, len(grown.Labels))},
	}
	for i, seed := range grown.Labels {
		if seed == Boundary {
			out.Boundary.Bits[i] = true
			continue
		}
		out.Regions.Labels[i] = ClassFor(seed)
	}
	return out, nil
}

// clearRing replaces Boundary on the outermost pixels with the value of the
// nearest interior pixel. Images thinner than three pixels have no interior
// and are left alone.
func clearRing(m *frame.LabelMap) {
	w, h := m.Width, m.Height
	if w < 3 || h < 3 {
		return
	}
	inner := func(x, y int) int32 {
		return m.At(min(max(x, 1), w-2), min(max(y, 1), h-2))
	}
	fix := func(x, y int) {
		if m.At(x, y) == Boundary {
			m.Set(x, y, inner(x, y))
		}
	}
	for x := 0; x < w; x++ {
		fix(x, 0)
		fix(x, h-1)
	}
	for y := 1; y < h-1; y++ {
		fix(0, y)
		fix(w-1, y)
	}
}

// Overlay paints the boundary pixels of mask onto f.
func Overlay(f *frame.Frame, mask *Mask, c color.RGBA) error {
	if f.Width != mask.Width || f.Height != mask.Height {
		return fmt.Errorf("%w: frame %dx%d, mask %dx%d", frame.ErrSizeMismatch, f.Width, f.Height, mask.Width, mask.Height)
	}
	for i, on := range mask.Bits {
		if on {
			f.SetColor(i%mask.Width, i/mask.Width, c)
		}
	}
	return nil
}
