package frame

import (
	"image"
)

// Unlabeled marks pixels the classifier never visited.
const Unlabeled int32 = -1

// LabelMap stores one class index per pixel.
type LabelMap struct {
	Width  int
	Height int
	Labels []int32
}

// NewLabelMap allocates a map with every pixel set to fill.
func NewLabelMap(width, height int, fill int32) *LabelMap {
	m := &LabelMap{
		Width:  width,
		Height: height,
		Labels: make([]int32, width*height),
	}
	if fill != 0 {
		for i := range m.Labels {
			m.Labels[i] = fill
		}
	}
	return m
}

func (m *LabelMap) Bounds() image.Rectangle {
	return image.Rect(0, 0, m.Width, m.Height)
}

func (m *LabelMap) At(x, y int) int32 {
	return m.Labels[y*m.Width+x]
}

func (m *LabelMap) Set(x, y int, label int32) {
	m.Labels[y*m.Width+x] = label
}

// Fill sets every pixel of r, clipped to the map, to label.
func (m *LabelMap) Fill(r image.Rectangle, label int32) {
	r = r.Intersect(m.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := m.Labels[y*m.Width+r.Min.X : y*m.Width+r.Max.X]
		for i := range row {
			row[i] = label
		}
	}
}

func (m *LabelMap) Clone() *LabelMap {
	labels := make([]int32, len(m.Labels))
	copy(labels, m.Labels)
	return &LabelMap{Width: m.Width, Height: m.Height, Labels: labels}
}

func (m *LabelMap) Equal(other *LabelMap) bool {
	if m.Width != other.Width || m.Height != other.Height {
		return false
	}
	for i, v := range m.Labels {
		if other.Labels[i] != v {
			return false
		}
	}
	return true
}

// Count returns how many pixels carry label.
func (m *LabelMap) Count(label int32) int {
	n := 0
	for _, v := range m.Labels {
		if v == label {
			n++
		}
	}
	return n
}
