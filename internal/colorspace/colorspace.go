// Package colorspace defines the BGR to HSV conversion contract the
// recognizer depends on, with a pure-Go implementation backed by go-colorful.
package colorspace

import (
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"chroma-reco/internal/frame"
)

// Converter maps a BGR frame to an HSV frame of the same size. Implementations
// must be pure and deterministic.
type Converter interface {
	ToHSV(bgr *frame.Frame) (*frame.Frame, error)
}

// Colorful converts with go-colorful and scales to the OpenCV 8-bit HSV layout:
// H in [0,180), S and V in [0,255].
type Colorful struct{}

func (Colorful) ToHSV(bgr *frame.Frame) (*frame.Frame, error) {
	if bgr.Empty() {
		return nil, fmt.Errorf("cannot convert empty frame")
	}

	// 16M possible colors but frames repeat heavily; memoize per call.
	cache := make(map[uint32][3]uint8)
	out := frame.New(bgr.Width, bgr.Height)
	for i := 0; i < len(bgr.Pix); i += frame.Channels {
		b, g, r := bgr.Pix[i], bgr.Pix[i+1], bgr.Pix[i+2]
		key := uint32(b)<<16 | uint32(g)<<8 | uint32(r)
		hsv, ok := cache[key]
		if !ok {
			h, s, v := PixelToHSV(b, g, r)
			hsv = [3]uint8{h, s, v}
			cache[key] = hsv
		}
		out.Pix[i], out.Pix[i+1], out.Pix[i+2] = hsv[0], hsv[1], hsv[2]
	}
	return out, nil
}

// PixelToHSV converts a single BGR pixel.
func PixelToHSV(b, g, r uint8) (uint8, uint8, uint8) {
	c := colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
	h, s, v := c.Hsv()

	hue := int(math.Round(h/2)) % 180
	return uint8(hue), uint8(math.Round(s * 255)), uint8(math.Round(v * 255))
}
