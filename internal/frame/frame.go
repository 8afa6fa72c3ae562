// Package frame holds the pixel containers shared by the recognizer: 3-channel
// 8-bit frames (BGR as captured, HSV after conversion) and integer label maps.
package frame

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

const Channels = 3

var ErrSizeMismatch = errors.New("frame sizes differ")

// Frame is a row-major, interleaved 3-channel 8-bit image. Channel order is
// B,G,R for camera frames and H,S,V after conversion.
type Frame struct {
	Width  int
	Height int
	Pix    []uint8
}

func New(width, height int) *Frame {
	if width < 0 || height < 0 {
		width, height = 0, 0
	}
	return &Frame{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*Channels),
	}
}

// FromBytes wraps an existing buffer without copying.
func FromBytes(width, height int, pix []uint8) (*Frame, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid dimensions: %dx%d", width, height)
	}
	if len(pix) != width*height*Channels {
		return nil, fmt.Errorf("buffer holds %d bytes, want %d for %dx%d", len(pix), width*height*Channels, width, height)
	}
	return &Frame{Width: width, Height: height, Pix: pix}, nil
}

func (f *Frame) Bounds() image.Rectangle {
	return image.Rect(0, 0, f.Width, f.Height)
}

func (f *Frame) Empty() bool {
	return f == nil || f.Width <= 0 || f.Height <= 0
}

func (f *Frame) offset(x, y int) int {
	return (y*f.Width + x) * Channels
}

func (f *Frame) At(x, y int) (uint8, uint8, uint8) {
	i := f.offset(x, y)
	return f.Pix[i], f.Pix[i+1], f.Pix[i+2]
}

func (f *Frame) Set(x, y int, c0, c1, c2 uint8) {
	i := f.offset(x, y)
	f.Pix[i], f.Pix[i+1], f.Pix[i+2] = c0, c1, c2
}

// SetColor stores an RGBA color in BGR order.
func (f *Frame) SetColor(x, y int, c color.RGBA) {
	f.Set(x, y, c.B, c.G, c.R)
}

// Fill paints r, clipped to the frame, with c in BGR order.
func (f *Frame) Fill(r image.Rectangle, c color.RGBA) {
	r = r.Intersect(f.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			f.SetColor(x, y, c)
		}
	}
}

// Row returns the pixel bytes of row y between x0 and x1.
func (f *Frame) Row(y, x0, x1 int) []uint8 {
	return f.Pix[f.offset(x0, y):f.offset(x1, y)]
}

func (f *Frame) Clone() *Frame {
	pix := make([]uint8, len(f.Pix))
	copy(pix, f.Pix)
	return &Frame{Width: f.Width, Height: f.Height, Pix: pix}
}

// FromImage converts any image to a BGR frame.
func FromImage(img image.Image) *Frame {
	nrgba := imaging.Clone(img)
	b := nrgba.Bounds()
	f := New(b.Dx(), b.Dy())
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			i := nrgba.PixOffset(x+b.Min.X, y+b.Min.Y)
			f.Set(x, y, nrgba.Pix[i+2], nrgba.Pix[i+1], nrgba.Pix[i])
		}
	}
	return f
}

// ToImage converts a BGR frame to an opaque NRGBA image.
func (f *Frame) ToImage() *image.NRGBA {
	img := image.NewNRGBA(f.Bounds())
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			b, g, r := f.At(x, y)
			i := img.PixOffset(x, y)
			img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = r, g, b, 0xff
		}
	}
	return img
}

// Grayscale returns the BGR frame with every pixel replaced by its luma.
func (f *Frame) Grayscale() *Frame {
	return FromImage(imaging.Grayscale(f.ToImage()))
}

// Blend mixes top over base: alpha*top + (1-alpha)*base.
func Blend(base, top *Frame, alpha float64) (*Frame, error) {
	if base.Width != top.Width || base.Height != top.Height {
		return nil, fmt.Errorf("%w: %dx%d vs %dx%d", ErrSizeMismatch, base.Width, base.Height, top.Width, top.Height)
	}
	out := imaging.Overlay(base.ToImage(), top.ToImage(), image.Pt(0, 0), alpha)
	return FromImage(out), nil
}

// StrokeRect draws the 1px outline of r, clipped to the frame.
func (f *Frame) StrokeRect(r image.Rectangle, c color.RGBA) {
	r = r.Canon()
	if r.Empty() {
		return
	}
	f.Fill(image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+1), c)
	f.Fill(image.Rect(r.Min.X, r.Max.Y-1, r.Max.X, r.Max.Y), c)
	f.Fill(image.Rect(r.Min.X, r.Min.Y, r.Min.X+1, r.Max.Y), c)
	f.Fill(image.Rect(r.Max.X-1, r.Min.Y, r.Max.X, r.Max.Y), c)
}

// CenteredSquare returns the size x size square centred in bounds.
func CenteredSquare(bounds image.Rectangle, size int) image.Rectangle {
	cx := bounds.Min.X + bounds.Dx()/2
	cy := bounds.Min.Y + bounds.Dy()/2
	return image.Rect(cx-size/2, cy-size/2, cx-size/2+size, cy-size/2+size)
}
