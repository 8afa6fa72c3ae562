// Package capture defines the frame source contract and the still-image
// source used for offline classification.
package capture

import (
	"errors"
	"fmt"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"chroma-reco/internal/frame"
)

var (
	ErrEndOfStream = errors.New("no more frames")
	ErrClosed      = errors.New("source closed")
)

// Source yields BGR frames one at a time.
type Source interface {
	Read() (*frame.Frame, error)
	Close() error
}

// Still repeats one decoded image forever.
type Still struct {
	frame  *frame.Frame
	closed bool
}

// OpenStill decodes an image file (png, jpeg, gif, tiff, bmp, webp).
func OpenStill(path string) (*Still, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to open image %s: %w", path, err)
	}
	return NewStill(frame.FromImage(img)), nil
}

func NewStill(f *frame.Frame) *Still {
	return &Still{frame: f}
}

// Read returns a fresh copy so callers may draw on it.
func (s *Still) Read() (*frame.Frame, error) {
	if s.closed {
		return nil, ErrClosed
	}
	return s.frame.Clone(), nil
}

func (s *Still) Close() error {
	s.closed = true
	return nil
}

// SaveImage writes a BGR frame to path; the format follows the extension.
func SaveImage(f *frame.Frame, path string) error {
	if err := imaging.Save(f.ToImage(), path); err != nil {
		return fmt.Errorf("failed to save image %s: %w", path, err)
	}
	return nil
}
