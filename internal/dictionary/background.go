package dictionary

import (
	"fmt"
	"image"

	"chroma-reco/internal/fingerprint"
	"chroma-reco/internal/frame"
)

// DefaultBackgroundTile is the tile edge used when scanning a background frame.
const DefaultBackgroundTile = 128

// Tiles lists the tile rectangles covering the largest multiple of size in
// each dimension, row by row. Trailing partial strips are left out.
func Tiles(bounds image.Rectangle, size int) []image.Rectangle {
	if size <= 0 {
		return nil
	}
	var tiles []image.Rectangle
	for y := bounds.Min.Y; y+size <= bounds.Max.Y; y += size {
		for x := bounds.Min.X; x+size <= bounds.Max.X; x += size {
			tiles = append(tiles, image.Rect(x, y, x+size, y+size))
		}
	}
	return tiles
}

// BackgroundCandidates computes one descriptor per background tile of an HSV
// frame.
func BackgroundCandidates(hsv *frame.Frame, tile int) ([]fingerprint.Descriptor, error) {
	tiles := Tiles(hsv.Bounds(), tile)
	if len(tiles) == 0 {
		return nil, fmt.Errorf("%w: frame %dx%d smaller than tile %d", fingerprint.ErrEmptyRegion, hsv.Width, hsv.Height, tile)
	}

	out := make([]fingerprint.Descriptor, 0, len(tiles))
	for _, r := range tiles {
		d, err := fingerprint.FromRegion(hsv, r)
		if err != nil {
			return nil, fmt.Errorf("background tile %v: %w", r, err)
		}
		out = append(out, d)
	}
	return out, nil
}

// LearnBackground scans hsv and feeds every tile through the dedup rule.
func (d *Dictionary) LearnBackground(hsv *frame.Frame, tile int, threshold float64) (int, error) {
	candidates, err := BackgroundCandidates(hsv, tile)
	if err != nil {
		return 0, err
	}
	return d.AddBackground(candidates, threshold)
}
