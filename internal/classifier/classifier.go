// Package classifier labels a frame tile by tile with the dictionary class
// whose prototypes lie closest to the tile's color descriptor.
package classifier

import (
	"errors"
	"fmt"
	"image"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"chroma-reco/internal/dictionary"
	"chroma-reco/internal/fingerprint"
	"chroma-reco/internal/frame"
)

// DefaultTileSize is the recognition tile edge.
const DefaultTileSize = 16

var (
	ErrInvalidTileSize = errors.New("tile size must be positive")
	ErrNoClasses       = errors.New("no class has prototypes")
)

// Result holds the outputs of one classification pass.
type Result struct {
	// Labels carries a class index per pixel, frame.Unlabeled where no tile fit.
	Labels *frame.LabelMap
	// Painted is the input with each visited tile filled with its class color.
	Painted *frame.Frame
	Tiles   int
}

type Classifier struct {
	tileSize int
	workers  int
}

// New builds a classifier. workers <= 0 uses GOMAXPROCS.
func New(tileSize, workers int) (*Classifier, error) {
	if tileSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTileSize, tileSize)
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Classifier{tileSize: tileSize, workers: workers}, nil
}

func (c *Classifier) TileSize() int {
	return c.tileSize
}

// Assign returns the index of the class nearest to d and the distance. Classes
// without prototypes are skipped; ties go to the lowest index.
func Assign(d *fingerprint.Descriptor, classes []dictionary.Class) (int, float64, error) {
	best, bestDist := -1, math.Inf(1)
	for i := range classes {
		if len(classes[i].Prototypes) == 0 {
			continue
		}
		dist, err := fingerprint.NearestDistance(d, classes[i].Prototypes)
		if err != nil {
			return -1, 0, err
		}
		if best < 0 || dist < bestDist {
			best, bestDist = i, dist
		}
	}
	if best < 0 {
		return -1, 0, ErrNoClasses
	}
	return best, bestDist, nil
}

// Classify labels every full tile of the HSV frame and paints the matching
// tiles of a copy of bgr. Both frames must share dimensions.
func (c *Classifier) Classify(bgr, hsv *frame.Frame, classes []dictionary.Class) (*Result, error) {
	if bgr.Width != hsv.Width || bgr.Height != hsv.Height {
		return nil, fmt.Errorf("%w: bgr %dx%d, hsv %dx%d", frame.ErrSizeMismatch, bgr.Width, bgr.Height, hsv.Width, hsv.Height)
	}
	if !hasPrototypes(classes) {
		return nil, ErrNoClasses
	}

	res := &Result{
		Labels:  frame.NewLabelMap(hsv.Width, hsv.Height, frame.Unlabeled),
		Painted: bgr.Clone(),
	}

	rows := hsv.Height / c.tileSize
	cols := hsv.Width / c.tileSize
	res.Tiles = rows * cols

	// Tile rows write disjoint pixels, so workers need no locking and the
	// output does not depend on scheduling.
	var g errgroup.Group
	g.SetLimit(c.workers)
	for row := 0; row < rows; row++ {
		y := row * c.tileSize
		g.Go(func() error {
			return c.classifyRow(hsv, classes, y, cols, res)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Classifier) classifyRow(hsv *frame.Frame, classes []dictionary.Class, y, cols int, res *Result) error {
	for col := 0; col < cols; col++ {
		x := col * c.tileSize
		tile := image.Rect(x, y, x+c.tileSize, y+c.tileSize)

		d, err := fingerprint.FromRegion(hsv, tile)
		if err != nil {
			return fmt.Errorf("tile %v: %w", tile, err)
		}
		idx, _, err := Assign(&d, classes)
		if err != nil {
			return fmt.Errorf("tile %v: %w", tile, err)
		}

		res.Labels.Fill(tile, int32(idx))
		res.Painted.Fill(tile, classes[idx].Color)
	}
	return nil
}

func hasPrototypes(classes []dictionary.Class) bool {
	for _, c := range classes {
		if len(c.Prototypes) > 0 {
			return true
		}
	}
	return false
}
