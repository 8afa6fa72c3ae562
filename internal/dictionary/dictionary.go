// Package dictionary owns the ordered set of classes the recognizer matches
// against. Slot 0 is background; taught objects follow in registration order.
package dictionary

import (
	"errors"
	"fmt"
	"image/color"
	"math/rand"
	"sync"

	"chroma-reco/internal/fingerprint"
	"chroma-reco/internal/logger"
)

const (
	BackgroundIndex = 0
	BackgroundName  = "background"
)

var (
	ErrInvalidThreshold = errors.New("distance threshold outside [0, 1]")
	ErrNoSamples        = errors.New("no samples collected for the current object")
)

// BackgroundColor paints background tiles.
var BackgroundColor = color.RGBA{A: 0xff}

// FirstObjectColor is used for the first taught object. Later objects get
// random colors.
var FirstObjectColor = color.RGBA{R: 0xff, A: 0xff}

// Class is one entry of the dictionary.
type Class struct {
	Name       string
	Color      color.RGBA
	Prototypes []fingerprint.Descriptor
}

func (c Class) clone() Class {
	protos := make([]fingerprint.Descriptor, len(c.Prototypes))
	copy(protos, c.Prototypes)
	c.Prototypes = protos
	return c
}

// Dictionary is safe for concurrent use: readers take a Snapshot per frame
// while the control loop appends.
type Dictionary struct {
	mu      sync.RWMutex
	classes []Class
	rng     *rand.Rand
	logger  logger.Logger
}

func New(seed int64, log logger.Logger) *Dictionary {
	if log == nil {
		log = logger.Nop{}
	}
	return &Dictionary{
		classes: []Class{{Name: BackgroundName, Color: BackgroundColor}},
		rng:     rand.New(rand.NewSource(seed)),
		logger:  log,
	}
}

// AddBackground runs each candidate through the dedup rule against the
// background set. It returns how many were kept.
func (d *Dictionary) AddBackground(candidates []fingerprint.Descriptor, threshold float64) (int, error) {
	if err := ValidateThreshold(threshold); err != nil {
		return 0, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	bg := &d.classes[BackgroundIndex]
	added := 0
	for i, candidate := range candidates {
		var outcome Outcome
		outcome, bg.Prototypes = MaybeAdd(candidate, bg.Prototypes, threshold)
		fields := map[string]interface{}{
			"tile":         i,
			"min_distance": outcome.MinDistance,
			"threshold":    threshold,
		}
		if outcome.Added {
			added++
			d.logger.Debug("Dictionary", "background prototype added", fields)
		} else {
			d.logger.Debug("Dictionary", "background prototype rejected", fields)
		}
	}

	d.logger.Info("Dictionary", "background learned", map[string]interface{}{
		"candidates": len(candidates),
		"added":      added,
		"prototypes": len(bg.Prototypes),
	})
	return added, nil
}

// AddObject registers a new class from the given samples and returns its
// index. Samples are kept as-is; objects are not deduplicated.
func (d *Dictionary) AddObject(name string, samples []fingerprint.Descriptor) (int, error) {
	if len(samples) == 0 {
		return 0, ErrNoSamples
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	index := len(d.classes)
	if name == "" {
		name = fmt.Sprintf("object-%d", index)
	}

	protos := make([]fingerprint.Descriptor, len(samples))
	copy(protos, samples)
	d.classes = append(d.classes, Class{
		Name:       name,
		Color:      d.nextColor(index),
		Prototypes: protos,
	})

	d.logger.Info("Dictionary", "object committed", map[string]interface{}{
		"index":   index,
		"name":    name,
		"samples": len(protos),
	})
	return index, nil
}

func (d *Dictionary) nextColor(index int) color.RGBA {
	if index == 1 {
		return FirstObjectColor
	}
	return color.RGBA{
		R: uint8(d.rng.Intn(256)),
		G: uint8(d.rng.Intn(256)),
		B: uint8(d.rng.Intn(256)),
		A: 0xff,
	}
}

// Snapshot returns a deep copy safe to read while the dictionary changes.
func (d *Dictionary) Snapshot() []Class {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]Class, len(d.classes))
	for i, c := range d.classes {
		out[i] = c.clone()
	}
	return out
}

// Len counts classes including the background slot.
func (d *Dictionary) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.classes)
}

// Objects counts taught object classes.
func (d *Dictionary) Objects() int {
	return d.Len() - 1
}

// Ready reports whether any class holds a prototype.
func (d *Dictionary) Ready() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, c := range d.classes {
		if len(c.Prototypes) > 0 {
			return true
		}
	}
	return false
}

// Prototypes returns the number of prototypes of class index.
func (d *Dictionary) Prototypes(index int) int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if index < 0 || index >= len(d.classes) {
		return 0
	}
	return len(d.classes[index].Prototypes)
}
