package dictionary

import (
	"image"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chroma-reco/internal/fingerprint"
	"chroma-reco/internal/frame"
)

func solid(t *testing.T, h, s, v uint8) fingerprint.Descriptor {
	t.Helper()
	d, err := fingerprint.Build([][3]uint8{{h, s, v}})
	require.NoError(t, err)
	return d
}

func uniformHSV(w, h int, hue, sat, val uint8) *frame.Frame {
	f := frame.New(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			f.Set(x, y, hue, sat, val)
		}
	}
	return f
}

func TestMaybeAddBootstrap(t *testing.T) {
	for _, threshold := range []float64{0, 0.05, 0.5, 1} {
		outcome, protos := MaybeAdd(solid(t, 0, 0, 0), nil, threshold)
		assert.True(t, outcome.Added)
		assert.True(t, math.IsInf(outcome.MinDistance, 1))
		assert.Len(t, protos, 1)
	}
}

func TestMaybeAddIdempotent(t *testing.T) {
	d := solid(t, 10, 20, 30)

	first, protos := MaybeAdd(d, nil, 0.05)
	require.True(t, first.Added)

	second, protos := MaybeAdd(d, protos, 0.05)
	assert.False(t, second.Added)
	assert.Zero(t, second.MinDistance)
	assert.Len(t, protos, 1)
}

func TestMaybeAddThresholdIsStrict(t *testing.T) {
	a := solid(t, 0, 0, 0)
	b := solid(t, 255, 255, 255)

	// disjoint histograms are exactly 1.0 apart
	outcome, protos := MaybeAdd(b, []fingerprint.Descriptor{a}, 1.0)
	assert.False(t, outcome.Added)
	assert.InDelta(t, 1.0, outcome.MinDistance, 1e-12)
	assert.Len(t, protos, 1)

	outcome, protos = MaybeAdd(b, protos, 0.99)
	assert.True(t, outcome.Added)
	assert.Len(t, protos, 2)
}

func TestThresholdFromPercent(t *testing.T) {
	assert.InDelta(t, 0.05, ThresholdFromPercent(5), 1e-12)
	assert.Equal(t, 0.0, ThresholdFromPercent(-3))
	assert.Equal(t, 1.0, ThresholdFromPercent(250))
}

func TestValidateThreshold(t *testing.T) {
	assert.NoError(t, ValidateThreshold(0))
	assert.NoError(t, ValidateThreshold(1))
	assert.ErrorIs(t, ValidateThreshold(-0.1), ErrInvalidThreshold)
	assert.ErrorIs(t, ValidateThreshold(math.NaN()), ErrInvalidThreshold)
}

func TestTilesSkipsPartialStrips(t *testing.T) {
	tiles := Tiles(image.Rect(0, 0, 300, 130), 128)
	assert.Equal(t, []image.Rectangle{
		image.Rect(0, 0, 128, 128),
		image.Rect(128, 0, 256, 128),
	}, tiles)

	assert.Empty(t, Tiles(image.Rect(0, 0, 100, 100), 128))
	assert.Empty(t, Tiles(image.Rect(0, 0, 100, 100), 0))
}

func TestLearnBackgroundUniformFrame(t *testing.T) {
	dict := New(1, nil)
	gray := uniformHSV(640, 480, 0, 0, 128)

	added, err := dict.LearnBackground(gray, DefaultBackgroundTile, 0.05)
	require.NoError(t, err)
	assert.Equal(t, 1, added)
	assert.Equal(t, 1, dict.Prototypes(BackgroundIndex))

	// a second capture of the same scene adds nothing
	added, err = dict.LearnBackground(gray, DefaultBackgroundTile, 0.05)
	require.NoError(t, err)
	assert.Zero(t, added)
	assert.Equal(t, 1, dict.Len())
}

func TestLearnBackgroundKeepsDistinctTiles(t *testing.T) {
	hsv := uniformHSV(256, 128, 0, 0, 128)
	for y := 0; y < 128; y++ {
		for x := 128; x < 256; x++ {
			hsv.Set(x, y, 0, 255, 255)
		}
	}

	dict := New(1, nil)
	added, err := dict.LearnBackground(hsv, 128, 0.05)
	require.NoError(t, err)
	assert.Equal(t, 2, added)
}

func TestLearnBackgroundRejectsSmallFrame(t *testing.T) {
	dict := New(1, nil)
	_, err := dict.LearnBackground(uniformHSV(64, 64, 0, 0, 0), 128, 0.05)
	assert.ErrorIs(t, err, fingerprint.ErrEmptyRegion)
}

func TestAddBackgroundValidatesThreshold(t *testing.T) {
	dict := New(1, nil)
	_, err := dict.AddBackground([]fingerprint.Descriptor{solid(t, 0, 0, 0)}, 1.5)
	assert.ErrorIs(t, err, ErrInvalidThreshold)
	assert.False(t, dict.Ready())
}

func TestAddObjectAppendsInOrder(t *testing.T) {
	dict := New(99, nil)

	_, err := dict.AddObject("", nil)
	assert.ErrorIs(t, err, ErrNoSamples)

	idx, err := dict.AddObject("", []fingerprint.Descriptor{solid(t, 0, 255, 255)})
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	idx, err = dict.AddObject("cup", []fingerprint.Descriptor{solid(t, 100, 255, 255), solid(t, 120, 255, 255)})
	require.NoError(t, err)
	assert.Equal(t, 2, idx)

	classes := dict.Snapshot()
	require.Len(t, classes, 3)
	assert.Equal(t, BackgroundName, classes[0].Name)
	assert.Equal(t, "object-1", classes[1].Name)
	assert.Equal(t, FirstObjectColor, classes[1].Color)
	assert.Equal(t, "cup", classes[2].Name)
	assert.Len(t, classes[2].Prototypes, 2)
	assert.Equal(t, 2, dict.Objects())
	assert.True(t, dict.Ready())
}

func TestSnapshotIsIsolated(t *testing.T) {
	dict := New(1, nil)
	_, err := dict.AddObject("a", []fingerprint.Descriptor{solid(t, 0, 0, 0)})
	require.NoError(t, err)

	snap := dict.Snapshot()
	snap[1].Prototypes[0] = solid(t, 255, 255, 255)
	snap[1].Prototypes = append(snap[1].Prototypes, solid(t, 1, 1, 1))

	fresh := dict.Snapshot()
	require.Len(t, fresh[1].Prototypes, 1)
	d0 := solid(t, 0, 0, 0)
	assert.Zero(t, fingerprint.Distance(&fresh[1].Prototypes[0], &d0))
}

func TestSampleBufferDrain(t *testing.T) {
	var buf SampleBuffer
	assert.Equal(t, 1, buf.Add(solid(t, 0, 0, 0)))
	assert.Equal(t, 2, buf.Add(solid(t, 1, 1, 1)))

	samples := buf.Drain()
	assert.Len(t, samples, 2)
	assert.Zero(t, buf.Len())
	assert.Empty(t, buf.Drain())
}
