package fingerprint

import (
	"image"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chroma-reco/internal/frame"
)

// randomDescriptor draws a sparse random histogram normalized to one.
func randomDescriptor(rng *rand.Rand) Descriptor {
	var bins [Size]float64
	var total float64
	for n := rng.Intn(40) + 1; n > 0; n-- {
		i := rng.Intn(Size)
		w := rng.Float64()
		bins[i] += w
		total += w
	}
	for i := range bins {
		bins[i] /= total
	}
	d, err := FromBins(bins, 1)
	if err != nil {
		panic(err)
	}
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

func TestBinIndexQuantization(t *testing.T) {
	assert.Equal(t, 0, BinIndex(0, 0, 0))
	assert.Equal(t, 64+8+1, BinIndex(32, 32, 64))
	assert.Equal(t, 7*64+7*8+3, BinIndex(255, 255, 255))
	// value divides by 64: 63 and 64 fall in different slots, 127 and 64 do not
	assert.NotEqual(t, BinIndex(0, 0, 63), BinIndex(0, 0, 64))
	assert.Equal(t, BinIndex(0, 0, 64), BinIndex(0, 0, 127))
}

func TestBuildNormalizes(t *testing.T) {
	d, err := Build([][3]uint8{{0, 0, 0}, {0, 0, 0}, {40, 200, 250}, {40, 200, 250}})
	require.NoError(t, err)

	assert.Equal(t, 4, d.Count())
	assert.True(t, d.Finalized())
	assert.InDelta(t, 1.0, d.Sum(), 1e-12)

	bins := d.Bins()
	assert.InDelta(t, 0.5, bins[BinIndex(0, 0, 0)], 1e-12)
	assert.InDelta(t, 0.5, bins[BinIndex(40, 200, 250)], 1e-12)
}

func TestBuildEmptyRegion(t *testing.T) {
	_, err := Build(nil)
	assert.ErrorIs(t, err, ErrEmptyRegion)

	var d Descriptor
	assert.ErrorIs(t, d.Finalize(), ErrEmptyRegion)
	for _, v := range d.Bins() {
		assert.False(t, math.IsNaN(v))
	}
}

func TestAddAfterFinalize(t *testing.T) {
	var d Descriptor
	require.NoError(t, d.Add(1, 2, 3))
	require.NoError(t, d.Finalize())

	assert.ErrorIs(t, d.Add(1, 2, 3), ErrFinalized)
	assert.ErrorIs(t, d.Finalize(), ErrFinalized)
}

func TestFromRegion(t *testing.T) {
	hsv := uniformHSV(10, 10, 0, 0, 128)
	for y := 0; y < 10; y++ {
		for x := 5; x < 10; x++ {
			hsv.Set(x, y, 0, 255, 255)
		}
	}

	left, err := FromRegion(hsv, image.Rect(0, 0, 5, 10))
	require.NoError(t, err)
	assert.Equal(t, 50, left.Count())
	assert.InDelta(t, 1.0, left.Bins()[BinIndex(0, 0, 128)], 1e-12)

	whole, err := FromRegion(hsv, hsv.Bounds())
	require.NoError(t, err)
	assert.InDelta(t, 0.5, whole.Bins()[BinIndex(0, 255, 255)], 1e-12)
}

func TestFromRegionRejectsDegenerate(t *testing.T) {
	hsv := uniformHSV(8, 8, 0, 0, 0)

	_, err := FromRegion(hsv, image.Rect(2, 2, 2, 6))
	assert.ErrorIs(t, err, ErrEmptyRegion)

	_, err = FromRegion(hsv, image.Rect(4, 4, 12, 12))
	assert.ErrorIs(t, err, ErrEmptyRegion)
}

func TestDistanceIdentityAndSymmetry(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		a, b := randomDescriptor(rng), randomDescriptor(rng)

		assert.Zero(t, Distance(&a, &a))
		assert.Equal(t, Distance(&a, &b), Distance(&b, &a))
	}
}

func TestDistanceBounded(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 1000; i++ {
		a, b := randomDescriptor(rng), randomDescriptor(rng)
		d := Distance(&a, &b)

		require.GreaterOrEqual(t, d, 0.0)
		require.LessOrEqual(t, d, 1.0+1e-12)
	}
}

func TestDistanceDisjointIsOne(t *testing.T) {
	a, err := Build([][3]uint8{{0, 0, 0}})
	require.NoError(t, err)
	b, err := Build([][3]uint8{{255, 255, 255}})
	require.NoError(t, err)

	assert.InDelta(t, 1.0, Distance(&a, &b), 1e-12)
}

func TestNearest(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	q := randomDescriptor(rng)
	other := randomDescriptor(rng)

	idx, dist, err := Nearest(&q, []Descriptor{other, q, q})
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
	assert.Zero(t, dist)

	d, err := NearestDistance(&q, []Descriptor{other})
	require.NoError(t, err)
	assert.Equal(t, Distance(&q, &other), d)
}

func TestNearestEmptySet(t *testing.T) {
	var q Descriptor
	_, err := NearestDistance(&q, nil)
	assert.ErrorIs(t, err, ErrEmptyPrototypeSet)
}

func BenchmarkDistance(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	x, y := randomDescriptor(rng), randomDescriptor(rng)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Distance(&x, &y)
	}
}

func TestFromBinsRejectsBadHistograms(t *testing.T) {
	var valid [Size]float64
	valid[3], valid[40] = 0.25, 0.75
	d, err := FromBins(valid, 4)
	require.NoError(t, err)
	assert.True(t, d.Finalized())
	assert.InDelta(t, 1, d.Sum(), 1e-12)

	nan := valid
	nan[7] = math.NaN()
	inf := valid
	inf[7] = math.Inf(1)
	negative := valid
	negative[3], negative[7] = 0.5, -0.25
	var unnormalized [Size]float64
	unnormalized[0] = 2

	for name, bins := range map[string][Size]float64{
		"nan":          nan,
		"inf":          inf,
		"negative":     negative,
		"unnormalized": unnormalized,
	} {
		_, err := FromBins(bins, 1)
		assert.ErrorIs(t, err, ErrInvalidBins, name)
	}

	_, err = FromBins(valid, 0)
	assert.ErrorIs(t, err, ErrInvalidBins)
}
