package capture

import (
	"image/color"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chroma-reco/internal/frame"
)

func TestStillRepeatsCopies(t *testing.T) {
	f := frame.New(4, 4)
	f.Fill(f.Bounds(), color.RGBA{G: 200, A: 255})
	src := NewStill(f)

	first, err := src.Read()
	require.NoError(t, err)
	first.Fill(first.Bounds(), color.RGBA{A: 255})

	second, err := src.Read()
	require.NoError(t, err)
	_, g, _ := second.At(2, 2)
	assert.Equal(t, uint8(200), g)

	require.NoError(t, src.Close())
	_, err = src.Read()
	assert.ErrorIs(t, err, ErrClosed)
}

func TestSaveAndOpenStill(t *testing.T) {
	f := frame.New(6, 3)
	f.Fill(f.Bounds(), color.RGBA{R: 10, G: 20, B: 30, A: 255})

	path := filepath.Join(t.TempDir(), "frame.png")
	require.NoError(t, SaveImage(f, path))

	src, err := OpenStill(path)
	require.NoError(t, err)
	got, err := src.Read()
	require.NoError(t, err)
	assert.Equal(t, f.Pix, got.Pix)
}

func TestOpenStillMissingFile(t *testing.T) {
	_, err := OpenStill(filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
}
