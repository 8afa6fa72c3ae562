// Package segmentation provides the OpenCV-backed region growing used for
// boundary refinement.
package segmentation

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"chroma-reco/internal/frame"
	"chroma-reco/internal/opencv/conversion"
	"chroma-reco/internal/opencv/safe"
	"chroma-reco/internal/refine"
)

// Watershed implements refine.Segmenter with cv::watershed and cv::dilate.
// Markers use 0 for undecided pixels and positive seed ids; OpenCV writes -1
// on boundaries and on the whole outer ring, which refine.Refine discards.
type Watershed struct{}

var _ refine.Segmenter = Watershed{}

func (Watershed) Grow(bgr *frame.Frame, markers *frame.LabelMap) (*frame.LabelMap, error) {
	if bgr.Width != markers.Width || bgr.Height != markers.Height {
		return nil, fmt.Errorf("%w: frame %dx%d, markers %dx%d", frame.ErrSizeMismatch, bgr.Width, bgr.Height, markers.Width, markers.Height)
	}

	img, err := conversion.FrameToMat(bgr, "watershed_image")
	if err != nil {
		return nil, err
	}
	defer img.Close()

	seeds, err := conversion.LabelsToMat(markers, "watershed_markers")
	if err != nil {
		return nil, err
	}
	defer seeds.Close()

	gocv.Watershed(img.GetMat(), seeds.Ptr())

	return conversion.MatToLabels(seeds)
}

// Dilate widens mask with a (2r+1) square structuring element.
func (Watershed) Dilate(mask *refine.Mask, r int) (*refine.Mask, error) {
	if r <= 0 {
		return mask.Clone(), nil
	}

	src, err := conversion.BoolsToMat(mask.Bits, mask.Width, mask.Height, "dilate_src")
	if err != nil {
		return nil, err
	}
	defer src.Close()

	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(2*r+1, 2*r+1))
	defer kernel.Close()

	dst := gocv.NewMat()
	gocv.Dilate(src.GetMat(), &dst, kernel)
	out, err := safe.Adopt(dst, "dilate_dst")
	if err != nil {
		return nil, fmt.Errorf("dilation produced no data: %w", err)
	}
	defer out.Close()

	bits, err := conversion.MatToBools(out)
	if err != nil {
		return nil, err
	}
	return &refine.Mask{Width: mask.Width, Height: mask.Height, Bits: bits}, nil
}
