package conversion

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"chroma-reco/internal/opencv/safe"
)

// ResizeMat scales src to the requested size. It returns src unchanged when
// the size already matches.
func ResizeMat(src *safe.Mat, newWidth, newHeight int, interpolation gocv.InterpolationFlags) (*safe.Mat, error) {
	if err := safe.ValidateMatForOperation(src, "resize"); err != nil {
		return nil, err
	}
	if err := safe.ValidateDimensions(newWidth, newHeight, "resize"); err != nil {
		return nil, err
	}
	if src.Cols() == newWidth && src.Rows() == newHeight {
		return src, nil
	}

	dst := gocv.NewMat()
	gocv.Resize(src.GetMat(), &dst, image.Pt(newWidth, newHeight), 0, 0, interpolation)
	if dst.Empty() {
		dst.Close()
		return nil, fmt.Errorf("resize to %dx%d produced an empty Mat", newWidth, newHeight)
	}
	return safe.Adopt(dst, src.Tag()+"_resized")
}
