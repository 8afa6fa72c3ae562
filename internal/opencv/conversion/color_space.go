package conversion

import (
	"fmt"

	"gocv.io/x/gocv"

	"chroma-reco/internal/frame"
	"chroma-reco/internal/opencv/safe"
)

// HSVConverter delegates BGR to HSV conversion to OpenCV. The result uses the
// 8-bit layout: H in [0,180), S and V in [0,255].
type HSVConverter struct{}

func (HSVConverter) ToHSV(bgr *frame.Frame) (*frame.Frame, error) {
	src, err := FrameToMat(bgr, "hsv_src")
	if err != nil {
		return nil, err
	}
	defer src.Close()

	dst, err := ConvertBGRToHSV(src)
	if err != nil {
		return nil, err
	}
	defer dst.Close()

	return MatToFrame(dst)
}

// ConvertBGRToHSV converts BGR image to HSV color space
func ConvertBGRToHSV(src *safe.Mat) (*safe.Mat, error) {
	if err := validateBGRMat(src); err != nil {
		return nil, err
	}
	return convert(src, gocv.ColorBGRToHSV, "hsv")
}

func validateBGRMat(mat *safe.Mat) error {
	if err := safe.ValidateMatForOperation(mat, "BGR validation"); err != nil {
		return err
	}
	if mat.Channels() != 3 {
		return fmt.Errorf("BGR Mat requires 3 channels, got %d", mat.Channels())
	}
	return nil
}
