package safe

import (
	"fmt"

	"gocv.io/x/gocv"
)

// MaxDimension bounds accepted frame edges.
const MaxDimension = 32768

func ValidateMatForOperation(mat *Mat, operation string) error {
	if mat == nil {
		return fmt.Errorf("Mat is nil for operation: %s", operation)
	}

	if !mat.IsValid() {
		return fmt.Errorf("Mat %d (%s) is closed for operation: %s", mat.ID(), mat.Tag(), operation)
	}

	if mat.Empty() {
		return fmt.Errorf("Mat %d (%s) is empty for operation: %s", mat.ID(), mat.Tag(), operation)
	}

	if mat.Rows() <= 0 || mat.Cols() <= 0 {
		return fmt.Errorf("Mat has invalid dimensions %dx%d for operation: %s",
			mat.Cols(), mat.Rows(), operation)
	}

	return nil
}

func ValidateColorConversion(src *Mat, code gocv.ColorConversionCode) error {
	if err := ValidateMatForOperation(src, "CvtColor"); err != nil {
		return err
	}

	channels := src.Channels()

	switch code {
	case gocv.ColorBGRToHSV, gocv.ColorBGRToGray:
		if channels != 3 {
			return fmt.Errorf("BGR conversion requires 3 channels, got %d", channels)
		}
	case gocv.ColorGrayToBGR:
		if channels != 1 {
			return fmt.Errorf("Gray to BGR conversion requires 1 channel, got %d", channels)
		}
	case gocv.ColorBGRAToBGR:
		if channels != 4 {
			return fmt.Errorf("BGRA to BGR conversion requires 4 channels, got %d", channels)
		}
	}

	return nil
}

func ValidateDimensions(width, height int, operation string) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid dimensions %dx%d for operation: %s", width, height, operation)
	}

	if width > MaxDimension || height > MaxDimension {
		return fmt.Errorf("dimensions %dx%d exceed maximum size for operation: %s", width, height, operation)
	}

	return nil
}

func ValidateMatType(mat *Mat, want gocv.MatType, operation string) error {
	if got := mat.Type(); got != want {
		return fmt.Errorf("unsupported MatType %d for operation: %s, want %d", int(got), operation, int(want))
	}
	return nil
}
