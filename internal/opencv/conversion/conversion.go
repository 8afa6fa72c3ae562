package conversion

import (
	"encoding/binary"
	"fmt"

	"gocv.io/x/gocv"

	"chroma-reco/internal/frame"
	"chroma-reco/internal/opencv/safe"
)

// MatToFrame copies an 8-bit BGR Mat into a frame. Gray and BGRA inputs are
// converted to BGR first.
func MatToFrame(src *safe.Mat) (*frame.Frame, error) {
	if err := safe.ValidateMatForOperation(src, "Mat to frame conversion"); err != nil {
		return nil, err
	}

	bgr, err := ToBGR(src)
	if err != nil {
		return nil, err
	}
	if bgr != src {
		defer bgr.Close()
	}

	mat := bgr.GetMat()
	if !mat.IsContinuous() {
		cont := mat.Clone()
		defer cont.Close()
		mat = cont
	}

	data, err := mat.DataPtrUint8()
	if err != nil {
		return nil, fmt.Errorf("Mat data access failed: %w", err)
	}

	f := frame.New(mat.Cols(), mat.Rows())
	if len(data) < len(f.Pix) {
		return nil, fmt.Errorf("Mat holds %d bytes, want %d", len(data), len(f.Pix))
	}
	copy(f.Pix, data)
	return f, nil
}

// FrameToMat copies a frame into a new CV_8UC3 Mat.
func FrameToMat(f *frame.Frame, tag string) (*safe.Mat, error) {
	if f.Empty() {
		return nil, fmt.Errorf("frame is empty for %s", tag)
	}

	dst, err := safe.NewMat(f.Height, f.Width, gocv.MatTypeCV8UC3, tag)
	if err != nil {
		return nil, err
	}

	data, err := dst.GetMat().DataPtrUint8()
	if err != nil {
		dst.Close()
		return nil, fmt.Errorf("Mat data access failed: %w", err)
	}
	copy(data, f.Pix)
	return dst, nil
}

// LabelsToMat copies a label map into a new CV_32S Mat.
func LabelsToMat(m *frame.LabelMap, tag string) (*safe.Mat, error) {
	if err := safe.ValidateDimensions(m.Width, m.Height, tag); err != nil {
		return nil, err
	}

	buf := make([]byte, 4*len(m.Labels))
	for i, v := range m.Labels {
		binary.NativeEndian.PutUint32(buf[4*i:], uint32(v))
	}

	mat, err := gocv.NewMatFromBytes(m.Height, m.Width, gocv.MatTypeCV32S, buf)
	if err != nil {
		return nil, fmt.Errorf("label Mat creation failed: %w", err)
	}
	// NewMatFromBytes borrows buf; clone so the Mat owns its memory.
	owned := mat.Clone()
	mat.Close()
	return safe.Adopt(owned, tag)
}

// MatToLabels copies a CV_32S Mat into a label map.
func MatToLabels(src *safe.Mat) (*frame.LabelMap, error) {
	if err := safe.ValidateMatForOperation(src, "Mat to labels conversion"); err != nil {
		return nil, err
	}
	if err := safe.ValidateMatType(src, gocv.MatTypeCV32S, "Mat to labels conversion"); err != nil {
		return nil, err
	}

	buf := src.GetMat().ToBytes()
	m := frame.NewLabelMap(src.Cols(), src.Rows(), 0)
	if len(buf) != 4*len(m.Labels) {
		return nil, fmt.Errorf("label Mat holds %d bytes, want %d", len(buf), 4*len(m.Labels))
	}
	for i := range m.Labels {
		m.Labels[i] = int32(binary.NativeEndian.Uint32(buf[4*i:]))
	}
	return m, nil
}

// BoolsToMat copies a row-major bit mask into a new CV_8UC1 Mat holding 0 or 255.
func BoolsToMat(bits []bool, width, height int, tag string) (*safe.Mat, error) {
	if err := safe.ValidateDimensions(width, height, tag); err != nil {
		return nil, err
	}
	if len(bits) != width*height {
		return nil, fmt.Errorf("mask holds %d bits, want %d", len(bits), width*height)
	}

	buf := make([]byte, len(bits))
	for i, on := range bits {
		if on {
			buf[i] = 0xff
		}
	}

	mat, err := gocv.NewMatFromBytes(height, width, gocv.MatTypeCV8UC1, buf)
	if err != nil {
		return nil, fmt.Errorf("mask Mat creation failed: %w", err)
	}
	owned := mat.Clone()
	mat.Close()
	return safe.Adopt(owned, tag)
}

// MatToBools reads a CV_8UC1 Mat as a bit mask; any non-zero byte is set.
func MatToBools(src *safe.Mat) ([]bool, error) {
	if err := safe.ValidateMatForOperation(src, "Mat to mask conversion"); err != nil {
		return nil, err
	}
	if err := safe.ValidateMatType(src, gocv.MatTypeCV8UC1, "Mat to mask conversion"); err != nil {
		return nil, err
	}

	buf := src.GetMat().ToBytes()
	if len(buf) != src.Rows()*src.Cols() {
		return nil, fmt.Errorf("mask Mat holds %d bytes, want %d", len(buf), src.Rows()*src.Cols())
	}
	bits := make([]bool, len(buf))
	for i, b := range buf {
		bits[i] = b != 0
	}
	return bits, nil
}

// ToBGR returns src itself when it is already 8-bit BGR, otherwise a converted copy
// the caller must close.
func ToBGR(src *safe.Mat) (*safe.Mat, error) {
	var code gocv.ColorConversionCode
	switch src.Type() {
	case gocv.MatTypeCV8UC3:
		return src, nil
	case gocv.MatTypeCV8UC1:
		code = gocv.ColorGrayToBGR
	case gocv.MatTypeCV8UC4:
		code = gocv.ColorBGRAToBGR
	default:
		return nil, fmt.Errorf("unsupported MatType %d for BGR conversion", int(src.Type()))
	}

	return convert(src, code, "bgr")
}

func convert(src *safe.Mat, code gocv.ColorConversionCode, tag string) (*safe.Mat, error) {
	if err := safe.ValidateColorConversion(src, code); err != nil {
		return nil, err
	}

	dst := gocv.NewMat()
	gocv.CvtColor(src.GetMat(), &dst, code)
	return safe.Adopt(dst, src.Tag()+"_"+tag)
}
