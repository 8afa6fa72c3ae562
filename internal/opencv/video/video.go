// Package video reads camera and video-file frames through OpenCV.
package video

import (
	"fmt"
	"strconv"
	"sync"

	"gocv.io/x/gocv"

	"chroma-reco/internal/capture"
	"chroma-reco/internal/frame"
	"chroma-reco/internal/logger"
	"chroma-reco/internal/opencv/conversion"
	"chroma-reco/internal/opencv/safe"
)

// Video reads from a camera index or a video file through gocv. It implements
// capture.Source.
type Video struct {
	mu     sync.Mutex
	cap    *gocv.VideoCapture
	mat    gocv.Mat
	width  int
	height int
	logger logger.Logger
	closed bool
}

// OpenVideo opens device, which is either a camera index ("0", "1") or a path
// or URL. Frames are resized to width x height when the device ignores the
// requested size.
func OpenVideo(device string, width, height int, log logger.Logger) (*Video, error) {
	if err := safe.ValidateDimensions(width, height, "video capture"); err != nil {
		return nil, err
	}

	var target interface{} = device
	if id, err := strconv.Atoi(device); err == nil {
		target = id
	}

	vc, err := gocv.OpenVideoCapture(target)
	if err != nil {
		return nil, fmt.Errorf("couldn't open camera or video %q: %w", device, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("couldn't open camera or video %q", device)
	}

	vc.Set(gocv.VideoCaptureFrameWidth, float64(width))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(height))

	log.Info("Capture", "video source opened", map[string]interface{}{
		"device":       device,
		"width":        width,
		"height":       height,
		"reported_fps": vc.Get(gocv.VideoCaptureFPS),
	})

	return &Video{
		cap:    vc,
		mat:    gocv.NewMat(),
		width:  width,
		height: height,
		logger: log,
	}, nil
}

var _ capture.Source = (*Video)(nil)

func (v *Video) Read() (*frame.Frame, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return nil, capture.ErrClosed
	}
	if ok := v.cap.Read(&v.mat); !ok || v.mat.Empty() {
		return nil, capture.ErrEndOfStream
	}

	src, err := safe.Adopt(v.mat.Clone(), "capture")
	if err != nil {
		return nil, err
	}
	defer src.Close()

	sized, err := conversion.ResizeMat(src, v.width, v.height, gocv.InterpolationLinear)
	if err != nil {
		return nil, err
	}
	if sized != src {
		defer sized.Close()
	}

	return conversion.MatToFrame(sized)
}

func (v *Video) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return nil
	}
	v.closed = true
	v.mat.Close()
	return v.cap.Close()
}
