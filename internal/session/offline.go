package session

import (
	"fmt"

	"chroma-reco/internal/frame"
)

// Teach replays a teaching session from still images: background is learned
// as the background class and each object image contributes one sample from
// its centred window and becomes its own class. Recognition is switched on
// when done.
func (e *Engine) Teach(background *frame.Frame, objects []*frame.Frame) error {
	if background != nil {
		if _, err := e.LearnBackground(background); err != nil {
			return fmt.Errorf("learn background: %w", err)
		}
	}

	for i, obj := range objects {
		if _, err := e.AddSample(obj); err != nil {
			return fmt.Errorf("object %d: %w", i+1, err)
		}
		if _, err := e.CommitObject(); err != nil {
			return fmt.Errorf("object %d: %w", i+1, err)
		}
	}

	if !e.recognizing {
		if _, err := e.ToggleRecognition(); err != nil {
			return err
		}
	}
	return nil
}
