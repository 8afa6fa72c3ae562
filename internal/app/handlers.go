package app

import (
	"errors"

	"chroma-reco/internal/dictionary"
	"chroma-reco/internal/fingerprint"
	"chroma-reco/internal/session"
)

// handleCommand applies a key command. Expected refusals, such as committing
// an object with no samples, are logged and the loop keeps going.
func (a *Application) handleCommand(cmd session.Command) {
	if cmd == session.None {
		return
	}

	err := a.engine.Handle(cmd, a.current)
	switch {
	case err == nil:
		a.logger.Debug(component, "command applied", map[string]interface{}{"command": cmd.String()})
	case isRefusal(err):
		a.logger.Warning(component, err.Error(), map[string]interface{}{"command": cmd.String()})
	default:
		a.logger.Error(component, err, map[string]interface{}{"command": cmd.String()})
	}
}

func isRefusal(err error) bool {
	return errors.Is(err, session.ErrNotReady) ||
		errors.Is(err, session.ErrNoGrower) ||
		errors.Is(err, session.ErrFrameTooLow) ||
		errors.Is(err, dictionary.ErrNoSamples) ||
		errors.Is(err, fingerprint.ErrEmptyRegion)
}

// pollThreshold picks up trackbar moves. highgui trackbars are read by
// polling since gocv exposes no change callback.
func (a *Application) pollThreshold() {
	pos := a.trackbar.GetPos()
	if pos == a.lastPos {
		return
	}
	a.lastPos = pos
	a.engine.SetThresholdPercent(pos)
}

func (a *Application) reportStats() {
	period := a.cfg.Display.StatsPeriod
	if period <= 0 || a.frames == 0 || a.frames%period != 0 {
		return
	}
	fields := a.timer.Fields()
	fields["frames"] = a.frames
	fields["classes"] = a.engine.Dictionary().Len()
	fields["recognizing"] = a.engine.Recognizing()
	fields["refining"] = a.engine.Refining()
	a.logger.Debug(component, "frame timings", fields)
	a.timer.Reset()
}
