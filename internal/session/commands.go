package session

import (
	"chroma-reco/internal/frame"
)

// Command is one discrete user action.
type Command int

const (
	None Command = iota
	Quit
	Freeze
	CompareHalves
	LearnBackground
	AddSample
	CommitObject
	ToggleRecognition
	ToggleRefinement
)

const keyEscape = 27

var commandNames = map[Command]string{
	None:              "none",
	Quit:              "quit",
	Freeze:            "freeze",
	CompareHalves:     "compare-halves",
	LearnBackground:   "learn-background",
	AddSample:         "add-sample",
	CommitObject:      "commit-object",
	ToggleRecognition: "toggle-recognition",
	ToggleRefinement:  "toggle-refinement",
}

func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return "unknown"
}

// CommandForKey maps a key code, as returned by a highgui wait, to a command.
func CommandForKey(key int) Command {
	if key < 0 {
		return None
	}
	switch key & 0xff {
	case keyEscape, 'q':
		return Quit
	case 'f':
		return Freeze
	case 'v':
		return CompareHalves
	case 'b':
		return LearnBackground
	case 'a':
		return AddSample
	case 'n':
		return CommitObject
	case 'r':
		return ToggleRecognition
	case 'w':
		return ToggleRefinement
	default:
		return None
	}
}

// Handle applies cmd to the engine using bgr as the current frame. Quit and
// None are no-ops here; the caller owns the loop.
func (e *Engine) Handle(cmd Command, bgr *frame.Frame) error {
	var err error
	switch cmd {
	case Freeze:
		e.ToggleFreeze()
	case CompareHalves:
		_, err = e.CompareHalves(bgr)
	case LearnBackground:
		_, err = e.LearnBackground(bgr)
	case AddSample:
		_, err = e.AddSample(bgr)
	case CommitObject:
		_, err = e.CommitObject()
	case ToggleRecognition:
		_, err = e.ToggleRecognition()
	case ToggleRefinement:
		_, err = e.ToggleRefinement()
	}
	return err
}
