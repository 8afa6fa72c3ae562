package app

import (
	"context"

	"gocv.io/x/gocv"

	"chroma-reco/internal/logger"
	"chroma-reco/internal/shutdown"
)

// Lifecycle owns teardown. Off-thread resources go through the shutdown
// manager; the window is closed on the calling goroutine afterwards.
type Lifecycle struct {
	manager *shutdown.Manager
	window  *gocv.Window
	logger  logger.Logger
	closed  bool
}

func NewLifecycle(manager *shutdown.Manager, window *gocv.Window, log logger.Logger) *Lifecycle {
	return &Lifecycle{
		manager: manager,
		window:  window,
		logger:  log,
	}
}

func (l *Lifecycle) Listen() {
	l.manager.Listen()
}

func (l *Lifecycle) Context() context.Context {
	return l.manager.Context()
}

func (l *Lifecycle) Shutdown() error {
	if l.closed {
		return nil
	}
	l.closed = true

	l.logger.Info(component, "shutting down", nil)
	err := l.manager.Shutdown()
	if l.window != nil {
		l.window.Close()
	}
	return err
}
