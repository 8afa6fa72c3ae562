package shutdown

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/multierr"

	"chroma-reco/internal/logger"
)

const component = "ShutdownManager"

// DefaultTimeout bounds how long a single component may take to close.
const DefaultTimeout = 10 * time.Second

type registered struct {
	name   string
	closer io.Closer
}

// Manager cancels a context on SIGINT or SIGTERM and closes registered
// components in reverse registration order. A signal only cancels the
// context; components are closed when Shutdown is called. Each Close runs on
// its own goroutine under a timeout, so thread-bound resources such as
// highgui windows must not be registered.
type Manager struct {
	components []registered
	logger     logger.Logger
	timeout    time.Duration
	mu         sync.Mutex
	once       sync.Once
	done       chan struct{}
	err        error
	ctx        context.Context
	cancel     context.CancelFunc
}

func NewManager(parent context.Context, log logger.Logger) *Manager {
	if log == nil {
		log = logger.Nop{}
	}
	ctx, cancel := context.WithCancel(parent)

	return &Manager{
		logger:  log,
		timeout: DefaultTimeout,
		done:    make(chan struct{}),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// SetTimeout changes the per-component close timeout.
func (m *Manager) SetTimeout(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeout = d
}

func (m *Manager) Register(name string, c io.Closer) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.components = append(m.components, registered{name: name, closer: c})
}

// Listen cancels the manager context on the first interrupt or terminate
// signal. It stops listening once the context is done.
func (m *Manager) Listen() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			m.logger.Info(component, "shutdown signal received", map[string]interface{}{
				"signal": sig.String(),
			})
			m.cancel()
		case <-m.ctx.Done():
		}
	}()
}

// Shutdown cancels the context and closes every component. It is safe to
// call more than once; later calls return the first result.
func (m *Manager) Shutdown() error {
	m.once.Do(func() {
		m.cancel()

		m.mu.Lock()
		components := make([]registered, len(m.components))
		copy(components, m.components)
		timeout := m.timeout
		m.mu.Unlock()

		m.logger.Info(component, "shutdown sequence initiated", map[string]interface{}{
			"components": len(components),
		})

		for i := len(components) - 1; i >= 0; i-- {
			m.err = multierr.Append(m.err, m.closeOne(components[i], timeout))
		}

		if m.err != nil {
			m.logger.Error(component, m.err, map[string]interface{}{
				"failures": len(multierr.Errors(m.err)),
			})
		}
		m.logger.Info(component, "shutdown sequence completed", nil)
		close(m.done)
	})
	<-m.done
	return m.err
}

func (m *Manager) closeOne(r registered, timeout time.Duration) error {
	result := make(chan error, 1)
	go func() {
		result <- r.closer.Close()
	}()

	select {
	case err := <-result:
		if err != nil {
			return fmt.Errorf("close %s: %w", r.name, err)
		}
		m.logger.Debug(component, "component closed", map[string]interface{}{"component": r.name})
		return nil
	case <-time.After(timeout):
		m.logger.Warning(component, "component shutdown timeout", map[string]interface{}{
			"component": r.name,
		})
		return fmt.Errorf("close %s: timed out after %s", r.name, timeout)
	}
}

func (m *Manager) Context() context.Context {
	return m.ctx
}

func (m *Manager) Done() <-chan struct{} {
	return m.done
}
