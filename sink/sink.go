package sink

import (
	"context"
	"sync"
	"time"

	"github.com/hidproxy/hidproxy/pkg"
)

// Interface identifies which composite HID interface a report targets.
type Interface int

const (
	InterfaceMouse Interface = iota
	InterfaceKeyboard

	interfaceCount
)

// AcquireTimeout is how long SendReport waits for an endpoint's semaphore
// before returning pkg.ErrBusy.
const AcquireTimeout = 100 * time.Millisecond

// Sink is the output surface the proxy writes normalized reports to.
type Sink interface {
	SendReport(ctx context.Context, iface Interface, buf []byte) error
	IsReady() bool
	Cleanup()
}

// endpoint pairs a one-slot binary semaphore with a writer callback.
type endpoint struct {
	sema   chan struct{}
	ready  bool
	writer func(buf []byte) error
}

func newEndpoint() *endpoint {
	e := &endpoint{sema: make(chan struct{}, 1)}
	e.sema <- struct{}{} // starts available
	return e
}

// Service is the singleton sink implementation: two endpoints (mouse,
// keyboard), each independently configurable and gated by its own
// semaphore, plus a global configured flag checked under acquire.
type Service struct {
	mu         sync.RWMutex
	configured bool
	endpoints  [interfaceCount]*endpoint
}

var (
	instance   *Service
	instanceMu sync.Mutex
)

// Init (re)initializes the singleton sink service, replacing any prior
// instance. Callers supply one writer function per composite interface;
// a nil writer leaves that interface permanently unready.
func Init(mouseWriter, keyboardWriter func(buf []byte) error) *Service {
	instanceMu.Lock()
	defer instanceMu.Unlock()

	s := &Service{}
	s.endpoints[InterfaceMouse] = newEndpoint()
	s.endpoints[InterfaceMouse].writer = mouseWriter
	s.endpoints[InterfaceMouse].ready = mouseWriter != nil

	s.endpoints[InterfaceKeyboard] = newEndpoint()
	s.endpoints[InterfaceKeyboard].writer = keyboardWriter
	s.endpoints[InterfaceKeyboard].ready = keyboardWriter != nil

	s.configured = true
	instance = s

	pkg.LogInfo(pkg.ComponentSink, "sink initialized",
		"mouseReady", s.endpoints[InterfaceMouse].ready,
		"keyboardReady", s.endpoints[InterfaceKeyboard].ready)
	return s
}

// Instance returns the current singleton, or nil if Init has not been
// called (or Cleanup has run since).
func Instance() *Service {
	instanceMu.Lock()
	defer instanceMu.Unlock()
	return instance
}

// SetReady marks iface's endpoint-ready state, mirroring an
// endpoint-ready callback firing on the real composite device.
func (s *Service) SetReady(iface Interface, ready bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.endpoints[iface].ready = ready
}

// SendReport writes buf to iface, acquiring its semaphore with a 100ms
// timeout. Returns pkg.ErrBusy if the semaphore could not be acquired in
// time, pkg.ErrWouldBlock if the sink is unconfigured or the interface is
// not ready.
func (s *Service) SendReport(ctx context.Context, iface Interface, buf []byte) error {
	s.mu.RLock()
	configured := s.configured
	ep := s.endpoints[iface]
	s.mu.RUnlock()

	if !configured || ep == nil || !ep.ready || ep.writer == nil {
		return pkg.ErrWouldBlock
	}

	timer := time.NewTimer(AcquireTimeout)
	defer timer.Stop()

	select {
	case <-ep.sema:
	case <-timer.C:
		return pkg.ErrBusy
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { ep.sema <- struct{}{} }()

	// Re-check configured/ready under the acquired semaphore: a Cleanup
	// or SetReady(false) racing the acquire must not write stale state.
	s.mu.RLock()
	stillConfigured := s.configured
	stillReady := ep.ready
	s.mu.RUnlock()
	if !stillConfigured {
		return pkg.ErrWouldBlock
	}
	if !stillReady {
		return pkg.ErrWouldBlock
	}

	if err := ep.writer(buf); err != nil {
		return pkg.ErrIO
	}
	return nil
}

// IsReady reports whether the sink is configured and at least one
// endpoint is ready.
func (s *Service) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.configured {
		return false
	}
	for _, ep := range s.endpoints {
		if ep != nil && ep.ready {
			return true
		}
	}
	return false
}

// Cleanup tears down the sink: clears the configured flag and all
// endpoint-ready state, and unregisters s as the singleton if it still is
// one. Safe to call multiple times.
func (s *Service) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configured = false
	for _, ep := range s.endpoints {
		if ep != nil {
			ep.ready = false
		}
	}
	instanceMu.Lock()
	if instance == s {
		instance = nil
	}
	instanceMu.Unlock()
	pkg.LogInfo(pkg.ComponentSink, "sink cleaned up")
}
