// Package shutdown runs registered hooks when the process is asked to stop.
// Hooks run concurrently and are given a grace period; stragglers are abandoned.
package shutdown

import (
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/rohanthewiz/logger"
)

const DefaultGracePeriod = 15 * time.Second

type HookFunc func(grace time.Duration) error

// Service holds the hooks for one process
type Service struct {
	grace    time.Duration
	lock     sync.Mutex
	hooks    []HookFunc
	stopping atomic.Bool
}

func New(grace time.Duration) *Service {
	if grace <= 0 {
		grace = DefaultGracePeriod
	}
	return &Service{grace: grace}
}

func (s *Service) RegisterHook(fn HookFunc) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.hooks = append(s.hooks, fn)
	logger.Debug("Registered shutdown hook", "count", len(s.hooks))
}

// Stopping reports whether Shutdown has begun
func (s *Service) Stopping() bool {
	return s.stopping.Load()
}

// Listen waits in the background for SIGINT or SIGTERM, runs the hooks, then closes done
func (s *Service) Listen(done chan struct{}) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer close(done)
		sig := <-sigChan
		logger.Info("Received shutdown signal", "signal", sig.String())
		s.Shutdown()
	}()
}

// Shutdown fires every hook and waits for them up to the grace period.
// It returns false if the grace period ran out.
func (s *Service) Shutdown() bool {
	s.stopping.Store(true)

	s.lock.Lock()
	hooks := make([]HookFunc, len(s.hooks))
	copy(hooks, s.hooks)
	s.lock.Unlock()

	logger.F("Running %d shutdown hooks (grace period is: %s)", len(hooks), s.grace)

	wg := sync.WaitGroup{}
	for i, hook := range hooks {
		wg.Add(1)
		go func(it int, fn HookFunc) {
			defer wg.Done()
			if err := fn(s.grace); err != nil {
				logger.LogErr(err, "shutdown hook failed")
			}
			logger.Debug("Shutdown hook completed", "hook", it)
		}(i, hook)
	}

	allDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(allDone)
	}()

	select {
	case <-allDone:
		logger.Info("All shutdown hooks completed")
		return true
	case <-time.After(s.grace):
		logger.Warn("Shutdown hooks timed out", "grace", s.grace.String())
		return false
	}
}
