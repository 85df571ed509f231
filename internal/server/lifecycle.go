// Package server provides process lifecycle management: services run under
// a shared context and are stopped in reverse order on a signal, a service
// error or a service finishing.
package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// DefaultStopTimeout bounds how long shutdown waits for each service.
const DefaultStopTimeout = 5 * time.Second

// Service is a long-running component. Run blocks until ctx is cancelled,
// the work is finished, or an error occurs. Returning ctx.Err() after
// cancellation is treated as a clean stop.
type Service interface {
	Run(ctx context.Context) error
}

// ServiceFunc adapts a function to Service.
type ServiceFunc func(ctx context.Context) error

// Run calls f.
func (f ServiceFunc) Run(ctx context.Context) error { return f(ctx) }

// Lifecycle manages the startup and shutdown of multiple services.
// Services are started in order and stopped in reverse order.
type Lifecycle struct {
	logger      *zap.Logger
	services    []namedService
	stopTimeout time.Duration
	mu          sync.Mutex
}

type namedService struct {
	name    string
	service Service
}

type running struct {
	name   string
	cancel context.CancelFunc
	done   chan error
}

// NewLifecycle creates a new Lifecycle manager.
//
// Precondition: logger must be non-nil.
func NewLifecycle(logger *zap.Logger) *Lifecycle {
	return &Lifecycle{logger: logger, stopTimeout: DefaultStopTimeout}
}

// SetStopTimeout overrides DefaultStopTimeout. d <= 0 waits forever.
func (l *Lifecycle) SetStopTimeout(d time.Duration) { l.stopTimeout = d }

// Add registers a named service for lifecycle management.
// Services are started in the order they are added.
//
// Precondition: name must be non-empty; svc must be non-nil.
func (l *Lifecycle) Add(name string, svc Service) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.services = append(l.services, namedService{name: name, service: svc})
}

// Run starts all services and blocks until a termination signal (SIGINT or
// SIGTERM), ctx cancellation, a service error or any service returning.
// Services are then cancelled and awaited in reverse order.
//
// Postcondition: All services have returned or timed out; the first
// service error is returned.
func (l *Lifecycle) Run(ctx context.Context) error {
	start := time.Now()

	l.mu.Lock()
	services := append([]namedService(nil), l.services...)
	l.mu.Unlock()

	finished := make(chan string, len(services))
	var firstErr error
	var errOnce sync.Once

	runs := make([]running, 0, len(services))
	for _, ns := range services {
		svcCtx, cancel := context.WithCancel(ctx)
		r := running{name: ns.name, cancel: cancel, done: make(chan error, 1)}
		runs = append(runs, r)
		l.logger.Info("starting service", zap.String("service", ns.name))
		go func() {
			svcStart := time.Now()
			err := ns.service.Run(svcCtx)
			if err != nil && !errors.Is(err, context.Canceled) {
				l.logger.Error("service failed",
					zap.String("service", ns.name),
					zap.Error(err),
					zap.Duration("uptime", time.Since(svcStart)),
				)
				errOnce.Do(func() { firstErr = fmt.Errorf("service %s: %w", ns.name, err) })
			}
			r.done <- err
			finished <- ns.name
		}()
	}

	l.logger.Info("all services started",
		zap.Int("count", len(services)),
		zap.Duration("startup", time.Since(start)),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		l.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
	case name := <-finished:
		l.logger.Info("service returned, shutting down", zap.String("service", name))
	case <-ctx.Done():
		l.logger.Info("context cancelled, shutting down")
	}

	l.shutdown(runs)

	l.logger.Info("shutdown complete", zap.Duration("total_uptime", time.Since(start)))
	return firstErr
}

func (l *Lifecycle) shutdown(runs []running) {
	shutdownStart := time.Now()
	for i := len(runs) - 1; i >= 0; i-- {
		r := runs[i]
		svcStart := time.Now()
		l.logger.Info("stopping service", zap.String("service", r.name))
		r.cancel()

		var timeout <-chan time.Time
		if l.stopTimeout > 0 {
			timer := time.NewTimer(l.stopTimeout)
			timeout = timer.C
			defer timer.Stop()
		}
		select {
		case <-r.done:
			l.logger.Info("service stopped",
				zap.String("service", r.name),
				zap.Duration("elapsed", time.Since(svcStart)),
			)
		case <-timeout:
			l.logger.Warn("service did not stop in time", zap.String("service", r.name))
		}
	}
	l.logger.Info("all services stopped", zap.Duration("shutdown_elapsed", time.Since(shutdownStart)))
}
