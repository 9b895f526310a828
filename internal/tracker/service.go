package tracker

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"idlemark/pkg/idle"
)

// Service runs an idle source on the calling goroutine and tears it down on
// Stop or context cancellation.
type Service struct {
	source   idle.Source
	stopOnce sync.Once
	stopping atomic.Bool
	running  atomic.Bool
}

func NewService(source idle.Source) *Service {
	return &Service{source: source}
}

// Start blocks until the source fails or the service is stopped. It returns
// nil after Stop, ctx.Err() after cancellation, and the source error
// otherwise.
func (s *Service) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return fmt.Errorf("tracker is already running")
	}
	defer s.running.Store(false)

	log.Printf("Starting tracker with %s idle source", s.source.Name())

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			s.Stop()
		case <-done:
		}
	}()

	err := s.source.Run()

	if s.stopping.Load() {
		if ctx.Err() != nil {
			log.Println("Tracker stopped by context")
			return ctx.Err()
		}
		log.Println("Tracker stopped")
		return nil
	}

	return fmt.Errorf("%s idle source: %w", s.source.Name(), err)
}

// Stop closes the source, which makes Start return. Safe to call more than once.
func (s *Service) Stop() {
	s.stopOnce.Do(func() {
		s.stopping.Store(true)
		if err := s.source.Close(); err != nil {
			log.Printf("Failed to close %s idle source: %v", s.source.Name(), err)
		}
	})
}

func (s *Service) isRunning() bool {
	return s.running.Load()
}
