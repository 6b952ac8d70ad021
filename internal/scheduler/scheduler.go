// Package scheduler runs the periodic deadline sweep that closes campaigns.
package scheduler

import (
	"context"
	"log"
	"sync"
	"time"
)

// Sweeper is the store operation the scheduler drives.
type Sweeper interface {
	CompleteExpiredCampaigns(ctx context.Context, now time.Time) (int64, error)
}

type Scheduler struct {
	sweeper  Sweeper
	interval time.Duration
	timeout  time.Duration
	now      func() time.Time

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
	sweeps  int64
}

// NewScheduler initializes a Scheduler. An interval of zero disables it.
func NewScheduler(sweeper Sweeper, interval time.Duration) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		sweeper:  sweeper,
		interval: interval,
		timeout:  30 * time.Second,
		now:      time.Now,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start runs an immediate sweep and then one every interval.
func (s *Scheduler) Start() {
	if s.interval <= 0 {
		log.Println("Deadline sweeper disabled")
		return
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	log.Printf("Starting deadline sweeper every %v", s.interval)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		s.Sweep()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.Sweep()
			}
		}
	}()
}

// Stop cancels the loop and waits for an in-flight sweep.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()

	s.mu.Lock()
	wasRunning := s.running
	s.running = false
	s.mu.Unlock()

	if wasRunning {
		log.Println("Deadline sweeper stopped")
	}
}

// Sweep completes every active campaign whose deadline has passed.
func (s *Scheduler) Sweep() int64 {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	n, err := s.sweeper.CompleteExpiredCampaigns(ctx, s.now())

	if err != nil {
		log.Printf("Failed to complete expired campaigns: %v", err)
		return 0
	}

	s.mu.Lock()
	s.sweeps++
	s.mu.Unlock()

	if n > 0 {
		log.Printf("Completed %d expired campaigns", n)
	}

	return n
}

// GetStatus returns current scheduler status
func (s *Scheduler) GetStatus() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	return map[string]interface{}{
		"interval": s.interval.String(),
		"running":  s.running && s.ctx.Err() == nil,
		"sweeps":   s.sweeps,
	}
}
