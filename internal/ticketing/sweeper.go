package ticketing

import (
	"context"
	"time"

	"turnstile/internal/logger"
)

// Sweeper periodically expires reservations whose payment deadline passed.
type Sweeper struct {
	service  *Service
	interval time.Duration
	stopChan chan struct{}
	doneChan chan struct{}
}

func NewSweeper(service *Service, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Sweeper{
		service:  service,
		interval: interval,
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
}

func (s *Sweeper) Start() {
	go s.run()
	logger.Get().Info("Reservation expiry sweeper started", "interval", s.interval.String())
}

func (s *Sweeper) Stop() {
	close(s.stopChan)
	<-s.doneChan
	logger.Get().Info("Reservation expiry sweeper stopped")
}

func (s *Sweeper) run() {
	defer close(s.doneChan)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopChan:
			return
		}
	}
}

func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	expired, err := s.service.ExpiredPending(ctx, time.Now())
	if err != nil {
		logger.Get().Error("Failed to query expired reservations", "error", err)
		return
	}
	if len(expired) == 0 {
		return
	}

	logger.Get().Info("Expiring timed-out reservations", "count", len(expired))
	for i := range expired {
		res := expired[i]
		if err := s.service.Expire(ctx, &res); err != nil {
			logger.Get().Error("Failed to expire reservation",
				"error", err,
				"reservation_id", res.ID)
		}
	}
}
