package service

import (
	"context"
	"sync"
	"time"

	"github.com/Harshitk-cp/vetpms/internal/domain"
	"go.uber.org/zap"
)

const defaultExpirerInterval = 1 * time.Hour

// ExpirerService deactivates objects whose active period has ended.
type ExpirerService struct {
	objects domain.ObjectStore
	logger  *zap.Logger
	now     func() time.Time

	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

func NewExpirerService(objects domain.ObjectStore, logger *zap.Logger) *ExpirerService {
	return &ExpirerService{
		objects:  objects,
		logger:   logger,
		now:      time.Now,
		interval: defaultExpirerInterval,
		stopCh:   make(chan struct{}),
	}
}

func (s *ExpirerService) SetInterval(d time.Duration) {
	s.interval = d
}

// Start runs the expirer on a periodic schedule in a background goroutine.
func (s *ExpirerService) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.logger.Info("object expirer started", zap.Duration("interval", s.interval))

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				s.RunOnce(ctx)
				cancel()
			case <-s.stopCh:
				s.logger.Info("object expirer stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the expirer.
func (s *ExpirerService) Stop() {
	close(s.stopCh)
	s.wg.Wait()
}

// RunOnce performs a single expiry pass and returns the number of objects deactivated.
func (s *ExpirerService) RunOnce(ctx context.Context) int64 {
	n, err := s.objects.DeactivateExpired(ctx, s.now().UTC())
	if err != nil {
		s.logger.Error("failed to deactivate expired objects", zap.Error(err))
		return 0
	}
	if n > 0 {
		s.logger.Info("deactivated expired objects", zap.Int64("count", n))
	}
	return n
}
