package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"

	"github.com/shenikar/fire_risk_grid/internal/service"
)

// Scheduler периодически запускает пересчет карты риска
type Scheduler struct {
	scheduler  *gocron.Scheduler
	service    service.RiskService
	interval   time.Duration
	runOnStart bool
	logger     *logrus.Logger
	ctx        context.Context
}

func New(riskService service.RiskService, interval time.Duration, runOnStart bool, logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		scheduler:  gocron.NewScheduler(time.UTC),
		service:    riskService,
		interval:   interval,
		runOnStart: runOnStart,
		logger:     logger,
		ctx:        context.Background(),
	}
}

// Start регистрирует периодическую задачу и запускает планировщик.
// Отмена ctx прерывает текущий запуск.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.interval <= 0 {
		return fmt.Errorf("scheduler: interval must be positive, got %s", s.interval)
	}
	s.ctx = ctx

	s.scheduler.SingletonModeAll()
	if !s.runOnStart {
		s.scheduler.WaitForScheduleAll()
	}

	if _, err := s.scheduler.Every(s.interval).Do(s.runOnce); err != nil {
		return fmt.Errorf("scheduler: could not schedule risk run: %w", err)
	}

	s.scheduler.StartAsync()
	s.logger.WithFields(logrus.Fields{
		"interval":     s.interval.String(),
		"run_on_start": s.runOnStart,
	}).Info("Risk scheduler started")
	return nil
}

// Stop останавливает планировщик
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
	s.logger.Info("Risk scheduler stopped")
}

func (s *Scheduler) runOnce() {
	log := s.logger.WithField("component", "scheduler")
	if s.ctx.Err() != nil {
		return
	}

	snapshot, err := s.service.Run(s.ctx)
	if err != nil {
		if errors.Is(err, service.ErrRunInProgress) {
			log.Info("Previous risk run still in progress, skipping tick")
			return
		}
		log.WithError(err).Error("Scheduled risk run failed")
		return
	}
	log.WithFields(logrus.Fields{
		"snapshot_id": snapshot.ID,
		"estimates":   len(snapshot.Estimates),
	}).Info("Scheduled risk run finished")
}
