package service

//go:generate mockgen -source=risk.go -destination=mocks/mock_risk.go -package=mocks

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/shenikar/fire_risk_grid/internal/features"
	"github.com/shenikar/fire_risk_grid/internal/grid"
	"github.com/shenikar/fire_risk_grid/internal/landmask"
	"github.com/shenikar/fire_risk_grid/internal/models"
	"github.com/shenikar/fire_risk_grid/internal/observability"
	"github.com/shenikar/fire_risk_grid/internal/scorer"
	"github.com/shenikar/fire_risk_grid/internal/weather"
	"github.com/shenikar/fire_risk_grid/internal/webhook"
)

var (
	// ErrRunInProgress - предыдущий запуск конвейера еще не завершился
	ErrRunInProgress = errors.New("risk run already in progress")
	// ErrSnapshotNotFound - в хранилище нет ни одного снимка
	ErrSnapshotNotFound = errors.New("snapshot not found")
)

// SnapshotRepository определяет контракт хранилища снимков риска
type SnapshotRepository interface {
	Replace(ctx context.Context, snapshot *models.Snapshot) error
	Latest(ctx context.Context, minProbability float64) (*models.Snapshot, error)
}

// SnapshotCache определяет контракт кеша текущего снимка.
// GetSnapshot возвращает nil, nil при промахе.
type SnapshotCache interface {
	GetSnapshot(ctx context.Context) (*models.Snapshot, error)
	SetSnapshot(ctx context.Context, snapshot *models.Snapshot) error
	InvalidateSnapshot(ctx context.Context) error
}

// RiskService определяет контракт расчета и выдачи карты риска
type RiskService interface {
	Run(ctx context.Context) (*models.Snapshot, error)
	GetLatest(ctx context.Context, minProbability float64) (*models.Snapshot, error)
	Alerts(ctx context.Context, threshold float64, area *models.BoundingBox) ([]models.RiskEstimate, error)
	Top(ctx context.Context, limit int) ([]models.RiskEstimate, error)
}

// Pipeline - входные данные конвейера, собираются один раз при старте
type Pipeline struct {
	Region         grid.Region
	Land           *landmask.Mask
	Weather        weather.Source
	Model          scorer.Model
	Zone           *time.Location
	Workers        int
	AlertThreshold float64
}

type riskService struct {
	pipeline  Pipeline
	repo      SnapshotRepository
	cache     SnapshotCache
	publisher webhook.WebhookPublisher
	metrics   *observability.Metrics
	clock     clockwork.Clock
	logger    *logrus.Logger
	running   atomic.Bool
}

func NewRiskService(
	pipeline Pipeline,
	repo SnapshotRepository,
	cache SnapshotCache,
	publisher webhook.WebhookPublisher,
	metrics *observability.Metrics,
	clock clockwork.Clock,
	logger *logrus.Logger,
) RiskService {
	if pipeline.Workers < 1 {
		pipeline.Workers = 1
	}
	if pipeline.Zone == nil {
		pipeline.Zone = time.UTC
	}
	return &riskService{
		pipeline:  pipeline,
		repo:      repo,
		cache:     cache,
		publisher: publisher,
		metrics:   metrics,
		clock:     clock,
		logger:    logger,
	}
}

// Run строит сетку, оценивает риск в каждой точке суши и атомарно заменяет снимок.
// При отмене контекста до записи хранилище не меняется.
func (s *riskService) Run(ctx context.Context) (*models.Snapshot, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer s.running.Store(false)

	started := s.clock.Now()
	log := s.logger.WithFields(logrus.Fields{
		"service": "risk",
		"method":  "Run",
		"points":  s.pipeline.Region.Len(),
	})
	log.Info("Starting risk run")

	snapshot, err := s.score(ctx, started.UTC())
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		s.metrics.RunsTotal.WithLabelValues(outcome(err)).Inc()
		log.WithError(err).Error("Risk run aborted before persisting")
		return nil, fmt.Errorf("service: could not score grid: %w", err)
	}

	if err := s.repo.Replace(ctx, snapshot); err != nil {
		s.metrics.RunsTotal.WithLabelValues("failed").Inc()
		log.WithError(err).Error("Failed to replace snapshot in repository")
		return nil, fmt.Errorf("service: could not replace snapshot: %w", err)
	}

	elapsed := s.clock.Since(started)
	s.metrics.RunsTotal.WithLabelValues("success").Inc()
	s.metrics.RunDuration.Observe(elapsed.Seconds())
	s.metrics.SnapshotSize.Set(float64(len(snapshot.Estimates)))
	s.metrics.LastRunTime.Set(float64(snapshot.GeneratedAt.Unix()))

	if err := s.cache.InvalidateSnapshot(ctx); err != nil {
		log.WithError(err).Warn("Failed to invalidate snapshot cache")
	}

	event := webhook.NewSnapshotEvent(snapshot, s.pipeline.AlertThreshold)
	if len(event.HighRisk) > 0 {
		if err := s.publisher.Publish(ctx, event); err != nil {
			log.WithError(err).Error("Failed to publish snapshot event")
		}
	}

	log.WithFields(logrus.Fields{
		"snapshot_id": snapshot.ID,
		"estimates":   len(snapshot.Estimates),
		"high_risk":   len(event.HighRisk),
		"elapsed":     elapsed.String(),
	}).Info("Risk run completed")
	return snapshot, nil
}

func (s *riskService) score(ctx context.Context, generatedAt time.Time) (*models.Snapshot, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "risk",
		"method":  "score",
	})

	observations, err := s.pipeline.Weather.Observations(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not load observations: %w", err)
	}
	if len(observations) == 0 {
		return nil, weather.ErrNoObservations
	}
	log.WithField("observations", len(observations)).Debug("Weather observations loaded")

	names := s.pipeline.Model.Features()
	dayNight := features.DayNight(generatedAt, s.pipeline.Zone)
	s.metrics.PointsGenerated.Add(float64(s.pipeline.Region.Len()))

	var (
		mu        sync.Mutex
		estimates = make([]models.RiskEstimate, 0)
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.pipeline.Workers)

	for point := range s.pipeline.Land.Filter(s.pipeline.Region.Points()) {
		if gctx.Err() != nil {
			break
		}
		s.metrics.PointsOnLand.Inc()

		g.Go(func() error {
			p, reason, err := s.scorePoint(gctx, point, observations, names, dayNight)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				s.metrics.PointsSkipped.WithLabelValues(reason).Inc()
				log.WithFields(logrus.Fields{
					"lat":    point.Latitude,
					"lon":    point.Longitude,
					"reason": reason,
				}).WithError(err).Warn("Skipping grid point")
				return nil
			}

			s.metrics.PointsScored.Inc()
			mu.Lock()
			estimates = append(estimates, models.RiskEstimate{
				Latitude:    point.Latitude,
				Longitude:   point.Longitude,
				Probability: p,
				Timestamp:   generatedAt,
			})
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	slices.SortFunc(estimates, func(a, b models.RiskEstimate) int {
		if c := cmp.Compare(a.Latitude, b.Latitude); c != 0 {
			return c
		}
		return cmp.Compare(a.Longitude, b.Longitude)
	})

	return &models.Snapshot{
		ID:          uuid.New(),
		GeneratedAt: generatedAt,
		Estimates:   estimates,
	}, nil
}

func (s *riskService) scorePoint(
	ctx context.Context,
	point models.GridPoint,
	observations []models.Observation,
	names []string,
	dayNight int,
) (float64, string, error) {
	vec, err := weather.Resolve(point, observations)
	if err != nil {
		if errors.Is(err, weather.ErrNoObservations) {
			return 0, observability.SkipNoObservations, err
		}
		return 0, observability.SkipMissingFeature, err
	}

	values, err := features.Assemble(point, vec, dayNight).Ordered(names)
	if err != nil {
		return 0, observability.SkipMissingFeature, err
	}

	p, err := s.pipeline.Model.PredictProbability(ctx, values)
	if err != nil {
		return 0, observability.SkipScoringFailed, err
	}
	if err := scorer.CheckProbability(p); err != nil {
		return 0, observability.SkipScoringFailed, err
	}
	return p, "", nil
}

func outcome(err error) string {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "cancelled"
	}
	return "failed"
}

// GetLatest возвращает текущий снимок, сначала из кеша
func (s *riskService) GetLatest(ctx context.Context, minProbability float64) (*models.Snapshot, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":         "risk",
		"method":          "GetLatest",
		"min_probability": minProbability,
	})

	snapshot, err := s.cache.GetSnapshot(ctx)
	if err != nil {
		log.WithError(err).Warn("Failed to read snapshot from cache")
	}
	if snapshot == nil {
		snapshot, err = s.repo.Latest(ctx, 0)
		if err != nil {
			if errors.Is(err, ErrSnapshotNotFound) {
				return nil, err
			}
			log.WithError(err).Error("Failed to get snapshot from repository")
			return nil, fmt.Errorf("service: could not get snapshot: %w", err)
		}
		if err := s.cache.SetSnapshot(ctx, snapshot); err != nil {
			log.WithError(err).Warn("Failed to store snapshot in cache")
		}
	}

	if minProbability <= 0 {
		return snapshot, nil
	}
	return &models.Snapshot{
		ID:          snapshot.ID,
		GeneratedAt: snapshot.GeneratedAt,
		Estimates:   snapshot.Above(minProbability),
	}, nil
}

// Alerts возвращает точки текущего снимка с вероятностью не ниже порога,
// при заданной области - только внутри нее
func (s *riskService) Alerts(ctx context.Context, threshold float64, area *models.BoundingBox) ([]models.RiskEstimate, error) {
	snapshot, err := s.GetLatest(ctx, threshold)
	if err != nil {
		return nil, err
	}
	if area == nil {
		return snapshot.Estimates, nil
	}

	out := make([]models.RiskEstimate, 0)
	for _, e := range snapshot.Estimates {
		if area.Contains(e.Latitude, e.Longitude) {
			out = append(out, e)
		}
	}
	return out, nil
}

// Top возвращает limit точек с наибольшей вероятностью
func (s *riskService) Top(ctx context.Context, limit int) ([]models.RiskEstimate, error) {
	if limit < 1 || limit > 100 {
		limit = 5
	}
	snapshot, err := s.GetLatest(ctx, 0)
	if err != nil {
		return nil, err
	}

	out := slices.Clone(snapshot.Estimates)
	slices.SortStableFunc(out, func(a, b models.RiskEstimate) int {
		return cmp.Compare(b.Probability, a.Probability)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
