package scheduler

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/shenikar/fire_risk_grid/internal/models"
	"github.com/shenikar/fire_risk_grid/internal/service"
	"github.com/shenikar/fire_risk_grid/internal/service/mocks"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{}) // Отключаем вывод логов в тестах
	return logger
}

func TestStart_RunsImmediately(t *testing.T) {
	// Подготовка
	ctrl := gomock.NewController(t)
	mockService := mocks.NewMockRiskService(ctrl)
	var calls atomic.Int32

	// Ожидания
	mockService.EXPECT().Run(gomock.Any()).DoAndReturn(func(ctx context.Context) (*models.Snapshot, error) {
		calls.Add(1)
		return &models.Snapshot{ID: uuid.New()}, nil
	}).MinTimes(1)

	// Действие
	s := New(mockService, time.Hour, true, newTestLogger())
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	// Проверки
	assert.Eventually(t, func() bool { return calls.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestStart_WaitsForSchedule(t *testing.T) {
	// Подготовка
	ctrl := gomock.NewController(t)
	mockService := mocks.NewMockRiskService(ctrl)

	// Ожидания
	mockService.EXPECT().Run(gomock.Any()).Times(0)

	// Действие
	s := New(mockService, time.Hour, false, newTestLogger())
	require.NoError(t, s.Start(context.Background()))
	time.Sleep(100 * time.Millisecond)
	s.Stop()
}

func TestStart_InvalidInterval(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockService := mocks.NewMockRiskService(ctrl)

	s := New(mockService, 0, true, newTestLogger())
	err := s.Start(context.Background())

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "interval must be positive")
}

func TestRunOnce_ToleratesServiceErrors(t *testing.T) {
	// Подготовка
	ctrl := gomock.NewController(t)
	mockService := mocks.NewMockRiskService(ctrl)
	s := New(mockService, time.Hour, true, newTestLogger())

	// Ожидания
	gomock.InOrder(
		mockService.EXPECT().Run(gomock.Any()).Return(nil, service.ErrRunInProgress),
		mockService.EXPECT().Run(gomock.Any()).Return(nil, errors.New("model unavailable")),
	)

	// Действие
	s.runOnce()
	s.runOnce()
}

func TestRunOnce_SkipsAfterCancel(t *testing.T) {
	// Подготовка
	ctrl := gomock.NewController(t)
	mockService := mocks.NewMockRiskService(ctrl)
	s := New(mockService, time.Hour, true, newTestLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.ctx = ctx

	// Ожидания
	mockService.EXPECT().Run(gomock.Any()).Times(0)

	// Действие
	s.runOnce()
}
