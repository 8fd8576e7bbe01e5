package scorer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"slices"
)

// ErrInvalidProbability - модель вернула значение вне [0, 1]
var ErrInvalidProbability = errors.New("invalid probability")

// ErrModelUnavailable - артефакт модели или список признаков не загружен
var ErrModelUnavailable = errors.New("model unavailable")

// Model - обученный классификатор. Features задаёт точный порядок признаков,
// в котором PredictProbability ожидает значения.
type Model interface {
	Features() []string
	PredictProbability(ctx context.Context, values []float64) (float64, error)
}

// CheckProbability проверяет, что p - конечное число в [0, 1]
func CheckProbability(p float64) error {
	if math.IsNaN(p) || p < 0 || p > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidProbability, p)
	}
	return nil
}

// Fixed возвращает одну и ту же вероятность для любого полного вектора
type Fixed struct {
	Names       []string
	Probability float64
}

func (f *Fixed) Features() []string {
	return slices.Clone(f.Names)
}

func (f *Fixed) PredictProbability(_ context.Context, values []float64) (float64, error) {
	if len(values) != len(f.Names) {
		return 0, fmt.Errorf("expected %d features, got %d", len(f.Names), len(values))
	}
	return f.Probability, nil
}

// Logistic - логистическая регрессия, выгруженная из обученной модели
type Logistic struct {
	Names        []string  `json:"features"`
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
}

// LoadLogistic читает артефакт модели из JSON-файла
func LoadLogistic(path string) (*Logistic, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	var m Logistic
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrModelUnavailable, path, err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Logistic) validate() error {
	if len(m.Names) == 0 {
		return fmt.Errorf("%w: empty feature list", ErrModelUnavailable)
	}
	if len(m.Names) != len(m.Coefficients) {
		return fmt.Errorf("%w: %d features but %d coefficients", ErrModelUnavailable, len(m.Names), len(m.Coefficients))
	}
	seen := make(map[string]struct{}, len(m.Names))
	for _, name := range m.Names {
		if _, dup := seen[name]; dup {
			return fmt.Errorf("%w: duplicate feature %s", ErrModelUnavailable, name)
		}
		seen[name] = struct{}{}
	}
	return nil
}

func (m *Logistic) Features() []string {
	return slices.Clone(m.Names)
}

func (m *Logistic) PredictProbability(_ context.Context, values []float64) (float64, error) {
	if len(values) != len(m.Coefficients) {
		return 0, fmt.Errorf("expected %d features, got %d", len(m.Coefficients), len(values))
	}
	z := m.Intercept
	for i, v := range values {
		z += m.Coefficients[i] * v
	}
	return 1 / (1 + math.Exp(-z)), nil
}
