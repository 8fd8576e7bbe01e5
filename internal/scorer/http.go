package scorer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"
)

// HTTPModel обращается к внешнему сервису инференса.
// Список признаков запрашивается один раз при создании.
type HTTPModel struct {
	baseURL    string
	httpClient *http.Client
	names      []string
}

type featuresResponse struct {
	Features []string `json:"features"`
}

type predictRequest struct {
	Features map[string]float64 `json:"features"`
}

type predictResponse struct {
	Probability *float64 `json:"probability"`
}

// NewHTTPModel создает клиента и загружает список признаков модели
func NewHTTPModel(ctx context.Context, baseURL string, timeout time.Duration) (*HTTPModel, error) {
	m := &HTTPModel{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}

	var resp featuresResponse
	if err := m.do(ctx, http.MethodGet, "/features", nil, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	if len(resp.Features) == 0 {
		return nil, fmt.Errorf("%w: model service returned no features", ErrModelUnavailable)
	}
	m.names = resp.Features
	return m, nil
}

func (m *HTTPModel) Features() []string {
	return slices.Clone(m.names)
}

func (m *HTTPModel) PredictProbability(ctx context.Context, values []float64) (float64, error) {
	if len(values) != len(m.names) {
		return 0, fmt.Errorf("expected %d features, got %d", len(m.names), len(values))
	}
	body := predictRequest{Features: make(map[string]float64, len(values))}
	for i, name := range m.names {
		body.Features[name] = values[i]
	}

	var resp predictResponse
	if err := m.do(ctx, http.MethodPost, "/predict", body, &resp); err != nil {
		return 0, err
	}
	if resp.Probability == nil {
		return 0, fmt.Errorf("%w: response has no probability", ErrInvalidProbability)
	}
	return *resp.Probability, nil
}

func (m *HTTPModel) do(ctx context.Context, method, path string, in, out any) error {
	var reader io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal model request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, m.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create model request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("model request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("model service error: status %d: %s", resp.StatusCode, msg)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode model response: %w", err)
	}
	return nil
}
