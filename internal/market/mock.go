package market

import (
	"context"
	"time"

	"OptionPilot/internal/model"
)

// MockSource returns controllable fixed data for development and testing.
type MockSource struct {
	Price     float64
	Bars      []model.OHLCV
	Expiries  []time.Time
	Chain     []model.OptionContract
	LatestBar *model.OHLCV
	Err       error
}

func (m *MockSource) Name() string { return "mock" }

func (m *MockSource) GetBars(_ context.Context, _ string, lookbackDays int) ([]model.OHLCV, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Bars != nil {
		return m.Bars, nil
	}
	return GenerateBars(m.Price, lookbackDays), nil
}

func (m *MockSource) GetLatestBar(ctx context.Context, symbol string) (model.OHLCV, error) {
	if m.Err != nil {
		return model.OHLCV{}, m.Err
	}
	if m.LatestBar != nil {
		return *m.LatestBar, nil
	}
	bars, err := m.GetBars(ctx, symbol, 1)
	if err != nil || len(bars) == 0 {
		return model.OHLCV{}, ErrNoData
	}
	return bars[len(bars)-1], nil
}

func (m *MockSource) GetExpiries(_ context.Context, _ string) ([]time.Time, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Expiries, nil
}

func (m *MockSource) GetOptionChain(_ context.Context, _ string, _ time.Time, _ model.Direction) ([]model.OptionContract, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Chain, nil
}

// GenerateBars builds a deterministic synthetic series around a base price.
func GenerateBars(basePrice float64, count int) []model.OHLCV {
	bars := make([]model.OHLCV, count)
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.OHLCV{
			Time:   start.AddDate(0, 0, i),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}
