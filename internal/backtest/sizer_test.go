package backtest

import (
	"errors"
	"math"
	"testing"

	"backlab/internal/domain"
	"backlab/internal/propfirm"
)

func defaultSizer() *sizer {
	return newSizer(Config{}.withDefaults(), propfirm.Ruleset{})
}

func TestSize_RiskMath(t *testing.T) {
	s := defaultSizer() // 1% risk, 0.5% default stop, 2:1 reward

	intent := &domain.TradeIntent{Direction: domain.DirectionLong, StopDistance: 2}
	order, err := s.size(intent, 100, 10000)
	if err != nil {
		t.Fatalf("size returned error: %v", err)
	}

	// riskAmount = 10000 * 1% = 100; volume = 100 / (2 * 1) = 50.
	if order.Volume != 50 {
		t.Errorf("Volume = %v, want 50", order.Volume)
	}
	if order.StopLoss != 98 {
		t.Errorf("StopLoss = %v, want 98", order.StopLoss)
	}
	// Take profit at 2:1 of the stop distance.
	if order.TakeProfit != 104 {
		t.Errorf("TakeProfit = %v, want 104", order.TakeProfit)
	}
}

func TestSize_ShortStopOnLosingSide(t *testing.T) {
	s := defaultSizer()

	order, err := s.size(&domain.TradeIntent{Direction: domain.DirectionShort, StopDistance: 1}, 100, 10000)
	if err != nil {
		t.Fatalf("size returned error: %v", err)
	}
	if order.StopLoss <= order.EntryPrice {
		t.Errorf("short StopLoss %v must be above entry %v", order.StopLoss, order.EntryPrice)
	}
	if order.TakeProfit >= order.EntryPrice {
		t.Errorf("short TakeProfit %v must be below entry %v", order.TakeProfit, order.EntryPrice)
	}
}

func TestSize_DefaultStopDistance(t *testing.T) {
	s := defaultSizer()

	order, err := s.size(&domain.TradeIntent{Direction: domain.DirectionLong}, 200, 10000)
	if err != nil {
		t.Fatalf("size returned error: %v", err)
	}
	// Default stop: 0.5% of 200 = 1.0.
	if order.StopLoss != 199 {
		t.Errorf("StopLoss = %v, want 199", order.StopLoss)
	}
}

func TestSize_RewardRiskOverride(t *testing.T) {
	s := defaultSizer()

	order, err := s.size(&domain.TradeIntent{
		Direction:    domain.DirectionLong,
		StopDistance: 1,
		RewardRisk:   3,
	}, 100, 10000)
	if err != nil {
		t.Fatalf("size returned error: %v", err)
	}
	if order.TakeProfit != 103 {
		t.Errorf("TakeProfit = %v, want 103 with 3:1 override", order.TakeProfit)
	}
}

func TestSize_MinVolumeFloor(t *testing.T) {
	cfg := Config{MinVolume: 5}.withDefaults()
	s := newSizer(cfg, propfirm.Ruleset{})

	// Tiny balance forces a computed volume below the floor.
	order, err := s.size(&domain.TradeIntent{Direction: domain.DirectionLong, StopDistance: 10}, 100, 50)
	if err != nil {
		t.Fatalf("size returned error: %v", err)
	}
	if order.Volume != 5 {
		t.Errorf("Volume = %v, want floor 5", order.Volume)
	}
}

func TestSize_PropFirmClampsRisk(t *testing.T) {
	cfg := Config{RiskPerTradePct: 2}.withDefaults()
	ruleset := propfirm.Ruleset{MaxRiskPerTradePct: 0.5}
	s := newSizer(cfg, ruleset)

	order, err := s.size(&domain.TradeIntent{Direction: domain.DirectionLong, StopDistance: 1}, 100, 10000)
	if err != nil {
		t.Fatalf("size returned error: %v", err)
	}
	// Clamped risk: 10000 * 0.5% = 50; volume = 50 / 1 = 50 (not 200).
	if order.Volume != 50 {
		t.Errorf("Volume = %v, want 50 under clamped risk", order.Volume)
	}
}

func TestSize_Degenerate(t *testing.T) {
	s := defaultSizer()

	cases := []struct {
		name    string
		intent  *domain.TradeIntent
		price   float64
		balance float64
	}{
		{"nan stop", &domain.TradeIntent{Direction: domain.DirectionLong, StopDistance: math.NaN()}, 100, 10000},
		{"stop wider than price", &domain.TradeIntent{Direction: domain.DirectionLong, StopDistance: 150}, 100, 10000},
		{"zero balance", &domain.TradeIntent{Direction: domain.DirectionLong, StopDistance: 1}, 100, 0},
		{"negative balance", &domain.TradeIntent{Direction: domain.DirectionLong, StopDistance: 1}, 100, -500},
		{"zero price", &domain.TradeIntent{Direction: domain.DirectionLong, StopDistance: 1}, 0, 10000},
		{"nan price", &domain.TradeIntent{Direction: domain.DirectionLong, StopDistance: 1}, math.NaN(), 10000},
		{"no direction", &domain.TradeIntent{StopDistance: 1}, 100, 10000},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.size(tc.intent, tc.price, tc.balance)
			if !errors.Is(err, ErrDegenerateOrder) {
				t.Errorf("expected ErrDegenerateOrder, got %v", err)
			}
		})
	}
}
