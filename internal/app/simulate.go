package app

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"goldwatcher/internal/fetcher"
	"goldwatcher/internal/service"
	"goldwatcher/internal/storage"
)

// SimulateAlert 使用给定的价格与阈值模拟一次完整的告警流程。 The real SMTP
// notifier is used, so the operator can smoke-test delivery without waiting
// for an actual threshold crossing.
func (a *App) SimulateAlert(ctx context.Context, price, threshold decimal.Decimal, direction storage.Direction) error {
	store := &memoryRuleStore{
		rule: storage.WatchRule{
			ID:          1,
			Code:        a.Config.Feed.InstrumentCode,
			RemindPrice: threshold,
			Direction:   direction,
		},
	}
	feed := &staticPriceFetcher{price: price}

	svc := service.New(a.Config, nil, store, feed, a.newNotifier(), a.Logger)

	_, err := svc.RunCycle(ctx)
	return err
}

type memoryRuleStore struct {
	rule storage.WatchRule
}

func (m *memoryRuleStore) HasActiveRules(ctx context.Context, code string) (bool, error) {
	return !m.rule.Closed && m.rule.Code == code, nil
}

func (m *memoryRuleStore) ListActiveRules(ctx context.Context, code string) ([]storage.WatchRule, error) {
	if m.rule.Closed || m.rule.Code != code {
		return nil, nil
	}
	return []storage.WatchRule{m.rule}, nil
}

func (m *memoryRuleStore) CloseRule(ctx context.Context, id int64) error {
	if id == m.rule.ID {
		m.rule.Closed = true
	}
	return nil
}

type staticPriceFetcher struct {
	price decimal.Decimal
}

func (s *staticPriceFetcher) FetchPrice(ctx context.Context, code string) (fetcher.PriceSnapshot, error) {
	return fetcher.PriceSnapshot{
		Code:         code,
		CurrentPrice: s.price,
		FetchedAt:    time.Now(),
	}, nil
}

var _ storage.RuleStore = (*memoryRuleStore)(nil)
var _ fetcher.PriceFetcher = (*staticPriceFetcher)(nil)
