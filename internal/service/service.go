package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"goldwatcher/internal/alerting"
	"goldwatcher/internal/config"
	"goldwatcher/internal/fetcher"
	"goldwatcher/internal/metrics"
	"goldwatcher/internal/scheduler"
	"goldwatcher/internal/storage"
)

// Service orchestrates the poll cycle: rule check, price fetch, evaluation,
// and notification.
type Service struct {
	scheduler *scheduler.Scheduler
	store     storage.RuleStore
	feed      fetcher.PriceFetcher
	notifier  alerting.Notifier
	logger    zerolog.Logger

	codes         []string
	maxConcurrent int
}

// New constructs the monitoring service.
func New(cfg *config.Config, sched *scheduler.Scheduler, store storage.RuleStore, feed fetcher.PriceFetcher, notifier alerting.Notifier, logger zerolog.Logger) *Service {
	maxConcurrent := cfg.Feed.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 2
	}

	return &Service{
		scheduler:     sched,
		store:         store,
		feed:          feed,
		notifier:      notifier,
		logger:        logger.With().Str("component", "service").Logger(),
		codes:         []string{cfg.Feed.InstrumentCode},
		maxConcurrent: maxConcurrent,
	}
}

// Run begins the poll loop.
func (s *Service) Run(ctx context.Context) error {
	if s.scheduler == nil {
		return fmt.Errorf("scheduler not configured")
	}
	return s.scheduler.Run(ctx, s.RunCycle)
}

// RunCycle 执行单个轮询周期。 It returns idle=true when no rule is active,
// so the scheduler falls back to the short backoff. A store failure is
// treated the same way: skip polling rather than crash.
func (s *Service) RunCycle(ctx context.Context) (bool, error) {
	active, err := s.store.HasActiveRules(ctx, s.codes[0])
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return true, err
		}
		metrics.PollCyclesTotal.WithLabelValues("store_error").Inc()
		s.logger.Error().Err(err).Msg("rule store unavailable, skipping this cycle")
		return true, nil
	}
	if !active {
		metrics.PollCyclesTotal.WithLabelValues("idle").Inc()
		s.logger.Warn().Msg("没有要监听的数据,请到数据库中设置.....")
		return true, nil
	}

	metrics.PollCyclesTotal.WithLabelValues("active").Inc()

	for _, snap := range s.fetchSnapshots(ctx) {
		s.EvaluateSnapshot(ctx, snap)
	}
	return false, nil
}

// fetchSnapshots pulls the current price for every tracked instrument,
// capped at maxConcurrent in-flight requests. A failed fetch is logged and
// simply yields no snapshot this round.
func (s *Service) fetchSnapshots(ctx context.Context) []fetcher.PriceSnapshot {
	var (
		mu    sync.Mutex
		snaps []fetcher.PriceSnapshot
	)

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(s.maxConcurrent)

	for _, code := range s.codes {
		group.Go(func() error {
			snap, err := s.feed.FetchPrice(gctx, code)
			if err != nil {
				kind := classifyFeedError(err)
				metrics.FeedErrorsTotal.WithLabelValues(kind).Inc()
				s.logger.Error().Err(err).
					Str("code", code).
					Str("kind", kind).
					Msg("接口调用失败")
				return nil
			}

			s.logger.Info().
				Str("code", snap.Code).
				Str("cur_price", snap.CurrentPrice.String()).
				Msg("接口调用成功")

			mu.Lock()
			snaps = append(snaps, snap)
			mu.Unlock()
			return nil
		})
	}

	_ = group.Wait()
	return snaps
}

// EvaluateSnapshot compares the snapshot against every active rule for the
// instrument. Threshold comparison is inclusive and exact: a price equal to
// the threshold fires.
func (s *Service) EvaluateSnapshot(ctx context.Context, snap fetcher.PriceSnapshot) {
	rules, err := s.store.ListActiveRules(ctx, s.codes[0])
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list active rules")
		return
	}

	for _, rule := range rules {
		s.logger.Info().
			Int64("rule_id", rule.ID).
			Str("code", snap.Code).
			Str("cur_price", snap.CurrentPrice.String()).
			Str("remind_price", rule.RemindPrice.String()).
			Str("direction", rule.Direction.String()).
			Msg("evaluating rule")

		var triggered bool
		switch rule.Direction {
		case storage.DirectionSellAtOrAbove:
			triggered = snap.CurrentPrice.GreaterThanOrEqual(rule.RemindPrice)
		case storage.DirectionBuyAtOrBelow:
			triggered = snap.CurrentPrice.LessThanOrEqual(rule.RemindPrice)
		}

		if triggered {
			s.trigger(ctx, rule, snap)
		}
	}
}

// trigger delivers the alert and retires the rule. Closure failure after a
// delivered mail is logged only: a duplicate alert on a later cycle is
// acceptable, a lost alert is not.
func (s *Service) trigger(ctx context.Context, rule storage.WatchRule, snap fetcher.PriceSnapshot) {
	msg := alerting.NewTriggerMessage(snap.Code, rule.Direction, snap.CurrentPrice)

	if err := s.notifier.Send(ctx, msg); err != nil {
		metrics.NotificationsTotal.WithLabelValues("failed").Inc()
		s.logger.Error().Err(err).
			Int64("rule_id", rule.ID).
			Msg("alert delivery failed, rule stays active")
		return
	}
	metrics.NotificationsTotal.WithLabelValues("sent").Inc()

	if err := s.store.CloseRule(ctx, rule.ID); err != nil {
		metrics.RuleCloseFailuresTotal.Inc()
		s.logger.Error().Err(err).
			Int64("rule_id", rule.ID).
			Msg("alert delivered but rule not closed, duplicate possible next cycle")
		return
	}
	metrics.RulesClosedTotal.Inc()

	s.logger.Info().
		Int64("rule_id", rule.ID).
		Str("direction", rule.Direction.String()).
		Str("cur_price", snap.CurrentPrice.String()).
		Msg("rule triggered and closed")
}

func classifyFeedError(err error) string {
	switch {
	case errors.Is(err, fetcher.ErrEmptyFeed):
		return "empty"
	case errors.Is(err, fetcher.ErrMalformedFeed):
		return "malformed"
	default:
		return "network"
	}
}
