package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tradeflow/tradeflow/internal/domain"

	"github.com/robfig/cron/v3"
)

var (
	// ErrTriggerNotEvaluated marks trigger kinds the loop never evaluates
	// (webhook, manual); they are fired by external calls.
	ErrTriggerNotEvaluated = errors.New("trigger type is not evaluated by the scheduler")

	ErrMissingTriggerConfig = errors.New("trigger config is missing a required field")
)

// IndicatorSource computes a live indicator value for the indicator trigger.
// The default deployment has none wired; the trigger then reports not due.
type IndicatorSource interface {
	GetIndicatorValue(ctx context.Context, symbol string, indicator string, period int, timeframe string) (float64, error)
}

// Evaluation is the outcome of checking one schedule: whether it is due now
// and, for time-based triggers, when it is due next.
type Evaluation struct {
	Due     bool
	NextRun *time.Time
}

// Evaluator holds the per-trigger-kind predicates. It is stateless: every
// decision is a function of the schedule record, the clock and live market
// data.
type Evaluator struct {
	broker     domain.Broker
	indicators IndicatorSource
}

type EvaluatorDependencies struct {
	Broker     domain.Broker
	Indicators IndicatorSource
}

func NewEvaluator(deps EvaluatorDependencies) *Evaluator {
	return &Evaluator{
		broker:     deps.Broker,
		indicators: deps.Indicators,
	}
}

func (e *Evaluator) Evaluate(ctx context.Context, job domain.ScheduledJob, now time.Time) (Evaluation, error) {
	switch job.TriggerType {
	case domain.TriggerTypeCron:
		return e.evaluateCron(job, now)
	case domain.TriggerTypeTime:
		return e.evaluateInterval(job, now)
	case domain.TriggerTypePrice:
		return e.evaluatePrice(ctx, job)
	case domain.TriggerTypeIndicator:
		return e.evaluateIndicator(ctx, job)
	case domain.TriggerTypeWebhook, domain.TriggerTypeManual:
		return Evaluation{}, ErrTriggerNotEvaluated
	default:
		return Evaluation{}, fmt.Errorf("unknown trigger type: %s", job.TriggerType)
	}
}

func (e *Evaluator) evaluateCron(job domain.ScheduledJob, now time.Time) (Evaluation, error) {
	expression, ok := configString(job.TriggerConfig, "cron_expression")
	if !ok {
		return Evaluation{}, fmt.Errorf("%w: cron_expression", ErrMissingTriggerConfig)
	}

	schedule, err := cron.ParseStandard(expression)
	if err != nil {
		return Evaluation{}, fmt.Errorf("invalid cron expression %q: %w", expression, err)
	}

	base := now
	if job.LastRun != nil {
		base = *job.LastRun
	}

	nextRun := schedule.Next(base)

	return Evaluation{
		Due:     !now.Before(nextRun),
		NextRun: &nextRun,
	}, nil
}

func (e *Evaluator) evaluateInterval(job domain.ScheduledJob, now time.Time) (Evaluation, error) {
	intervalMinutes, ok := configInt(job.TriggerConfig, "interval_minutes")
	if !ok || intervalMinutes <= 0 {
		return Evaluation{}, fmt.Errorf("%w: interval_minutes", ErrMissingTriggerConfig)
	}

	if job.LastRun == nil {
		return Evaluation{Due: true}, nil
	}

	nextRun := job.LastRun.Add(time.Duration(intervalMinutes) * time.Minute)

	return Evaluation{
		Due:     !now.Before(nextRun),
		NextRun: &nextRun,
	}, nil
}

func (e *Evaluator) evaluatePrice(ctx context.Context, job domain.ScheduledJob) (Evaluation, error) {
	symbol, ok := configString(job.TriggerConfig, "symbol")
	if !ok {
		return Evaluation{}, fmt.Errorf("%w: symbol", ErrMissingTriggerConfig)
	}

	comparator, err := comparatorFromConfig(job.TriggerConfig, "price")
	if err != nil {
		return Evaluation{}, err
	}

	tick, err := e.broker.GetCurrentPrice(ctx, symbol)
	if err != nil {
		return Evaluation{}, fmt.Errorf("failed to get price for %s: %w", symbol, err)
	}

	return Evaluation{Due: comparator.Evaluate(tick.Bid)}, nil
}

func (e *Evaluator) evaluateIndicator(ctx context.Context, job domain.ScheduledJob) (Evaluation, error) {
	if e.indicators == nil {
		return Evaluation{Due: false}, nil
	}

	symbol, ok := configString(job.TriggerConfig, "symbol")
	if !ok {
		return Evaluation{}, fmt.Errorf("%w: symbol", ErrMissingTriggerConfig)
	}

	indicator, ok := configString(job.TriggerConfig, "indicator")
	if !ok {
		return Evaluation{}, fmt.Errorf("%w: indicator", ErrMissingTriggerConfig)
	}

	comparator, err := comparatorFromConfig(job.TriggerConfig, "value")
	if err != nil {
		return Evaluation{}, err
	}

	period, _ := configInt(job.TriggerConfig, "period")
	if period <= 0 {
		period = 14
	}

	timeframe, _ := configString(job.TriggerConfig, "timeframe")
	if timeframe == "" {
		timeframe = "H1"
	}

	value, err := e.indicators.GetIndicatorValue(ctx, symbol, indicator, period, timeframe)
	if err != nil {
		return Evaluation{}, fmt.Errorf("failed to compute %s for %s: %w", indicator, symbol, err)
	}

	return Evaluation{Due: comparator.Evaluate(value)}, nil
}

// comparatorFromConfig accepts either the structured form
// {operator, threshold} or a legacy condition string such as "price > 1.10".
// Both reduce to the closed comparator; nothing else is evaluated.
func comparatorFromConfig(config map[string]any, expectedIdent string) (domain.Comparator, error) {
	if operator, ok := configString(config, "operator"); ok {
		threshold, ok := configFloat(config, "threshold")
		if !ok {
			return domain.Comparator{}, fmt.Errorf("%w: threshold", ErrMissingTriggerConfig)
		}

		return domain.NewComparator(operator, threshold)
	}

	condition, ok := configString(config, "condition")
	if !ok {
		return domain.Comparator{}, fmt.Errorf("%w: operator/threshold or condition", ErrMissingTriggerConfig)
	}

	ident, comparator, err := domain.ParseCondition(condition)
	if err != nil {
		return domain.Comparator{}, err
	}

	if ident != expectedIdent {
		return domain.Comparator{}, fmt.Errorf("%w: condition must compare %q, got %q", domain.ErrUnsafeCondition, expectedIdent, ident)
	}

	return comparator, nil
}

func configString(config map[string]any, key string) (string, bool) {
	value, ok := config[key].(string)

	return value, ok && value != ""
}

func configFloat(config map[string]any, key string) (float64, bool) {
	switch value := config[key].(type) {
	case float64:
		return value, true
	case float32:
		return float64(value), true
	case int:
		return float64(value), true
	case int64:
		return float64(value), true
	default:
		return 0, false
	}
}

func configInt(config map[string]any, key string) (int, bool) {
	value, ok := configFloat(config, key)

	return int(value), ok
}
