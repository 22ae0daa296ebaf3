package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/tradeflow/tradeflow/internal/broker"
	"github.com/tradeflow/tradeflow/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticIndicatorSource struct {
	value float64
}

func (s staticIndicatorSource) GetIndicatorValue(ctx context.Context, symbol string, indicator string, period int, timeframe string) (float64, error) {
	return s.value, nil
}

func cronJob(expression string, lastRun *time.Time) domain.ScheduledJob {
	return domain.ScheduledJob{
		ID:            "job-1",
		WorkflowID:    "wf-1",
		TriggerType:   domain.TriggerTypeCron,
		TriggerConfig: map[string]any{"cron_expression": expression},
		LastRun:       lastRun,
	}
}

func TestEvaluateCron(t *testing.T) {
	evaluator := NewEvaluator(EvaluatorDependencies{})

	yesterday0900 := time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		job     domain.ScheduledJob
		now     time.Time
		wantDue bool
	}{
		{
			name:    "due exactly at the scheduled minute",
			job:     cronJob("0 9 * * *", &yesterday0900),
			now:     time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC),
			wantDue: true,
		},
		{
			name:    "due shortly after the scheduled minute",
			job:     cronJob("0 9 * * *", &yesterday0900),
			now:     time.Date(2026, 9, 1, 9, 0, 1, 0, time.UTC),
			wantDue: true,
		},
		{
			name:    "not due just before the scheduled minute",
			job:     cronJob("0 9 * * *", &yesterday0900),
			now:     time.Date(2026, 9, 1, 8, 59, 59, 0, time.UTC),
			wantDue: false,
		},
		{
			name:    "never ran before, next fire is in the future",
			job:     cronJob("0 9 * * *", nil),
			now:     time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC),
			wantDue: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evaluation, err := evaluator.Evaluate(context.Background(), tt.job, tt.now)
			require.NoError(t, err)

			assert.Equal(t, tt.wantDue, evaluation.Due)
			require.NotNil(t, evaluation.NextRun)
		})
	}
}

func TestEvaluateCronInvalidExpression(t *testing.T) {
	evaluator := NewEvaluator(EvaluatorDependencies{})

	_, err := evaluator.Evaluate(context.Background(), cronJob("not a cron", nil), time.Now())
	assert.Error(t, err)
}

func TestEvaluateCronMissingExpression(t *testing.T) {
	evaluator := NewEvaluator(EvaluatorDependencies{})

	job := domain.ScheduledJob{
		TriggerType:   domain.TriggerTypeCron,
		TriggerConfig: map[string]any{},
	}

	_, err := evaluator.Evaluate(context.Background(), job, time.Now())
	assert.ErrorIs(t, err, ErrMissingTriggerConfig)
}

func TestEvaluateInterval(t *testing.T) {
	evaluator := NewEvaluator(EvaluatorDependencies{})
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	t.Run("first run is always due", func(t *testing.T) {
		job := domain.ScheduledJob{
			TriggerType:   domain.TriggerTypeTime,
			TriggerConfig: map[string]any{"interval_minutes": 15.0},
		}

		evaluation, err := evaluator.Evaluate(context.Background(), job, now)
		require.NoError(t, err)
		assert.True(t, evaluation.Due)
	})

	t.Run("due after the interval elapses", func(t *testing.T) {
		lastRun := now.Add(-16 * time.Minute)
		job := domain.ScheduledJob{
			TriggerType:   domain.TriggerTypeTime,
			TriggerConfig: map[string]any{"interval_minutes": 15.0},
			LastRun:       &lastRun,
		}

		evaluation, err := evaluator.Evaluate(context.Background(), job, now)
		require.NoError(t, err)
		assert.True(t, evaluation.Due)
	})

	t.Run("not due inside the interval", func(t *testing.T) {
		lastRun := now.Add(-5 * time.Minute)
		job := domain.ScheduledJob{
			TriggerType:   domain.TriggerTypeTime,
			TriggerConfig: map[string]any{"interval_minutes": 15.0},
			LastRun:       &lastRun,
		}

		evaluation, err := evaluator.Evaluate(context.Background(), job, now)
		require.NoError(t, err)
		assert.False(t, evaluation.Due)
	})
}

func TestEvaluatePrice(t *testing.T) {
	marketBroker := broker.NewSimulated()
	marketBroker.SetPrice("EURUSD", 1.2000)

	evaluator := NewEvaluator(EvaluatorDependencies{Broker: marketBroker})

	tests := []struct {
		name    string
		config  map[string]any
		wantDue bool
	}{
		{
			name:    "structured comparator fires",
			config:  map[string]any{"symbol": "EURUSD", "operator": ">", "threshold": 1.10},
			wantDue: true,
		},
		{
			name:    "structured comparator holds",
			config:  map[string]any{"symbol": "EURUSD", "operator": "<", "threshold": 1.10},
			wantDue: false,
		},
		{
			name:    "legacy condition string fires",
			config:  map[string]any{"symbol": "EURUSD", "condition": "price >= 1.20"},
			wantDue: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := domain.ScheduledJob{
				TriggerType:   domain.TriggerTypePrice,
				TriggerConfig: tt.config,
			}

			evaluation, err := evaluator.Evaluate(context.Background(), job, time.Now())
			require.NoError(t, err)
			assert.Equal(t, tt.wantDue, evaluation.Due)
		})
	}
}

func TestEvaluatePriceRejectsUnsafeCondition(t *testing.T) {
	marketBroker := broker.NewSimulated()
	marketBroker.SetPrice("EURUSD", 1.2000)

	evaluator := NewEvaluator(EvaluatorDependencies{Broker: marketBroker})

	unsafeConditions := []string{
		"price > 1.10 or true",
		"__import__('os')",
		"price > price",
		"volume > 100", // wrong identifier for a price trigger
	}

	for _, condition := range unsafeConditions {
		t.Run(condition, func(t *testing.T) {
			job := domain.ScheduledJob{
				TriggerType: domain.TriggerTypePrice,
				TriggerConfig: map[string]any{
					"symbol":    "EURUSD",
					"condition": condition,
				},
			}

			_, err := evaluator.Evaluate(context.Background(), job, time.Now())
			assert.ErrorIs(t, err, domain.ErrUnsafeCondition)
		})
	}
}

func TestEvaluateIndicator(t *testing.T) {
	t.Run("fires against the comparator", func(t *testing.T) {
		evaluator := NewEvaluator(EvaluatorDependencies{
			Indicators: staticIndicatorSource{value: 25},
		})

		job := domain.ScheduledJob{
			TriggerType: domain.TriggerTypeIndicator,
			TriggerConfig: map[string]any{
				"symbol":    "EURUSD",
				"indicator": "rsi",
				"operator":  "<",
				"threshold": 30.0,
			},
		}

		evaluation, err := evaluator.Evaluate(context.Background(), job, time.Now())
		require.NoError(t, err)
		assert.True(t, evaluation.Due)
	})

	t.Run("no indicator source means never due", func(t *testing.T) {
		evaluator := NewEvaluator(EvaluatorDependencies{})

		job := domain.ScheduledJob{
			TriggerType: domain.TriggerTypeIndicator,
			TriggerConfig: map[string]any{
				"symbol":    "EURUSD",
				"indicator": "rsi",
				"operator":  "<",
				"threshold": 30.0,
			},
		}

		evaluation, err := evaluator.Evaluate(context.Background(), job, time.Now())
		require.NoError(t, err)
		assert.False(t, evaluation.Due)
	})
}

func TestEvaluateSkipsExternallyFiredTriggers(t *testing.T) {
	evaluator := NewEvaluator(EvaluatorDependencies{})

	for _, triggerType := range []domain.TriggerType{domain.TriggerTypeWebhook, domain.TriggerTypeManual} {
		job := domain.ScheduledJob{TriggerType: triggerType}

		_, err := evaluator.Evaluate(context.Background(), job, time.Now())
		assert.ErrorIs(t, err, ErrTriggerNotEvaluated)
	}
}
