package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCondition(t *testing.T) {
	tests := []struct {
		condition     string
		wantIdent     string
		wantOperator  CompareOperator
		wantThreshold float64
	}{
		{"price > 1.10", "price", OperatorGreaterThan, 1.10},
		{"price>=1.2", "price", OperatorGreaterOrEqual, 1.2},
		{"  rsi < 30  ", "rsi", OperatorLessThan, 30},
		{"value == -5", "value", OperatorEqual, -5},
		{"drawdown <= 100", "drawdown", OperatorLessOrEqual, 100},
	}

	for _, tt := range tests {
		t.Run(tt.condition, func(t *testing.T) {
			ident, comparator, err := ParseCondition(tt.condition)
			require.NoError(t, err)

			assert.Equal(t, tt.wantIdent, ident)
			assert.Equal(t, tt.wantOperator, comparator.Operator)
			assert.Equal(t, tt.wantThreshold, comparator.Threshold)
		})
	}
}

func TestParseConditionRejectsAnythingElse(t *testing.T) {
	conditions := []string{
		"",
		"price",
		"price > ",
		"price > 1.10 or 1 == 1",
		"price + 1 > 2",
		"__import__('os').system('rm -rf /')",
		"price > threshold",
		"1.10 < price",
		"price > 1.10; drop",
	}

	for _, condition := range conditions {
		t.Run(condition, func(t *testing.T) {
			_, _, err := ParseCondition(condition)
			assert.ErrorIs(t, err, ErrUnsafeCondition)
		})
	}
}

func TestComparatorEvaluate(t *testing.T) {
	tests := []struct {
		operator  CompareOperator
		threshold float64
		value     float64
		want      bool
	}{
		{OperatorGreaterThan, 1.10, 1.11, true},
		{OperatorGreaterThan, 1.10, 1.10, false},
		{OperatorLessThan, 30, 25, true},
		{OperatorLessThan, 30, 30, false},
		{OperatorGreaterOrEqual, 70, 70, true},
		{OperatorLessOrEqual, 70, 70, true},
		{OperatorEqual, 5, 5, true},
		{OperatorEqual, 5, 5.0001, false},
	}

	for _, tt := range tests {
		comparator := Comparator{Operator: tt.operator, Threshold: tt.threshold}
		assert.Equal(t, tt.want, comparator.Evaluate(tt.value), "%v %s %v", tt.value, tt.operator, tt.threshold)
	}
}

func TestNewComparatorRejectsUnknownOperator(t *testing.T) {
	for _, operator := range []string{"!=", "=", "in", ""} {
		_, err := NewComparator(operator, 1)
		assert.ErrorIs(t, err, ErrUnsafeCondition, "operator %q", operator)
	}
}
