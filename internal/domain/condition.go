package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// ErrUnsafeCondition marks a trigger condition that could not be reduced to
// the closed comparator form. Free-form expression evaluation is a security
// error here, not a parse bug.
var ErrUnsafeCondition = errors.New("condition is not a closed comparison")

type CompareOperator string

const (
	OperatorGreaterThan    CompareOperator = ">"
	OperatorLessThan       CompareOperator = "<"
	OperatorGreaterOrEqual CompareOperator = ">="
	OperatorLessOrEqual    CompareOperator = "<="
	OperatorEqual          CompareOperator = "=="
)

// Comparator is the only comparison shape trigger conditions may take: a
// live value on the left, a fixed operator, a fixed threshold on the right.
type Comparator struct {
	Operator  CompareOperator
	Threshold float64
}

func (c Comparator) Evaluate(value float64) bool {
	switch c.Operator {
	case OperatorGreaterThan:
		return value > c.Threshold
	case OperatorLessThan:
		return value < c.Threshold
	case OperatorGreaterOrEqual:
		return value >= c.Threshold
	case OperatorLessOrEqual:
		return value <= c.Threshold
	case OperatorEqual:
		return value == c.Threshold
	default:
		return false
	}
}

func NewComparator(operator string, threshold float64) (Comparator, error) {
	switch CompareOperator(operator) {
	case OperatorGreaterThan, OperatorLessThan, OperatorGreaterOrEqual, OperatorLessOrEqual, OperatorEqual:
		return Comparator{Operator: CompareOperator(operator), Threshold: threshold}, nil
	default:
		return Comparator{}, fmt.Errorf("%w: unsupported operator %q", ErrUnsafeCondition, operator)
	}
}

// Legacy condition strings look like "price > 1.10". Only an identifier, one
// comparison operator and one numeric literal are accepted; anything else is
// rejected rather than evaluated.
var conditionPattern = regexp.MustCompile(`^\s*([a-zA-Z_][a-zA-Z0-9_]*)\s*(>=|<=|==|>|<)\s*(-?\d+(?:\.\d+)?)\s*$`)

// ParseCondition reduces a legacy condition string to a Comparator. The
// left-hand identifier is returned so callers can verify it names the value
// they are about to supply (e.g. "price").
func ParseCondition(condition string) (ident string, comparator Comparator, err error) {
	matches := conditionPattern.FindStringSubmatch(condition)
	if matches == nil {
		return "", Comparator{}, fmt.Errorf("%w: %q", ErrUnsafeCondition, condition)
	}

	threshold, err := strconv.ParseFloat(matches[3], 64)
	if err != nil {
		return "", Comparator{}, fmt.Errorf("%w: %q", ErrUnsafeCondition, condition)
	}

	return matches[1], Comparator{
		Operator:  CompareOperator(matches[2]),
		Threshold: threshold,
	}, nil
}
