// internal/rules/cost.go
package rules

import "github.com/solatis/skiplogic/internal/types"

/*
 * Cost model for condition evaluation.
 *
 * Assigns each condition type a relative cost so that cheaper terms run first
 * inside an AND group. For non-matching respondents, an equality check that
 * fails early spares the substring scan or numeric coercion of later terms.
 *
 * Group terms cost the sum of their members.
 */

// Operator base costs.
const (
	CostSelected    = 5
	CostNotSelected = 5
	CostEquals      = 5
	CostGreater     = 7
	CostLess        = 7
	CostContains    = 10
	CostUnknown     = 10
)

// CalculateConditionCost returns the base cost of evaluating one condition.
func CalculateConditionCost(t types.ConditionType) int {
	switch t {
	case types.ConditionSelected:
		return CostSelected
	case types.ConditionNotSelected:
		return CostNotSelected
	case types.ConditionEquals:
		return CostEquals
	case types.ConditionGreater:
		return CostGreater
	case types.ConditionLess:
		return CostLess
	case types.ConditionContains:
		return CostContains
	default:
		return CostUnknown
	}
}
