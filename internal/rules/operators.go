// internal/rules/operators.go
package rules

import (
	"strings"

	"github.com/solatis/skiplogic/internal/types"
)

/*
 * Operator comparison logic.
 *
 * Implements the six condition types against a respondent's answer values.
 * A question may carry several values (multi-select), so text operators match
 * when any value matches.
 *
 * Operators:
 *   - selected/equals: some value equals the condition value (cost 5)
 *   - not_selected: no value equals the condition value (cost 5)
 *   - greater/less: first value compared numerically (cost 7)
 *   - contains: some value contains the condition value (cost 10)
 *
 * Text comparison is case-insensitive and ignores surrounding whitespace.
 * A missing answer makes every operator false except not_selected.
 */

// Compare applies condition type op to answer values against value.
func Compare(op types.ConditionType, values []string, value string) bool {
	switch op {
	case types.ConditionSelected, types.ConditionEquals:
		return anyEqual(values, value)
	case types.ConditionNotSelected:
		return !anyEqual(values, value)
	case types.ConditionContains:
		return anyContains(values, value)
	case types.ConditionGreater:
		return compareNumeric(values, value) > 0
	case types.ConditionLess:
		return compareNumeric(values, value) < 0
	default:
		return false
	}
}

// anyEqual reports whether some value equals target after normalization.
func anyEqual(values []string, target string) bool {
	t := normalizeText(target)
	for _, v := range values {
		if normalizeText(v) == t {
			return true
		}
	}
	return false
}

// anyContains reports whether some value contains target after normalization.
func anyContains(values []string, target string) bool {
	t := normalizeText(target)
	for _, v := range values {
		if strings.Contains(normalizeText(v), t) {
			return true
		}
	}
	return false
}

// compareNumeric performs three-way numeric comparison (-1/0/1) of the first
// value against target. Returns 0 when either side is missing or not numeric,
// which makes both greater and less false.
func compareNumeric(values []string, target string) int {
	if len(values) == 0 {
		return 0
	}
	a, err := CoerceNumber(values[0])
	if err != nil {
		return 0
	}
	b, err := CoerceNumber(target)
	if err != nil {
		return 0
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
