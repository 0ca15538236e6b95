// internal/rules/coercion.go
package rules

import (
	"math"
	"strconv"
	"strings"

	"github.com/solatis/skiplogic/internal/types"
)

/*
 * Answer coercion for rule evaluation.
 *
 * Answers and condition values are strings. Text comparison normalizes
 * whitespace and case; numeric comparison parses both sides as float64.
 *
 * Key distinction: a missing answer and an unparseable answer both make a
 * numeric condition false, but only the coercion failure is reported as
 * ErrCoercionFailed so callers can tell them apart in diagnostics.
 *
 * Numeric mode: whitespace is trimmed first; whitespace-only strings are not
 * valid numbers. NaN and infinities are rejected since they never order
 * meaningfully against survey answers.
 */

// CoerceNumber parses s as a float64.
func CoerceNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, types.ErrCoercionFailed
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, types.ErrCoercionFailed
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, types.ErrCoercionFailed
	}
	return f, nil
}

// normalizeText trims s and folds it to lower case for comparison.
func normalizeText(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
