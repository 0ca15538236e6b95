// internal/rules/evaluate.go
package rules

import (
	"github.com/solatis/skiplogic/internal/types"
)

/*
 * Rule set evaluation.
 *
 * Evaluates a CompiledRuleSet against a respondent's answers with DNF
 * semantics (OR of AND groups).
 *
 * Evaluation flow:
 *   1. OR groups evaluation (short-circuit on first match)
 *   2. AND terms evaluation (short-circuit on first non-match, cost-ordered)
 *   3. Group terms: members joined by the group's logic, short-circuit
 *   4. Per-condition: look up answer values -> compare operator
 *   5. Record the matching OR group and the conditions that held
 *
 * Missing answers: Answers.Values drops blank values, so an unanswered
 * question behaves the same as a question with only empty input.
 *
 * Evaluation never fails: invalid input was rejected by Compile.
 */

// MatchResult contains the outcome of evaluating one rule set.
type MatchResult struct {
	Matched bool
	// MatchedGroup is the index of the first matching OR group, or -1.
	MatchedGroup int
	// MatchedConditions lists indices of the conditions that held in the
	// matching OR group, ascending within each term.
	MatchedConditions []int
	Outcome           types.Outcome
}

// Evaluate checks whether the rule set matches answers. A match carries the
// rule set's actions in the outcome; a non-match carries none.
func Evaluate(rs *CompiledRuleSet, answers types.Answers) MatchResult {
	result := MatchResult{
		MatchedGroup: -1,
		Outcome: types.Outcome{
			GroupName: rs.GroupName,
			Actions:   []types.Action{},
		},
	}

	for groupIdx, group := range rs.OrGroups {
		matched, conditions := evaluateAndGroup(group, answers)
		if !matched {
			continue
		}
		result.Matched = true
		result.MatchedGroup = groupIdx
		result.MatchedConditions = conditions
		result.Outcome.Matched = true
		for _, a := range rs.Actions {
			result.Outcome.Actions = append(result.Outcome.Actions, a.Clone())
		}
		return result
	}

	return result
}

// evaluateAndGroup evaluates an AND group (all terms must match).
// Short-circuits on the first non-matching term.
func evaluateAndGroup(group CompiledAndGroup, answers types.Answers) (bool, []int) {
	var held []int
	for _, term := range group.Terms {
		matched, indices := evaluateTerm(term, answers)
		if !matched {
			return false, nil
		}
		held = append(held, indices...)
	}
	return true, held
}

// evaluateTerm evaluates a standalone condition or a whole group with the
// group's logic. Returns the indices of the member conditions that held.
func evaluateTerm(term CompiledTerm, answers types.Answers) (bool, []int) {
	var held []int
	for _, cond := range term.Conditions {
		ok := evaluateCondition(cond, answers)
		if ok {
			held = append(held, cond.Index)
		}
		switch {
		case ok && term.Logic == types.LogicOr:
			return true, held
		case !ok && term.Logic != types.LogicOr:
			return false, nil
		}
	}
	if term.Logic == types.LogicOr {
		return false, nil
	}
	return true, held
}

// evaluateCondition evaluates a single condition against answers.
func evaluateCondition(cond CompiledCondition, answers types.Answers) bool {
	return Compare(cond.Type, answers.Values(cond.Question), cond.Value)
}
