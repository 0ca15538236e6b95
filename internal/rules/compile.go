// internal/rules/compile.go
package rules

import (
	"fmt"
	"sort"

	"github.com/solatis/skiplogic/internal/rulegroup"
	"github.com/solatis/skiplogic/internal/types"
)

/*
 * Rule set compilation.
 *
 * Compiles a types.RuleSet into disjunctive normal form: an OR of AND groups,
 * where each AND group holds terms. A term is either one standalone condition
 * or a whole condition group evaluated with the group's own logic.
 *
 * Compilation workflow:
 *   1. Organize conditions into the display sequence (groups at the position
 *      of their first member)
 *   2. Validate condition types and logic values
 *   3. Split the sequence into AND groups wherever the joiner is OR
 *   4. Order terms inside each AND group by ascending cost (stable sort)
 *
 * Joiners: the operator after a standalone condition is the condition's own
 * logic; after a group it is the group's nextLogic. The joiner after the last
 * item is ignored. AND binds tighter than OR, so "a AND b OR c" compiles to
 * (a AND b) OR (c).
 *
 * Stable sort keeps equal-cost terms in display order so matched term
 * reporting is deterministic across identical inputs.
 */

// TermKind distinguishes single-condition terms from group terms.
type TermKind int

const (
	TermCondition TermKind = iota
	TermGroup
)

// CompiledCondition is a validated condition ready for evaluation.
type CompiledCondition struct {
	Index    int // position in the rule set's condition list
	Type     types.ConditionType
	Question string
	Value    string
	Cost     int
}

// CompiledTerm is one operand of an AND group.
type CompiledTerm struct {
	Kind       TermKind
	GroupID    int
	Logic      types.Logic // joins Conditions of a group term
	Conditions []CompiledCondition
	Cost       int
}

// CompiledAndGroup holds terms that must all match.
type CompiledAndGroup struct {
	Terms []CompiledTerm // ordered by ascending cost
}

// CompiledRuleSet is fully pre-processed and ready for evaluation.
type CompiledRuleSet struct {
	GroupName string
	OrGroups  []CompiledAndGroup
	Actions   []types.Action
}

// Compile validates rs and converts it to DNF. A rule set without conditions
// compiles to zero OR groups and never matches.
func Compile(rs types.RuleSet) (*CompiledRuleSet, error) {
	compiled := &CompiledRuleSet{
		GroupName: rs.GroupName,
		Actions:   make([]types.Action, len(rs.Actions)),
	}
	for i, a := range rs.Actions {
		compiled.Actions[i] = a.Clone()
	}

	groups := make(map[int]types.Group, len(rs.Groups))
	for _, g := range rs.Groups {
		groups[g.ID] = g
	}

	var current CompiledAndGroup
	for _, item := range rulegroup.Organize(rs.Conditions) {
		term, joiner, err := compileItem(item, groups)
		if err != nil {
			return nil, err
		}

		current.Terms = append(current.Terms, term)

		// A trailing OR leaves an empty group, which appendGroup drops.
		if joiner == types.LogicOr {
			compiled.OrGroups = appendGroup(compiled.OrGroups, current)
			current = CompiledAndGroup{}
		}
	}
	compiled.OrGroups = appendGroup(compiled.OrGroups, current)

	return compiled, nil
}

// appendGroup sorts and appends a non-empty AND group.
func appendGroup(groups []CompiledAndGroup, g CompiledAndGroup) []CompiledAndGroup {
	if len(g.Terms) == 0 {
		return groups
	}
	sort.SliceStable(g.Terms, func(i, j int) bool {
		return g.Terms[i].Cost < g.Terms[j].Cost
	})
	return append(groups, g)
}

// compileItem converts one organized item into a term and returns the joiner
// that follows it.
func compileItem(item rulegroup.OrganizedItem, groups map[int]types.Group) (CompiledTerm, types.Logic, error) {
	if item.Kind == rulegroup.ItemSingle {
		cc, err := compileCondition(item.Index, *item.Condition)
		if err != nil {
			return CompiledTerm{}, "", err
		}
		joiner, err := parseLogic(item.Condition.Logic)
		if err != nil {
			return CompiledTerm{}, "", fmt.Errorf("condition %d: %w", item.Index, err)
		}
		return CompiledTerm{
			Kind:       TermCondition,
			Logic:      types.LogicAnd,
			Conditions: []CompiledCondition{cc},
			Cost:       cc.Cost,
		}, joiner, nil
	}

	// Groups referenced without metadata default to AND/AND.
	g, ok := groups[item.GroupID]
	if !ok {
		g = types.Group{ID: item.GroupID}
	}
	logic, err := parseLogic(g.Logic)
	if err != nil {
		return CompiledTerm{}, "", fmt.Errorf("group %d: %w", g.ID, err)
	}
	joiner, err := parseLogic(g.NextLogic)
	if err != nil {
		return CompiledTerm{}, "", fmt.Errorf("group %d: %w", g.ID, err)
	}

	term := CompiledTerm{
		Kind:       TermGroup,
		GroupID:    g.ID,
		Logic:      logic,
		Conditions: make([]CompiledCondition, 0, len(item.Members)),
	}
	for _, m := range item.Members {
		cc, err := compileCondition(m.Index, m.Condition)
		if err != nil {
			return CompiledTerm{}, "", err
		}
		term.Conditions = append(term.Conditions, cc)
		term.Cost += cc.Cost
	}
	return term, joiner, nil
}

// compileCondition validates a single condition and calculates its cost.
func compileCondition(index int, c types.Condition) (CompiledCondition, error) {
	if !c.Type.Valid() {
		return CompiledCondition{}, fmt.Errorf("condition %d: %w: %q", index, types.ErrInvalidConditionType, c.Type)
	}
	return CompiledCondition{
		Index:    index,
		Type:     c.Type,
		Question: c.Question,
		Value:    c.Answer,
		Cost:     CalculateConditionCost(c.Type),
	}, nil
}

// parseLogic accepts empty logic as AND, which older documents omit.
func parseLogic(l types.Logic) (types.Logic, error) {
	if l == "" {
		return types.LogicAnd, nil
	}
	return types.ParseLogic(string(l))
}
