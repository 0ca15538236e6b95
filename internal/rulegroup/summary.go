package rulegroup

import (
	"fmt"
	"strings"

	"github.com/solatis/skiplogic/internal/catalog"
	"github.com/solatis/skiplogic/internal/types"
)

// maxSummarizedActions caps how many actions SummarizeActions spells out.
const maxSummarizedActions = 3

var typePhrases = map[types.ConditionType]string{
	types.ConditionSelected:    "is selected",
	types.ConditionNotSelected: "is not selected",
	types.ConditionContains:    "contains",
	types.ConditionEquals:      "equals",
	types.ConditionGreater:     "is greater than",
	types.ConditionLess:        "is less than",
}

// Formatter renders conditions, actions and rule sets as English text.
// Output depends only on its input and the catalog.
type Formatter struct {
	catalog *catalog.Catalog
}

// NewFormatter resolves question labels through c.
func NewFormatter(c *catalog.Catalog) Formatter {
	return Formatter{catalog: c}
}

// ConditionSummary renders `{label} {phrase} "{answer}"`.
func (f Formatter) ConditionSummary(c types.Condition) string {
	phrase, ok := typePhrases[c.Type]
	if !ok {
		phrase = string(c.Type)
	}
	return fmt.Sprintf(`%s %s "%s"`, f.catalog.Label(c.Question), phrase, c.Answer)
}

// ActionSummary renders one action.
func (f Formatter) ActionSummary(a types.Action) string {
	targets := f.labels(a.TargetQuestions)

	switch a.Type {
	case types.ActionEnd:
		return "End survey"
	case types.ActionForward:
		return fmt.Sprintf(`Forward to "%s"`, a.ForwardURL)
	case types.ActionShow:
		return strings.TrimSpace("Show " + targets)
	case types.ActionHide:
		return strings.TrimSpace("Hide " + targets)
	case types.ActionDisable:
		return strings.TrimSpace("Disable " + targets)
	case types.ActionShowOption:
		return strings.TrimSpace("Show option(s) in " + targets)
	case types.ActionHideOption:
		return strings.TrimSpace("Hide option(s) in " + targets)
	case types.ActionDisableOption:
		return strings.TrimSpace("Disable option(s) in " + targets)
	case types.ActionSkip:
		return strings.TrimSpace("Skip to " + a.TargetPage)
	default:
		return string(a.Type)
	}
}

func (f Formatter) labels(ids []string) string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = f.catalog.Label(id)
	}
	return strings.Join(out, ", ")
}

// SummarizeConditions renders the IF clause of a rule set. With group
// metadata, members of each group become one parenthesized cluster joined by
// the group's logic, in order of first appearance, followed by the ungrouped
// conditions; everything is joined with AND. Without group metadata every
// condition is joined with AND.
func (f Formatter) SummarizeConditions(rs types.RuleSet) string {
	if len(rs.Groups) == 0 {
		parts := make([]string, len(rs.Conditions))
		for i, c := range rs.Conditions {
			parts[i] = f.ConditionSummary(c)
		}
		return strings.Join(parts, " AND ")
	}

	logic := make(map[int]types.Logic, len(rs.Groups))
	for _, g := range rs.Groups {
		logic[g.ID] = g.Logic.OrDefault()
	}

	var order []int
	clusters := make(map[int][]string)
	var ungrouped []string
	for _, c := range rs.Conditions {
		if c.GroupID == nil {
			ungrouped = append(ungrouped, f.ConditionSummary(c))
			continue
		}
		id := *c.GroupID
		if _, seen := clusters[id]; !seen {
			order = append(order, id)
		}
		clusters[id] = append(clusters[id], f.ConditionSummary(c))
	}

	parts := make([]string, 0, len(order)+len(ungrouped))
	for _, id := range order {
		op := logic[id].OrDefault()
		parts = append(parts, "("+strings.Join(clusters[id], " "+string(op)+" ")+")")
	}
	parts = append(parts, ungrouped...)
	return strings.Join(parts, " AND ")
}

// SummarizeActions joins the first three action summaries with "; " and
// appends " and N more" when there are others.
func (f Formatter) SummarizeActions(rs types.RuleSet) string {
	n := min(len(rs.Actions), maxSummarizedActions)
	parts := make([]string, n)
	for i := 0; i < n; i++ {
		parts[i] = f.ActionSummary(rs.Actions[i])
	}

	out := strings.Join(parts, "; ")
	if extra := len(rs.Actions) - n; extra > 0 {
		out += fmt.Sprintf(" and %d more", extra)
	}
	return out
}

// ConditionSummary renders one condition with the manager's catalog.
func (m *Manager) ConditionSummary(c types.Condition) string {
	return m.format.ConditionSummary(c)
}

// ActionSummary renders one action with the manager's catalog.
func (m *Manager) ActionSummary(a types.Action) string {
	return m.format.ActionSummary(a)
}

// SummarizeConditions renders the IF clause of rs.
func (m *Manager) SummarizeConditions(rs types.RuleSet) string {
	return m.format.SummarizeConditions(rs)
}

// SummarizeActions renders the THEN clause of rs.
func (m *Manager) SummarizeActions(rs types.RuleSet) string {
	return m.format.SummarizeActions(rs)
}
