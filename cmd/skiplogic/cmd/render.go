package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/solatis/skiplogic/internal/rulegroup"
	"github.com/solatis/skiplogic/internal/rules"
	"github.com/solatis/skiplogic/internal/types"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	groupStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	matchStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	missStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

// renderSummaryLine prints one rule set as a single list entry.
func renderSummaryLine(w io.Writer, f rulegroup.Formatter, rs types.RuleSet) {
	fmt.Fprintf(w, "%s  %s\n", titleStyle.Render(rs.GroupName), labelStyle.Render(savedAt(rs.SavedAt)))
	if cond := f.SummarizeConditions(rs); cond != "" {
		fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("IF"), cond)
	}
	if act := f.SummarizeActions(rs); act != "" {
		fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("THEN"), act)
	}
}

// renderRuleSet prints a rule set with every condition in display order.
func renderRuleSet(w io.Writer, f rulegroup.Formatter, rs types.RuleSet) {
	name := rs.GroupName
	if name == "" {
		name = "(unnamed)"
	}
	fmt.Fprintln(w, titleStyle.Render(name))
	if !rs.SavedAt.IsZero() {
		fmt.Fprintf(w, "%s %s\n", labelStyle.Render("saved"), savedAt(rs.SavedAt))
	}

	groups := make(map[int]types.Group, len(rs.Groups))
	for _, g := range rs.Groups {
		groups[g.ID] = g
	}

	fmt.Fprintln(w, labelStyle.Render("conditions"))
	items := rulegroup.Organize(rs.Conditions)
	if len(items) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for i, item := range items {
		last := i == len(items)-1
		if item.Kind == rulegroup.ItemSingle {
			fmt.Fprintf(w, "  [%d] %s%s\n", item.Index, f.ConditionSummary(*item.Condition), joiner(item.Condition.Logic, last))
			continue
		}

		g, ok := groups[item.GroupID]
		if !ok {
			g = types.Group{ID: item.GroupID, Name: fmt.Sprintf("Group %d", item.GroupID)}
		}
		header := fmt.Sprintf("%s (%s)", g.Name, g.Logic.OrDefault())
		fmt.Fprintf(w, "  %s%s\n", groupStyle.Render(header), joiner(g.NextLogic, last))
		for _, m := range item.Members {
			fmt.Fprintf(w, "    [%d] %s\n", m.Index, f.ConditionSummary(m.Condition))
		}
	}

	fmt.Fprintln(w, labelStyle.Render("actions"))
	if len(rs.Actions) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for i, a := range rs.Actions {
		fmt.Fprintf(w, "  [%d] %s\n", i, f.ActionSummary(a))
	}
}

// renderResult prints the outcome of evaluating a rule set.
func renderResult(w io.Writer, f rulegroup.Formatter, r rules.MatchResult) {
	if !r.Matched {
		fmt.Fprintf(w, "%s %s\n", missStyle.Render("no match"), r.Outcome.GroupName)
		return
	}

	held := make([]string, len(r.MatchedConditions))
	for i, idx := range r.MatchedConditions {
		held[i] = fmt.Sprint(idx)
	}
	fmt.Fprintf(w, "%s %s (conditions %s)\n", matchStyle.Render("match"), r.Outcome.GroupName, strings.Join(held, ", "))
	for _, a := range r.Outcome.Actions {
		fmt.Fprintf(w, "  %s\n", f.ActionSummary(a))
	}
}

func joiner(l types.Logic, last bool) string {
	if last {
		return ""
	}
	return " " + labelStyle.Render(string(l.OrDefault()))
}

func savedAt(t time.Time) string {
	if t.IsZero() {
		return "never saved"
	}
	return t.UTC().Format(time.RFC3339)
}
