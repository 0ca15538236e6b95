package rulegroup

import (
	"testing"

	"github.com/solatis/skiplogic/internal/catalog"
	"github.com/solatis/skiplogic/internal/types"
)

func TestConditionSummary(t *testing.T) {
	f := NewFormatter(catalog.New(testQuestions))

	tests := []struct {
		name string
		cond types.Condition
		want string
	}{
		{"selected", types.Condition{Type: types.ConditionSelected, Question: "q1", Answer: "18-25"}, `Age is selected "18-25"`},
		{"not selected", types.Condition{Type: types.ConditionNotSelected, Question: "q2", Answer: "NL"}, `Country is not selected "NL"`},
		{"contains", types.Condition{Type: types.ConditionContains, Question: "q3", Answer: "blue"}, `Favourite colour contains "blue"`},
		{"equals", types.Condition{Type: types.ConditionEquals, Question: "q2", Answer: "DE"}, `Country equals "DE"`},
		{"greater", types.Condition{Type: types.ConditionGreater, Question: "q1", Answer: "40"}, `Age is greater than "40"`},
		{"less", types.Condition{Type: types.ConditionLess, Question: "q1", Answer: "18"}, `Age is less than "18"`},
		{"unknown question", types.Condition{Type: types.ConditionEquals, Question: "q99", Answer: "x"}, `q99 equals "x"`},
		{"unknown type", types.Condition{Type: "matches", Question: "q1", Answer: "x"}, `Age matches "x"`},
		{"quotes kept raw", types.Condition{Type: types.ConditionEquals, Question: "q1", Answer: `say "hi"`}, `Age equals "say "hi""`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.ConditionSummary(tt.cond); got != tt.want {
				t.Errorf("ConditionSummary() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestActionSummary(t *testing.T) {
	f := NewFormatter(catalog.New(testQuestions))

	tests := []struct {
		name   string
		action types.Action
		want   string
	}{
		{"end", types.Action{Type: types.ActionEnd}, "End survey"},
		{"forward", types.Action{Type: types.ActionForward, ForwardURL: "https://example.org/thanks"}, `Forward to "https://example.org/thanks"`},
		{"show", types.Action{Type: types.ActionShow, TargetQuestions: []string{"q1", "q3"}}, "Show Age, Favourite colour"},
		{"hide unknown", types.Action{Type: types.ActionHide, TargetQuestions: []string{"q9"}}, "Hide q9"},
		{"disable no targets", types.Action{Type: types.ActionDisable}, "Disable"},
		{"show option", types.Action{Type: types.ActionShowOption, TargetQuestions: []string{"q2"}}, "Show option(s) in Country"},
		{"hide option", types.Action{Type: types.ActionHideOption, TargetQuestions: []string{"q2"}}, "Hide option(s) in Country"},
		{"disable option", types.Action{Type: types.ActionDisableOption, TargetQuestions: []string{"q2"}}, "Disable option(s) in Country"},
		{"skip", types.Action{Type: types.ActionSkip, TargetPage: "page-3"}, "Skip to page-3"},
		{"unknown", types.Action{Type: "redirect"}, "redirect"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.ActionSummary(tt.action); got != tt.want {
				t.Errorf("ActionSummary() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSummarizeConditions(t *testing.T) {
	f := NewFormatter(catalog.New(testQuestions))
	age := types.Condition{Type: types.ConditionGreater, Question: "q1", Answer: "18"}
	country := types.Condition{Type: types.ConditionEquals, Question: "q2", Answer: "NL"}
	colour := types.Condition{Type: types.ConditionContains, Question: "q3", Answer: "red"}

	inGroup := func(c types.Condition, id int) types.Condition {
		c.GroupID = types.GroupRef(id)
		return c
	}

	tests := []struct {
		name string
		rs   types.RuleSet
		want string
	}{
		{
			name: "empty",
			rs:   types.RuleSet{},
			want: "",
		},
		{
			name: "no groups joins with AND",
			rs: types.RuleSet{
				Conditions: []types.Condition{age, {Type: types.ConditionEquals, Question: "q2", Answer: "NL", Logic: types.LogicOr}},
			},
			want: `Age is greater than "18" AND Country equals "NL"`,
		},
		{
			name: "group then ungrouped",
			rs: types.RuleSet{
				Conditions: []types.Condition{inGroup(age, 1), colour, inGroup(country, 1)},
				Groups:     []types.Group{{ID: 1, Logic: types.LogicOr}},
			},
			want: `(Age is greater than "18" OR Country equals "NL") AND Favourite colour contains "red"`,
		},
		{
			name: "clusters in first appearance order",
			rs: types.RuleSet{
				Conditions: []types.Condition{inGroup(colour, 7), inGroup(age, 2), inGroup(country, 7), inGroup(age, 2)},
				Groups: []types.Group{
					{ID: 2, Logic: types.LogicAnd},
					{ID: 7, Logic: types.LogicOr},
				},
			},
			want: `(Favourite colour contains "red" OR Country equals "NL") AND (Age is greater than "18" AND Age is greater than "18")`,
		},
		{
			name: "lowercase stored logic",
			rs: types.RuleSet{
				Conditions: []types.Condition{inGroup(age, 1), inGroup(country, 1)},
				Groups:     []types.Group{{ID: 1, Logic: types.Logic("or")}},
			},
			want: `(Age is greater than "18" OR Country equals "NL")`,
		},
		{
			name: "reference without metadata defaults to AND",
			rs: types.RuleSet{
				Conditions: []types.Condition{inGroup(age, 3), inGroup(country, 3), inGroup(colour, 1), inGroup(colour, 1)},
				Groups:     []types.Group{{ID: 1, Logic: types.LogicOr}},
			},
			want: `(Age is greater than "18" AND Country equals "NL") AND (Favourite colour contains "red" OR Favourite colour contains "red")`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.SummarizeConditions(tt.rs); got != tt.want {
				t.Errorf("SummarizeConditions() =\n  %q\nwant\n  %q", got, tt.want)
			}
		})
	}
}

func TestSummarizeActions(t *testing.T) {
	f := NewFormatter(catalog.New(testQuestions))
	show := types.Action{Type: types.ActionShow, TargetQuestions: []string{"q1"}}
	end := types.Action{Type: types.ActionEnd}

	tests := []struct {
		name    string
		actions []types.Action
		want    string
	}{
		{"none", nil, ""},
		{"one", []types.Action{end}, "End survey"},
		{"three", []types.Action{show, show, end}, "Show Age; Show Age; End survey"},
		{"five", []types.Action{end, show, show, end, end}, "End survey; Show Age; Show Age and 2 more"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.SummarizeActions(types.RuleSet{Actions: tt.actions}); got != tt.want {
				t.Errorf("SummarizeActions() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSummaries_Deterministic(t *testing.T) {
	m, _ := newTestManager(t)
	buildSession(t, m)
	rs := m.State().Snapshot(fixedNow)

	firstIf, firstThen := m.SummarizeConditions(rs), m.SummarizeActions(rs)
	for i := 0; i < 20; i++ {
		if got := m.SummarizeConditions(rs); got != firstIf {
			t.Fatalf("SummarizeConditions() run %d = %q, want %q", i, got, firstIf)
		}
		if got := m.SummarizeActions(rs); got != firstThen {
			t.Fatalf("SummarizeActions() run %d = %q, want %q", i, got, firstThen)
		}
	}

	wantIf := `(Age is selected "" OR Favourite colour contains "red") AND Country is selected "yes"`
	if firstIf != wantIf {
		t.Errorf("SummarizeConditions() = %q, want %q", firstIf, wantIf)
	}
	if firstThen != "Show Favourite colour; End survey" {
		t.Errorf("SummarizeActions() = %q", firstThen)
	}
}
