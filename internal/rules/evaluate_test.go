// internal/rules/evaluate_test.go
package rules

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/solatis/skiplogic/internal/types"
)

func mustCompile(t *testing.T, rs types.RuleSet) *CompiledRuleSet {
	t.Helper()
	compiled, err := Compile(rs)
	if err != nil {
		t.Fatalf("Compile() error = %v, want nil", err)
	}
	return compiled
}

func TestEvaluate_SimpleMatch(t *testing.T) {
	rs := types.RuleSet{
		GroupName:  "adults",
		Conditions: []types.Condition{cond(types.ConditionGreater, "age", "17", types.LogicAnd)},
		Actions:    []types.Action{{Type: types.ActionShow, TargetQuestions: []string{"q9"}}},
	}

	result := Evaluate(mustCompile(t, rs), types.Answers{"age": {"30"}})

	if !result.Matched {
		t.Fatalf("Matched = false, want true")
	}
	want := types.Outcome{
		GroupName: "adults",
		Matched:   true,
		Actions:   []types.Action{{Type: types.ActionShow, TargetQuestions: []string{"q9"}}},
	}
	if diff := cmp.Diff(want, result.Outcome); diff != "" {
		t.Errorf("Outcome mismatch (-want +got):\n%s", diff)
	}
	if result.MatchedGroup != 0 {
		t.Errorf("MatchedGroup = %v, want 0", result.MatchedGroup)
	}
}

func TestEvaluate_NoMatchCarriesNoActions(t *testing.T) {
	rs := types.RuleSet{
		GroupName:  "adults",
		Conditions: []types.Condition{cond(types.ConditionGreater, "age", "17", types.LogicAnd)},
		Actions:    []types.Action{{Type: types.ActionEnd}},
	}

	result := Evaluate(mustCompile(t, rs), types.Answers{"age": {"12"}})

	if result.Matched || result.Outcome.Matched {
		t.Errorf("Matched = true, want false")
	}
	if result.MatchedGroup != -1 {
		t.Errorf("MatchedGroup = %v, want -1", result.MatchedGroup)
	}
	if result.Outcome.Actions == nil || len(result.Outcome.Actions) != 0 {
		t.Errorf("Actions = %v, want empty non-nil", result.Outcome.Actions)
	}
}

func TestEvaluate_EmptyRuleSetNeverMatches(t *testing.T) {
	rs := types.RuleSet{Actions: []types.Action{{Type: types.ActionEnd}}}

	result := Evaluate(mustCompile(t, rs), types.Answers{"q1": {"anything"}})

	if result.Matched {
		t.Errorf("Matched = true, want false")
	}
}

func TestEvaluate_Precedence(t *testing.T) {
	// a AND b OR c
	rs := types.RuleSet{
		Conditions: []types.Condition{
			cond(types.ConditionSelected, "a", "y", types.LogicAnd),
			cond(types.ConditionSelected, "b", "y", types.LogicOr),
			cond(types.ConditionSelected, "c", "y", types.LogicAnd),
		},
	}
	compiled := mustCompile(t, rs)

	tests := []struct {
		name      string
		answers   types.Answers
		want      bool
		wantGroup int
	}{
		{"a and b", types.Answers{"a": {"y"}, "b": {"y"}}, true, 0},
		{"only c", types.Answers{"c": {"y"}}, true, 1},
		{"only a", types.Answers{"a": {"y"}}, false, -1},
		{"a and c", types.Answers{"a": {"y"}, "c": {"y"}}, true, 1},
		{"nothing", types.Answers{}, false, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Evaluate(compiled, tt.answers)
			if result.Matched != tt.want {
				t.Errorf("Matched = %v, want %v", result.Matched, tt.want)
			}
			if result.MatchedGroup != tt.wantGroup {
				t.Errorf("MatchedGroup = %v, want %v", result.MatchedGroup, tt.wantGroup)
			}
		})
	}
}

func TestEvaluate_GroupLogic(t *testing.T) {
	// country = NL AND (age > 65 OR student selected)
	rs := types.RuleSet{
		Conditions: []types.Condition{
			cond(types.ConditionEquals, "country", "NL", types.LogicAnd),
			grouped(cond(types.ConditionGreater, "age", "65", types.LogicAnd), 1),
			grouped(cond(types.ConditionSelected, "status", "student", types.LogicAnd), 1),
		},
		Groups: []types.Group{{ID: 1, Logic: types.LogicOr, NextLogic: types.LogicAnd}},
	}
	compiled := mustCompile(t, rs)

	tests := []struct {
		name        string
		answers     types.Answers
		want        bool
		wantMatched []int
	}{
		{"senior", types.Answers{"country": {"nl"}, "age": {"70"}}, true, []int{0, 1}},
		{"student", types.Answers{"country": {"NL"}, "age": {"20"}, "status": {"Student", "Employed"}}, true, []int{0, 2}},
		{"wrong country", types.Answers{"country": {"DE"}, "age": {"70"}}, false, nil},
		{"neither", types.Answers{"country": {"NL"}, "age": {"30"}}, false, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Evaluate(compiled, tt.answers)
			if result.Matched != tt.want {
				t.Fatalf("Matched = %v, want %v", result.Matched, tt.want)
			}
			if diff := cmp.Diff(tt.wantMatched, result.MatchedConditions); diff != "" {
				t.Errorf("MatchedConditions mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEvaluate_AndGroupRequiresAllMembers(t *testing.T) {
	rs := types.RuleSet{
		Conditions: []types.Condition{
			grouped(cond(types.ConditionSelected, "a", "y", types.LogicAnd), 2),
			grouped(cond(types.ConditionContains, "b", "y", types.LogicAnd), 2),
		},
		Groups: []types.Group{{ID: 2, Logic: types.LogicAnd, NextLogic: types.LogicOr}},
	}
	compiled := mustCompile(t, rs)

	if Evaluate(compiled, types.Answers{"a": {"y"}}).Matched {
		t.Errorf("Matched with one AND member, want false")
	}
	if !Evaluate(compiled, types.Answers{"a": {"y"}, "b": {"yes"}}).Matched {
		t.Errorf("Matched = false with both AND members, want true")
	}
}

func TestEvaluate_BlankAnswersAreMissing(t *testing.T) {
	rs := types.RuleSet{
		Conditions: []types.Condition{cond(types.ConditionNotSelected, "q1", "x", types.LogicAnd)},
	}

	if !Evaluate(mustCompile(t, rs), types.Answers{"q1": {"", "  "}}).Matched {
		t.Errorf("not_selected on blank answers = false, want true")
	}
}

// Property: cost ordering never changes the outcome.
func TestEvaluate_PropertyOrderIndependent(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	opTypes := []types.ConditionType{
		types.ConditionSelected, types.ConditionNotSelected, types.ConditionContains,
		types.ConditionEquals, types.ConditionGreater, types.ConditionLess,
	}

	properties.Property("reversing AND terms preserves the result", prop.ForAll(
		func(codes []int, answer int) bool {
			rs := types.RuleSet{}
			for i, c := range codes {
				logic := types.LogicAnd
				if c%5 == 0 {
					logic = types.LogicOr
				}
				rs.Conditions = append(rs.Conditions, types.Condition{
					Type:     opTypes[c%len(opTypes)],
					Question: []string{"q1", "q2"}[i%2],
					Answer:   []string{"1", "2", "a"}[c%3],
					Logic:    logic,
				})
			}
			compiled, err := Compile(rs)
			if err != nil {
				return false
			}
			answers := types.Answers{"q1": {[]string{"1", "2", "a", ""}[answer%4]}, "q2": {"2"}}

			reversed := &CompiledRuleSet{}
			for _, g := range compiled.OrGroups {
				terms := make([]CompiledTerm, len(g.Terms))
				for i, term := range g.Terms {
					terms[len(g.Terms)-1-i] = term
				}
				reversed.OrGroups = append(reversed.OrGroups, CompiledAndGroup{Terms: terms})
			}

			return Evaluate(compiled, answers).Matched == Evaluate(reversed, answers).Matched
		},
		gen.SliceOf(gen.IntRange(0, 29)),
		gen.IntRange(0, 3),
	))

	properties.Property("not_selected negates selected", prop.ForAll(
		func(value int, answered []int) bool {
			v := []string{"red", "green", "blue"}[value%3]
			var answers []string
			for _, a := range answered {
				answers = append(answers, []string{"Red", "GREEN", " blue ", "x"}[a%4])
			}
			return Compare(types.ConditionSelected, answers, v) != Compare(types.ConditionNotSelected, answers, v)
		},
		gen.IntRange(0, 2),
		gen.SliceOf(gen.IntRange(0, 3)),
	))

	properties.TestingRun(t)
}
