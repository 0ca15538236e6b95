package rules

import (
	"fmt"

	"github.com/solatis/skiplogic/internal/rulegroup"
	"github.com/solatis/skiplogic/internal/types"
	"go.uber.org/zap"
)

// Engine evaluates saved rule sets by name. It reads the saved list on every
// call, so edits made through a Manager on the same store are visible at once.
type Engine struct {
	saved  *rulegroup.SavedList
	logger *zap.Logger
}

// NewEngine creates an engine over saved.
func NewEngine(saved *rulegroup.SavedList, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{saved: saved, logger: logger}
}

// Evaluate compiles and evaluates the saved rule set named name.
func (e *Engine) Evaluate(name string, answers types.Answers) (MatchResult, error) {
	rs, err := e.saved.Find(name)
	if err != nil {
		return MatchResult{}, err
	}
	return e.evaluate(rs, answers)
}

// EvaluateAll evaluates every saved rule set in stored order.
func (e *Engine) EvaluateAll(answers types.Answers) ([]MatchResult, error) {
	sets, err := e.saved.List()
	if err != nil {
		return nil, err
	}

	results := make([]MatchResult, 0, len(sets))
	for _, rs := range sets {
		r, err := e.evaluate(rs, answers)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, nil
}

func (e *Engine) evaluate(rs types.RuleSet, answers types.Answers) (MatchResult, error) {
	compiled, err := Compile(rs)
	if err != nil {
		e.logger.Warn("rule set failed to compile", zap.String("name", rs.GroupName), zap.Error(err))
		return MatchResult{}, fmt.Errorf("compile %q: %w", rs.GroupName, err)
	}

	result := Evaluate(compiled, answers)
	e.logger.Debug("evaluated rule set",
		zap.String("name", rs.GroupName),
		zap.Bool("matched", result.Matched),
		zap.Int("or_group", result.MatchedGroup))
	return result, nil
}
