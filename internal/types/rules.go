// internal/types/rules.go
package types

import "strings"

/*
 * Domain types for rule evaluation at survey runtime.
 *
 * The editor produces RuleSet snapshots; the survey runtime evaluates them
 * against a respondent's answers. Answers are keyed by question id. A question
 * may carry several values (multi-select), so every answer is a list.
 *
 * Key types:
 *   - Answers: respondent answers keyed by question id
 *   - Outcome: result of evaluating one rule set
 */

// Answers maps question id to the respondent's answer values.
type Answers map[string][]string

// Values returns the non-blank answer values for question q.
func (a Answers) Values(q string) []string {
	var out []string
	for _, v := range a[q] {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}

// Outcome is the result of evaluating a rule set.
type Outcome struct {
	GroupName string   `json:"groupName"`
	Matched   bool     `json:"matched"`
	Actions   []Action `json:"actions"`
}
