// Package types provides the domain model shared across skiplogic components.
//
// Zero-dependency design: types.go, rules.go and errors.go use only the standard
// library so the model can be embedded by the editor backend and the survey runtime
// alike. ID utilities in ids.go import uuid but are isolated from the model.
//
// JSON field names follow the persisted document layout (camelCase) so drafts and
// saved rule sets written by earlier editor builds load unchanged.
package types

import (
	"bytes"
	"encoding/json"
	"slices"
	"strings"
	"time"
)

// DocumentVersion is the layout version written into every persisted document.
const DocumentVersion = 1

// ConditionType is the predicate a condition applies to a question's answer.
type ConditionType string

const (
	ConditionSelected    ConditionType = "selected"
	ConditionNotSelected ConditionType = "not_selected"
	ConditionContains    ConditionType = "contains"
	ConditionEquals      ConditionType = "equals"
	ConditionGreater     ConditionType = "greater"
	ConditionLess        ConditionType = "less"
)

// Valid reports whether t is a known condition type.
func (t ConditionType) Valid() bool {
	switch t {
	case ConditionSelected, ConditionNotSelected, ConditionContains,
		ConditionEquals, ConditionGreater, ConditionLess:
		return true
	}
	return false
}

// Logic is the boolean operator joining conditions or groups.
type Logic string

const (
	LogicAnd Logic = "AND"
	LogicOr  Logic = "OR"
)

// ParseLogic accepts "AND"/"OR" in any case.
func ParseLogic(s string) (Logic, error) {
	switch Logic(strings.ToUpper(strings.TrimSpace(s))) {
	case LogicAnd:
		return LogicAnd, nil
	case LogicOr:
		return LogicOr, nil
	}
	return "", ErrInvalidLogic
}

// OrDefault returns l normalised through ParseLogic, or AND when l is empty
// or unknown.
func (l Logic) OrDefault() Logic {
	if p, err := ParseLogic(string(l)); err == nil {
		return p
	}
	return LogicAnd
}

// ActionType is the effect a rule triggers.
type ActionType string

const (
	ActionEnd     ActionType = "end"
	ActionForward ActionType = "forward"
	ActionShow    ActionType = "show"
	ActionHide    ActionType = "hide"
	ActionDisable ActionType = "disable"

	// Legacy action types. Only the summary formatter understands these; the
	// editor never emits them.
	ActionShowOption    ActionType = "show_option"
	ActionHideOption    ActionType = "hide_option"
	ActionDisableOption ActionType = "disable_option"
	ActionSkip          ActionType = "skip"
)

// Editable reports whether t can be produced by the editor.
func (t ActionType) Editable() bool {
	switch t {
	case ActionEnd, ActionForward, ActionShow, ActionHide, ActionDisable:
		return true
	}
	return false
}

// Condition is a single predicate on a survey question.
// GroupID is nil for standalone conditions.
type Condition struct {
	Type     ConditionType `json:"type"`
	Question string        `json:"question"`
	Answer   string        `json:"answer"`
	Logic    Logic         `json:"logic"`
	GroupID  *int          `json:"groupId"`
}

// Grouped reports whether the condition belongs to a group.
func (c Condition) Grouped() bool {
	return c.GroupID != nil
}

// InGroup reports whether the condition belongs to group id.
func (c Condition) InGroup(id int) bool {
	return c.GroupID != nil && *c.GroupID == id
}

// Clone returns a copy that shares no memory with c.
func (c Condition) Clone() Condition {
	if c.GroupID != nil {
		id := *c.GroupID
		c.GroupID = &id
	}
	return c
}

// GroupRef returns a fresh pointer to id for use as Condition.GroupID.
func GroupRef(id int) *int {
	return &id
}

// Group is a named AND/OR cluster of conditions. Membership lives on
// Condition.GroupID; the group only carries metadata.
type Group struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Logic     Logic  `json:"logic"`
	NextLogic Logic  `json:"nextLogic"`
}

// Action is an effect triggered when a rule's conditions hold.
type Action struct {
	Type            ActionType `json:"type"`
	TargetQuestions []string   `json:"targetQuestions"`
	TargetPage      string     `json:"targetPage"`
	ForwardURL      string     `json:"forwardUrl"`
	Timing          string     `json:"timing"`
}

// Clone returns a copy that shares no memory with a.
func (a Action) Clone() Action {
	// nil and empty stay distinct: empty persists as [] and nil as null.
	a.TargetQuestions = slices.Clone(a.TargetQuestions)
	return a
}

// Question is an entry in the survey's question catalog.
type Question struct {
	ID    string `json:"id" yaml:"id"`
	Label string `json:"label" yaml:"label"`
}

// State is one editing session.
// SelectedConditions is transient UI selection and is never persisted.
type State struct {
	GroupName          string      `json:"groupName"`
	Conditions         []Condition `json:"conditions"`
	Groups             []Group     `json:"groups"`
	Actions            []Action    `json:"actions"`
	SelectedConditions []int       `json:"selectedConditions"`
	NextGroupID        int         `json:"nextGroupId"`
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	out := State{
		GroupName:          s.GroupName,
		Conditions:         make([]Condition, len(s.Conditions)),
		Groups:             append([]Group{}, s.Groups...),
		Actions:            make([]Action, len(s.Actions)),
		SelectedConditions: append([]int{}, s.SelectedConditions...),
		NextGroupID:        s.NextGroupID,
	}
	for i, c := range s.Conditions {
		out.Conditions[i] = c.Clone()
	}
	for i, a := range s.Actions {
		out.Actions[i] = a.Clone()
	}
	return out
}

// RuleSet is the persisted snapshot of a session. The draft document and
// every entry of the saved list share this layout; saved entries are keyed
// by GroupName.
type RuleSet struct {
	Version     int         `json:"version"`
	GroupName   string      `json:"groupName"`
	Conditions  []Condition `json:"conditions"`
	Groups      []Group     `json:"groups"`
	Actions     []Action    `json:"actions"`
	NextGroupID int         `json:"nextGroupId"`
	SavedAt     time.Time   `json:"savedAt"`
}

// Snapshot captures the persistable part of s.
func (s State) Snapshot(savedAt time.Time) RuleSet {
	c := s.Clone()
	return RuleSet{
		Version:     DocumentVersion,
		GroupName:   c.GroupName,
		Conditions:  c.Conditions,
		Groups:      c.Groups,
		Actions:     c.Actions,
		NextGroupID: c.NextGroupID,
		SavedAt:     savedAt,
	}
}

// State converts the snapshot back into a session with an empty selection.
func (r RuleSet) State() State {
	return State{
		GroupName:   r.GroupName,
		Conditions:  r.Conditions,
		Groups:      r.Groups,
		Actions:     r.Actions,
		NextGroupID: r.NextGroupID,
	}.Clone()
}

// UnmarshalJSON decodes a rule set, reading savedAt leniently. A savedAt that
// is neither an RFC 3339 string nor a millisecond epoch number decodes as the
// zero time instead of failing, so one odd entry cannot spoil a saved list.
func (r *RuleSet) UnmarshalJSON(data []byte) error {
	type plain RuleSet
	aux := struct {
		*plain
		SavedAt json.RawMessage `json:"savedAt"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	r.SavedAt = parseSavedAt(aux.SavedAt)
	return nil
}

func parseSavedAt(raw json.RawMessage) time.Time {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return time.Time{}
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return time.Time{}
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return time.Time{}
		}
		return t
	case 'n':
		return time.Time{}
	default:
		// Date.now() style milliseconds since the epoch.
		var ms float64
		if err := json.Unmarshal(raw, &ms); err != nil {
			return time.Time{}
		}
		return time.UnixMilli(int64(ms)).UTC()
	}
}
