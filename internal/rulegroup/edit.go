package rulegroup

import (
	"strings"

	"github.com/solatis/skiplogic/internal/types"
)

// ConditionPatch lists condition fields to change. Nil fields are kept.
type ConditionPatch struct {
	Type     *types.ConditionType
	Question *string
	Answer   *string
	Logic    *types.Logic
}

// ActionPatch lists action fields to change. Nil fields are kept.
type ActionPatch struct {
	Type            *types.ActionType
	TargetQuestions []string
	TargetPage      *string
	ForwardURL      *string
	Timing          *string
}

// UpdateCondition applies p to the condition at index. Group membership is
// changed only through the grouping operations. Returns false for an
// out-of-range index.
func (m *Manager) UpdateCondition(index int, p ConditionPatch) (bool, error) {
	if !m.validIndex(index) {
		return false, nil
	}
	if p.Type != nil && !p.Type.Valid() {
		return false, types.ErrInvalidConditionType
	}
	if p.Logic != nil {
		if _, err := types.ParseLogic(string(*p.Logic)); err != nil {
			return false, err
		}
	}

	c := &m.state.Conditions[index]
	if p.Type != nil {
		c.Type = *p.Type
	}
	if p.Question != nil {
		c.Question = *p.Question
	}
	if p.Answer != nil {
		c.Answer = *p.Answer
	}
	if p.Logic != nil {
		c.Logic, _ = types.ParseLogic(string(*p.Logic))
	}
	return true, m.commit()
}

// AddAction appends a show action with no targets.
func (m *Manager) AddAction() error {
	m.state.Actions = append(m.state.Actions, types.Action{
		Type:            types.ActionShow,
		TargetQuestions: []string{},
	})
	return m.commit()
}

// RemoveAction deletes the action at index. Returns false for an out-of-range index.
func (m *Manager) RemoveAction(index int) (bool, error) {
	if index < 0 || index >= len(m.state.Actions) {
		return false, nil
	}
	actions := make([]types.Action, 0, len(m.state.Actions)-1)
	actions = append(actions, m.state.Actions[:index]...)
	actions = append(actions, m.state.Actions[index+1:]...)
	m.state.Actions = actions
	return true, m.commit()
}

// UpdateAction applies p to the action at index. Only editor action types
// are accepted. Returns false for an out-of-range index.
func (m *Manager) UpdateAction(index int, p ActionPatch) (bool, error) {
	if index < 0 || index >= len(m.state.Actions) {
		return false, nil
	}
	if p.Type != nil && !p.Type.Editable() {
		return false, types.ErrInvalidActionType
	}

	a := &m.state.Actions[index]
	if p.Type != nil {
		a.Type = *p.Type
	}
	if p.TargetQuestions != nil {
		a.TargetQuestions = append([]string{}, p.TargetQuestions...)
	}
	if p.TargetPage != nil {
		a.TargetPage = *p.TargetPage
	}
	if p.ForwardURL != nil {
		a.ForwardURL = *p.ForwardURL
	}
	if p.Timing != nil {
		a.Timing = *p.Timing
	}
	return true, m.commit()
}

// SetGroupName sets the name the session is saved under.
func (m *Manager) SetGroupName(name string) error {
	m.state.GroupName = strings.TrimSpace(name)
	return m.commit()
}

// SetGroupLogic sets the operator among group id's members.
func (m *Manager) SetGroupLogic(id int, op types.Logic) (bool, error) {
	return m.updateGroup(id, func(g *types.Group) error {
		l, err := types.ParseLogic(string(op))
		g.Logic = l
		return err
	})
}

// SetGroupNextLogic sets the operator joining group id to the next item.
func (m *Manager) SetGroupNextLogic(id int, op types.Logic) (bool, error) {
	return m.updateGroup(id, func(g *types.Group) error {
		l, err := types.ParseLogic(string(op))
		g.NextLogic = l
		return err
	})
}

// RenameGroup sets the display name of group id. A blank name restores the default.
func (m *Manager) RenameGroup(id int, name string) (bool, error) {
	return m.updateGroup(id, func(g *types.Group) error {
		g.Name = strings.TrimSpace(name)
		if g.Name == "" {
			g.Name = defaultGroupName(g.ID)
		}
		return nil
	})
}

// updateGroup applies fn to a copy of group id and keeps it only if fn succeeds.
func (m *Manager) updateGroup(id int, fn func(*types.Group) error) (bool, error) {
	for i := range m.state.Groups {
		if m.state.Groups[i].ID != id {
			continue
		}
		g := m.state.Groups[i]
		if err := fn(&g); err != nil {
			return false, err
		}
		m.state.Groups[i] = g
		return true, m.commit()
	}
	return false, nil
}
