package rulegroup

import "github.com/solatis/skiplogic/internal/types"

func emptyState() types.State {
	return types.State{
		Conditions:         []types.Condition{},
		Groups:             []types.Group{},
		Actions:            []types.Action{},
		SelectedConditions: []int{},
		NextGroupID:        1,
	}
}

// State returns a snapshot of the session. Callers may modify it freely.
func (m *Manager) State() types.State {
	return m.state.Clone()
}

// SetState replaces the session with s, defaulting missing collections to
// empty and a non-positive NextGroupID to 1, then notifies. No validation or
// repair happens here.
func (m *Manager) SetState(s types.State) {
	next := s.Clone()
	if next.NextGroupID < 1 {
		next.NextGroupID = 1
	}
	m.state = next
	m.notify()
}

// Reset empties the session and notifies. The draft is not rewritten until
// the next structural mutation or an explicit SaveToStorage.
func (m *Manager) Reset() {
	m.state = emptyState()
	m.notify()
}
