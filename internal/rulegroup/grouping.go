package rulegroup

import (
	"fmt"
	"sort"

	"github.com/solatis/skiplogic/internal/types"
)

// minGroupSize is the smallest membership a group may have.
const minGroupSize = 2

// AddCondition appends a standalone condition on the first catalog question.
func (m *Manager) AddCondition() error {
	m.state.Conditions = append(m.state.Conditions, types.Condition{
		Type:     types.ConditionSelected,
		Question: m.catalog.First(),
		Answer:   "",
		Logic:    types.LogicAnd,
	})
	return m.commit()
}

// RemoveCondition deletes the condition at index. A group left with fewer
// than two members is dissolved. Returns false for an out-of-range index.
func (m *Manager) RemoveCondition(index int) (bool, error) {
	if !m.validIndex(index) {
		return false, nil
	}

	removed := m.state.Conditions[index]
	conditions := make([]types.Condition, 0, len(m.state.Conditions)-1)
	conditions = append(conditions, m.state.Conditions[:index]...)
	conditions = append(conditions, m.state.Conditions[index+1:]...)
	m.state.Conditions = conditions

	if removed.GroupID != nil {
		id := *removed.GroupID
		if m.memberCount(id) < minGroupSize {
			m.dissolve(id)
		}
	}

	m.state.SelectedConditions = shiftSelection(m.state.SelectedConditions, index)
	m.cleanupGroups()
	return true, m.commit()
}

// shiftSelection drops removed from sel and moves later indices down by one.
func shiftSelection(sel []int, removed int) []int {
	out := make([]int, 0, len(sel))
	for _, i := range sel {
		switch {
		case i < removed:
			out = append(out, i)
		case i > removed:
			out = append(out, i-1)
		}
	}
	return out
}

// ToggleConditionSelection adds or removes index from the selection, keeping
// it sorted. Selection is UI state: subscribers are notified but the draft is
// not rewritten. Returns false for an out-of-range index.
func (m *Manager) ToggleConditionSelection(index int) bool {
	if !m.validIndex(index) {
		return false
	}

	sel := m.state.SelectedConditions
	pos := sort.SearchInts(sel, index)
	if pos < len(sel) && sel[pos] == index {
		sel = append(sel[:pos:pos], sel[pos+1:]...)
	} else {
		sel = append(sel[:pos:pos], append([]int{index}, sel[pos:]...)...)
	}
	m.state.SelectedConditions = sel

	m.notify()
	return true
}

// ClearSelection empties the selection and notifies.
func (m *Manager) ClearSelection() {
	m.state.SelectedConditions = []int{}
	m.notify()
}

// IsSelected reports whether index is selected.
func (m *Manager) IsSelected(index int) bool {
	sel := m.state.SelectedConditions
	pos := sort.SearchInts(sel, index)
	return pos < len(sel) && sel[pos] == index
}

// GroupSelectedConditions clusters the selected conditions into a new group
// with operator op (anything but OR is treated as AND). Requires at least two
// selected conditions; otherwise returns false and changes nothing.
//
// Selected conditions that already belong to another group move to the new
// group. A group left with fewer than two members by the move is dissolved by
// the repair pass.
func (m *Manager) GroupSelectedConditions(op types.Logic) (bool, error) {
	selected := m.selection()
	if len(selected) < minGroupSize {
		return false, nil
	}

	id := m.allocateGroupID()
	m.state.Groups = append(m.state.Groups, types.Group{
		ID:        id,
		Name:      defaultGroupName(id),
		Logic:     op.OrDefault(),
		NextLogic: types.LogicAnd,
	})

	for _, i := range selected {
		m.state.Conditions[i].GroupID = types.GroupRef(id)
	}

	m.state.SelectedConditions = []int{}
	m.cleanupGroups()
	return true, m.commit()
}

// UngroupSelected removes every selected condition from its group and clears
// the selection. Groups left with fewer than two members are dissolved.
func (m *Manager) UngroupSelected() error {
	for _, i := range m.selection() {
		m.state.Conditions[i].GroupID = nil
	}
	m.state.SelectedConditions = []int{}
	m.cleanupGroups()
	return m.commit()
}

// UngroupConditions dissolves group id regardless of its size.
func (m *Manager) UngroupConditions(id int) error {
	m.dissolve(id)
	return m.commit()
}

// HasGroupedConditionsSelected reports whether any selected condition is grouped.
func (m *Manager) HasGroupedConditionsSelected() bool {
	for _, i := range m.selection() {
		if m.state.Conditions[i].Grouped() {
			return true
		}
	}
	return false
}

// Group returns the metadata of group id, or a group with AND logic on both
// sides when no such group exists.
func (m *Manager) Group(id int) types.Group {
	if g, ok := m.findGroup(id); ok {
		return g
	}
	return types.Group{Logic: types.LogicAnd, NextLogic: types.LogicAnd}
}

// CleanupGroups runs the invariant repair pass and autosaves when it changed
// anything. Returns whether the session changed.
func (m *Manager) CleanupGroups() (bool, error) {
	if !m.cleanupGroups() {
		return false, nil
	}
	return true, m.commit()
}

// cleanupGroups dissolves every group with fewer than two members and clears
// references to groups that have no metadata. O(conditions + groups).
func (m *Manager) cleanupGroups() bool {
	counts := make(map[int]int, len(m.state.Groups))
	for _, c := range m.state.Conditions {
		if c.GroupID != nil {
			counts[*c.GroupID]++
		}
	}

	changed := false
	kept := make([]types.Group, 0, len(m.state.Groups))
	valid := make(map[int]bool, len(m.state.Groups))
	for _, g := range m.state.Groups {
		if counts[g.ID] < minGroupSize || valid[g.ID] {
			changed = true
			continue
		}
		valid[g.ID] = true
		kept = append(kept, g)
	}
	m.state.Groups = kept

	for i, c := range m.state.Conditions {
		if c.GroupID != nil && !valid[*c.GroupID] {
			m.state.Conditions[i].GroupID = nil
			changed = true
		}
	}
	return changed
}

// RebuildGroupsFromConditionsIfNeeded synthesizes metadata for group ids that
// conditions reference but the group list lacks, raises NextGroupID past every
// referenced id and finally runs the repair pass. Run after loading a snapshot.
func (m *Manager) RebuildGroupsFromConditionsIfNeeded() error {
	if !m.rebuildGroups() {
		return nil
	}
	return m.commit()
}

// rebuildGroups reports whether the session changed.
func (m *Manager) rebuildGroups() bool {
	known := make(map[int]bool, len(m.state.Groups))
	for _, g := range m.state.Groups {
		known[g.ID] = true
	}

	changed := false
	for _, c := range m.state.Conditions {
		if c.GroupID == nil || known[*c.GroupID] {
			continue
		}
		id := *c.GroupID
		known[id] = true
		m.state.Groups = append(m.state.Groups, types.Group{
			ID:        id,
			Name:      defaultGroupName(id),
			Logic:     types.LogicAnd,
			NextLogic: types.LogicAnd,
		})
		changed = true
	}

	if next := m.minNextGroupID(); m.state.NextGroupID < next {
		m.state.NextGroupID = next
		changed = true
	}

	if m.cleanupGroups() {
		changed = true
	}
	return changed
}

// allocateGroupID hands out the next id and advances the counter. The counter
// is first raised past every known id so a hand-set state cannot cause reuse.
func (m *Manager) allocateGroupID() int {
	if next := m.minNextGroupID(); m.state.NextGroupID < next {
		m.state.NextGroupID = next
	}
	id := m.state.NextGroupID
	m.state.NextGroupID++
	return id
}

// minNextGroupID is one past the largest group id in metadata or references.
func (m *Manager) minNextGroupID() int {
	highest := 0
	for _, g := range m.state.Groups {
		highest = max(highest, g.ID)
	}
	for _, c := range m.state.Conditions {
		if c.GroupID != nil {
			highest = max(highest, *c.GroupID)
		}
	}
	return highest + 1
}

// dissolve clears every reference to id and drops its metadata.
func (m *Manager) dissolve(id int) {
	for i, c := range m.state.Conditions {
		if c.InGroup(id) {
			m.state.Conditions[i].GroupID = nil
		}
	}
	kept := make([]types.Group, 0, len(m.state.Groups))
	for _, g := range m.state.Groups {
		if g.ID != id {
			kept = append(kept, g)
		}
	}
	m.state.Groups = kept
}

func (m *Manager) memberCount(id int) int {
	n := 0
	for _, c := range m.state.Conditions {
		if c.InGroup(id) {
			n++
		}
	}
	return n
}

func (m *Manager) findGroup(id int) (types.Group, bool) {
	for _, g := range m.state.Groups {
		if g.ID == id {
			return g, true
		}
	}
	return types.Group{}, false
}

// selection returns the selected indices that address existing conditions.
// Guards against a selection installed through SetState.
func (m *Manager) selection() []int {
	out := make([]int, 0, len(m.state.SelectedConditions))
	seen := make(map[int]bool, len(m.state.SelectedConditions))
	for _, i := range m.state.SelectedConditions {
		if m.validIndex(i) && !seen[i] {
			seen[i] = true
			out = append(out, i)
		}
	}
	sort.Ints(out)
	return out
}

func (m *Manager) validIndex(i int) bool {
	return i >= 0 && i < len(m.state.Conditions)
}

func defaultGroupName(id int) string {
	return fmt.Sprintf("Group %d", id)
}
