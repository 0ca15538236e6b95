package rulegroup

import "github.com/solatis/skiplogic/internal/types"

// ItemKind distinguishes standalone conditions from group clusters.
type ItemKind string

const (
	ItemSingle ItemKind = "single"
	ItemGroup  ItemKind = "group"
)

// IndexedCondition pairs a condition with its index in the session.
type IndexedCondition struct {
	Index     int             `json:"index"`
	Condition types.Condition `json:"condition"`
}

// OrganizedItem is one entry of the display/evaluation sequence.
// Singles set Condition; groups set GroupID and Members. Index is the
// condition's index for singles and the first member's index for groups.
type OrganizedItem struct {
	Kind      ItemKind           `json:"type"`
	Index     int                `json:"index"`
	Condition *types.Condition   `json:"condition,omitempty"`
	GroupID   int                `json:"groupId,omitempty"`
	Members   []IndexedCondition `json:"conditions,omitempty"`
}

// OrganizedConditions returns the session's conditions in display order.
func (m *Manager) OrganizedConditions() []OrganizedItem {
	return Organize(m.state.Conditions)
}

// Organize builds the display order in one forward pass. A group is emitted
// at the position of its first member and gathers every member from the whole
// list, contiguous or not; later members do not emit it again.
func Organize(conditions []types.Condition) []OrganizedItem {
	items := make([]OrganizedItem, 0, len(conditions))
	emitted := make(map[int]bool)

	for i, c := range conditions {
		if c.GroupID == nil {
			cond := c.Clone()
			items = append(items, OrganizedItem{Kind: ItemSingle, Index: i, Condition: &cond})
			continue
		}

		id := *c.GroupID
		if emitted[id] {
			continue
		}
		emitted[id] = true

		var members []IndexedCondition
		for j := i; j < len(conditions); j++ {
			if conditions[j].InGroup(id) {
				members = append(members, IndexedCondition{Index: j, Condition: conditions[j].Clone()})
			}
		}
		items = append(items, OrganizedItem{Kind: ItemGroup, Index: i, GroupID: id, Members: members})
	}
	return items
}
