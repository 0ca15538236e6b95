package rulegroup

import (
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/solatis/skiplogic/internal/catalog"
	"github.com/solatis/skiplogic/internal/store"
	"github.com/solatis/skiplogic/internal/types"
)

var testQuestions = []types.Question{
	{ID: "q1", Label: "Age"},
	{ID: "q2", Label: "Country"},
	{ID: "q3", Label: "Favourite colour"},
}

var fixedNow = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

func newTestManager(t *testing.T) (*Manager, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	return newManagerOn(t, mem), mem
}

func newManagerOn(t *testing.T, s store.Store) *Manager {
	t.Helper()
	m, err := New(Options{
		Catalog: catalog.New(testQuestions),
		Store:   s,
		Now:     func() time.Time { return fixedNow },
	}).Init()
	if err != nil {
		t.Fatalf("Init() error = %v, want nil", err)
	}
	return m
}

func addConditions(t *testing.T, m *Manager, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if err := m.AddCondition(); err != nil {
			t.Fatalf("AddCondition() error = %v, want nil", err)
		}
	}
}

// groupIndices selects indices and groups them with op.
func groupIndices(t *testing.T, m *Manager, op types.Logic, indices ...int) int {
	t.Helper()
	m.ClearSelection()
	for _, i := range indices {
		if !m.ToggleConditionSelection(i) {
			t.Fatalf("ToggleConditionSelection(%d) = false, want true", i)
		}
	}
	next := m.State().NextGroupID
	ok, err := m.GroupSelectedConditions(op)
	if err != nil {
		t.Fatalf("GroupSelectedConditions() error = %v, want nil", err)
	}
	if !ok {
		t.Fatalf("GroupSelectedConditions() = false, want true")
	}
	return next
}

// invariantViolation describes the first broken session invariant, or "".
func invariantViolation(s types.State) string {
	counts := make(map[int]int)
	for _, c := range s.Conditions {
		if c.GroupID != nil {
			counts[*c.GroupID]++
		}
	}

	groups := make(map[int]bool)
	for _, g := range s.Groups {
		if groups[g.ID] {
			return fmt.Sprintf("group %d listed twice", g.ID)
		}
		groups[g.ID] = true
		if counts[g.ID] < 2 {
			return fmt.Sprintf("group %d has %d members", g.ID, counts[g.ID])
		}
		if g.ID >= s.NextGroupID {
			return fmt.Sprintf("group %d not below NextGroupID %d", g.ID, s.NextGroupID)
		}
	}
	for id := range counts {
		if !groups[id] {
			return fmt.Sprintf("condition references missing group %d", id)
		}
	}

	if !sort.IntsAreSorted(s.SelectedConditions) {
		return fmt.Sprintf("selection %v not sorted", s.SelectedConditions)
	}
	for i, idx := range s.SelectedConditions {
		if idx < 0 || idx >= len(s.Conditions) {
			return fmt.Sprintf("selection index %d out of range", idx)
		}
		if i > 0 && s.SelectedConditions[i-1] == idx {
			return fmt.Sprintf("selection index %d duplicated", idx)
		}
	}
	return ""
}

func assertInvariants(t *testing.T, m *Manager) {
	t.Helper()
	if v := invariantViolation(m.State()); v != "" {
		t.Fatalf("invariant violated: %s", v)
	}
}
