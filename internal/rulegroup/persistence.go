package rulegroup

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/solatis/skiplogic/internal/store"
	"github.com/solatis/skiplogic/internal/types"
	"go.uber.org/zap"
)

// persist writes the draft document. Every failure is logged and returned.
func (m *Manager) persist() error {
	data, err := json.Marshal(m.state.Snapshot(m.now().UTC()))
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	if err := m.store.Set(m.draftKey, data); err != nil {
		m.logger.Error("failed to save draft", zap.String("key", m.draftKey), zap.Error(err))
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

// SaveToStorage writes the current session as the draft document.
func (m *Manager) SaveToStorage() error {
	return m.persist()
}

// LoadFromStorage replaces the session with the stored draft, synthesizes
// missing group metadata and repairs invariants, then notifies.
//
// A missing draft yields an empty session. A malformed draft also yields an
// empty session; the returned error wraps types.ErrMalformedDocument. A
// storage read failure leaves the session untouched.
func (m *Manager) LoadFromStorage() error {
	data, err := m.store.Get(m.draftKey)
	if errors.Is(err, store.ErrNotFound) {
		m.state = emptyState()
		m.notify()
		return nil
	}
	if err != nil {
		m.logger.Error("failed to read draft", zap.String("key", m.draftKey), zap.Error(err))
		return fmt.Errorf("read draft: %w", err)
	}

	var rs types.RuleSet
	if err := json.Unmarshal(data, &rs); err != nil {
		m.logger.Warn("discarding malformed draft", zap.String("key", m.draftKey), zap.Error(err))
		m.state = emptyState()
		m.notify()
		return fmt.Errorf("%w: %v", types.ErrMalformedDocument, err)
	}

	return m.hydrate(rs)
}

// hydrate installs a snapshot as the session and repairs it. The draft is
// rewritten only when repair changed something.
func (m *Manager) hydrate(rs types.RuleSet) error {
	m.state = rs.State()
	if m.state.NextGroupID < 1 {
		m.state.NextGroupID = 1
	}

	var err error
	if m.rebuildGroups() {
		err = m.persist()
	}
	m.notify()
	return err
}

// SaveToGroupsList upserts the session into the saved list under its
// GroupName and returns the stored snapshot.
func (m *Manager) SaveToGroupsList() (types.RuleSet, error) {
	rs, err := m.saved.Upsert(m.state.Snapshot(m.now().UTC()))
	if err != nil {
		return types.RuleSet{}, err
	}
	m.logger.Info("saved rule set",
		zap.String("name", rs.GroupName),
		zap.Int("conditions", len(rs.Conditions)),
		zap.Int("actions", len(rs.Actions)))
	return rs, nil
}

// SavedGroups returns the saved rule sets; empty on any failure.
func (m *Manager) SavedGroups() ([]types.RuleSet, error) {
	return m.saved.List()
}

// DeleteSavedGroup removes the saved rule set named name. The live session is
// not affected.
func (m *Manager) DeleteSavedGroup(name string) error {
	return m.saved.Delete(name)
}

// DeleteAllSavedGroups clears the saved list.
func (m *Manager) DeleteAllSavedGroups() error {
	return m.saved.DeleteAll()
}

// EditSavedGroup replaces the session with the saved rule set named name,
// including its own NextGroupID, then repairs and autosaves it as the draft.
func (m *Manager) EditSavedGroup(name string) error {
	rs, err := m.saved.Find(name)
	if err != nil {
		return err
	}
	m.state = rs.State()
	if m.state.NextGroupID < 1 {
		m.state.NextGroupID = 1
	}
	m.rebuildGroups()
	return m.commit()
}

// SavedList exposes the saved rule set collection.
func (m *Manager) SavedList() *SavedList {
	return m.saved
}
