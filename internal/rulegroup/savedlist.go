package rulegroup

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/solatis/skiplogic/internal/store"
	"github.com/solatis/skiplogic/internal/types"
	"go.uber.org/zap"
)

// SavedList is the persisted collection of named rule sets, stored as one JSON
// array under a single key and keyed logically by GroupName.
//
// SavedList performs plain read-modify-write cycles. Two writers on the same
// key can lose each other's updates; the editor assumes a single writer.
type SavedList struct {
	store  store.Store
	key    string
	logger *zap.Logger
	now    func() time.Time
}

// NewSavedList reads and writes the saved list under key.
func NewSavedList(s store.Store, key string, logger *zap.Logger) *SavedList {
	if key == "" {
		key = DefaultSavedKey
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SavedList{store: s, key: key, logger: logger, now: time.Now}
}

// List returns every saved rule set in stored order. It never returns nil:
// on a read failure or a malformed document the result is empty and the
// error says why.
func (l *SavedList) List() ([]types.RuleSet, error) {
	data, err := l.store.Get(l.key)
	if errors.Is(err, store.ErrNotFound) {
		return []types.RuleSet{}, nil
	}
	if err != nil {
		l.logger.Error("failed to read saved rule sets", zap.String("key", l.key), zap.Error(err))
		return []types.RuleSet{}, fmt.Errorf("read saved rule sets: %w", err)
	}

	var sets []types.RuleSet
	if err := json.Unmarshal(data, &sets); err != nil {
		l.logger.Warn("discarding malformed saved rule sets", zap.String("key", l.key), zap.Error(err))
		return []types.RuleSet{}, fmt.Errorf("%w: %v", types.ErrMalformedDocument, err)
	}
	if sets == nil {
		sets = []types.RuleSet{}
	}
	return sets, nil
}

// Find returns the rule set named name.
func (l *SavedList) Find(name string) (types.RuleSet, error) {
	sets, err := l.List()
	if err != nil {
		return types.RuleSet{}, err
	}
	for _, rs := range sets {
		if rs.GroupName == name {
			return rs, nil
		}
	}
	return types.RuleSet{}, fmt.Errorf("%w: %q", types.ErrRuleSetNotFound, name)
}

// Upsert stamps rs.SavedAt and replaces the entry with the same GroupName in
// place, or appends it. A malformed stored list is replaced.
func (l *SavedList) Upsert(rs types.RuleSet) (types.RuleSet, error) {
	if strings.TrimSpace(rs.GroupName) == "" {
		return types.RuleSet{}, types.ErrEmptyGroupName
	}

	sets, err := l.List()
	if err != nil && !errors.Is(err, types.ErrMalformedDocument) {
		return types.RuleSet{}, err
	}

	rs.Version = types.DocumentVersion
	rs.SavedAt = l.now().UTC()

	replaced := false
	for i := range sets {
		if sets[i].GroupName == rs.GroupName {
			sets[i] = rs
			replaced = true
			break
		}
	}
	if !replaced {
		sets = append(sets, rs)
	}

	if err := l.write(sets); err != nil {
		return types.RuleSet{}, err
	}
	return rs, nil
}

// Delete removes the rule set named name. Deleting an unknown name is not an error.
func (l *SavedList) Delete(name string) error {
	sets, err := l.List()
	if err != nil {
		return err
	}

	kept := make([]types.RuleSet, 0, len(sets))
	for _, rs := range sets {
		if rs.GroupName != name {
			kept = append(kept, rs)
		}
	}
	return l.write(kept)
}

// DeleteAll removes the whole saved list.
func (l *SavedList) DeleteAll() error {
	if err := l.store.Delete(l.key); err != nil {
		l.logger.Error("failed to clear saved rule sets", zap.String("key", l.key), zap.Error(err))
		return fmt.Errorf("clear saved rule sets: %w", err)
	}
	return nil
}

func (l *SavedList) write(sets []types.RuleSet) error {
	data, err := json.Marshal(sets)
	if err != nil {
		return fmt.Errorf("encode saved rule sets: %w", err)
	}
	if err := l.store.Set(l.key, data); err != nil {
		l.logger.Error("failed to write saved rule sets", zap.String("key", l.key), zap.Error(err))
		return fmt.Errorf("write saved rule sets: %w", err)
	}
	return nil
}
