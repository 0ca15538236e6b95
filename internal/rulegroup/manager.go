// Package rulegroup implements the skip-logic rule editor engine.
//
// A Manager owns one editing session: an ordered list of conditions, the AND/OR
// groups clustering them, the actions the rule triggers, the UI selection used
// for grouping gestures and the group id counter. Every mutation goes through
// the Manager, which repairs group invariants, autosaves the session as a draft
// and notifies subscribers synchronously.
//
// Invariants after every public mutation:
//   - every group has at least two member conditions
//   - every condition's GroupID refers to an existing group
//   - NextGroupID is greater than any group id assigned in the session
//   - SelectedConditions holds valid condition indices, ascending, unique
//
// A Manager is not safe for concurrent use. It models a single editor on a
// single session; the storage behind it may be shared.
package rulegroup

import (
	"errors"
	"time"

	"github.com/solatis/skiplogic/internal/catalog"
	"github.com/solatis/skiplogic/internal/store"
	"github.com/solatis/skiplogic/internal/types"
	"go.uber.org/zap"
)

// Default storage keys. They match the keys earlier editor builds wrote to
// browser storage so exported data can be imported unchanged.
const (
	DefaultDraftKey = "skipLogicDraft"
	DefaultSavedKey = "skipLogicSavedGroups"
)

// Options configure a Manager.
type Options struct {
	// Catalog resolves question labels and supplies the default question.
	Catalog *catalog.Catalog
	// Store persists the draft and the saved list. Defaults to an in-memory store.
	Store store.Store
	// DraftKey and SavedKey override the default storage keys.
	DraftKey string
	SavedKey string
	// OnStateChange is registered as the first subscriber.
	OnStateChange func(types.State)
	Logger        *zap.Logger
	// Now stamps savedAt. Defaults to time.Now.
	Now func() time.Time
}

// Manager is the rule-group state manager.
type Manager struct {
	state     types.State
	catalog   *catalog.Catalog
	store     store.Store
	draftKey  string
	saved     *SavedList
	format    Formatter
	logger    *zap.Logger
	now       func() time.Time
	listeners []listener
	nextSub   int
}

type listener struct {
	id int
	fn func(types.State)
}

// New creates a Manager with an empty session. Call Init to load the draft.
func New(opts Options) *Manager {
	if opts.Store == nil {
		opts.Store = store.NewMemory()
	}
	if opts.DraftKey == "" {
		opts.DraftKey = DefaultDraftKey
	}
	if opts.SavedKey == "" {
		opts.SavedKey = DefaultSavedKey
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Catalog == nil {
		opts.Catalog = catalog.New(nil)
	}

	m := &Manager{
		state:    emptyState(),
		catalog:  opts.Catalog,
		store:    opts.Store,
		draftKey: opts.DraftKey,
		saved:    NewSavedList(opts.Store, opts.SavedKey, opts.Logger),
		format:   NewFormatter(opts.Catalog),
		logger:   opts.Logger,
		now:      opts.Now,
	}
	m.saved.now = opts.Now

	if opts.OnStateChange != nil {
		m.Subscribe(opts.OnStateChange)
	}
	return m
}

// Init loads any existing draft, repairing invariants, and returns the Manager.
// A malformed draft is logged and replaced by an empty session; only storage
// read failures are returned.
func (m *Manager) Init() (*Manager, error) {
	err := m.LoadFromStorage()
	if errors.Is(err, types.ErrMalformedDocument) {
		return m, nil
	}
	return m, err
}

// Subscribe registers fn to receive a snapshot after every content change.
// Listeners run synchronously in subscription order.
func (m *Manager) Subscribe(fn func(types.State)) (unsubscribe func()) {
	m.nextSub++
	id := m.nextSub
	m.listeners = append(m.listeners, listener{id: id, fn: fn})

	return func() {
		for i, l := range m.listeners {
			if l.id == id {
				m.listeners = append(m.listeners[:i:i], m.listeners[i+1:]...)
				return
			}
		}
	}
}

func (m *Manager) notify() {
	for _, l := range m.listeners {
		l.fn(m.state.Clone())
	}
}

// commit autosaves the draft and notifies. Subscribers are notified even when
// the autosave fails; the in-memory session stays authoritative.
func (m *Manager) commit() error {
	err := m.persist()
	m.notify()
	return err
}

// QuestionLabel resolves a question id, falling back to the id itself.
func (m *Manager) QuestionLabel(id string) string {
	return m.catalog.Label(id)
}

// Catalog returns the question catalog.
func (m *Manager) Catalog() *catalog.Catalog {
	return m.catalog
}
