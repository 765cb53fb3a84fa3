// Package session keeps per-user conversation state for the recording
// dialogue. Sessions are ephemeral: created lazily on first touch, cleared on
// terminal transitions, expired by TTL and bounded in count so an abandoned
// dialogue never leaks memory. Nothing here is persisted across restarts.
package session

import (
	"container/list"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"kopilka/internal/core"
)

// Step marks where a user's dialogue currently waits.
type Step int

const (
	StepIdle Step = iota
	StepCategory
	StepSubcategory
	StepComment
	StepAmount
	StepConfirm
)

var stepNames = map[Step]string{
	StepIdle:        "idle",
	StepCategory:    "awaiting-category",
	StepSubcategory: "awaiting-subcategory",
	StepComment:     "awaiting-comment",
	StepAmount:      "awaiting-amount",
	StepConfirm:     "awaiting-confirmation",
}

func (s Step) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return "unknown"
}

// Draft accumulates the not-yet-persisted transaction fields.
type Draft struct {
	Kind            core.Kind
	CategoryID      int64
	CategoryName    string
	SubcategoryID   int64
	SubcategoryName string
	Comment         string
	HasComment      bool
	Amount          decimal.Decimal
}

// CategoryPath renders "category" or "category → subcategory" for summaries.
func (d Draft) CategoryPath() string {
	if d.SubcategoryName == "" {
		return d.CategoryName
	}
	return d.CategoryName + " → " + d.SubcategoryName
}

// Session is one user's dialogue state. LastPromptID tracks the single live
// bot prompt so the transport can edit or retire it; it survives Clear
// because the menu shown after a terminal transition reuses the same message.
type Session struct {
	UserID       int64
	ChatID       int64
	Step         Step
	Draft        Draft
	LastPromptID int
}

// Clear resets the dialogue to idle and discards the draft.
func (s *Session) Clear() {
	s.Step = StepIdle
	s.Draft = Draft{}
}

type entry struct {
	userID    int64
	sess      *Session
	expiresAt time.Time
}

// Store is a TTL- and size-bounded session map. Eviction drops the least
// recently touched session first. Safe for concurrent users; events of a
// single user are serialized by the transport, so callers may mutate the
// returned *Session without further locking.
type Store struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	items   map[int64]*list.Element
	lru     *list.List
}

func NewStore(maxSize int, ttl time.Duration) *Store {
	return &Store{
		maxSize: maxSize,
		ttl:     ttl,
		items:   make(map[int64]*list.Element),
		lru:     list.New(),
	}
}

// Get returns the user's session, creating an idle one on first touch.
// Every access refreshes the TTL.
func (st *Store) Get(userID int64) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	now := time.Now()
	if elem, ok := st.items[userID]; ok {
		e := elem.Value.(*entry)
		if now.Before(e.expiresAt) {
			e.expiresAt = now.Add(st.ttl)
			st.lru.MoveToFront(elem)
			return e.sess
		}
		st.removeElement(elem)
	}

	e := &entry{
		userID:    userID,
		sess:      &Session{UserID: userID},
		expiresAt: now.Add(st.ttl),
	}
	elem := st.lru.PushFront(e)
	st.items[userID] = elem

	if st.lru.Len() > st.maxSize {
		if oldest := st.lru.Back(); oldest != nil {
			st.removeElement(oldest)
		}
	}
	return e.sess
}

// Peek returns the session without creating or refreshing it.
func (st *Store) Peek(userID int64) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	elem, ok := st.items[userID]
	if !ok {
		return nil, false
	}
	e := elem.Value.(*entry)
	if time.Now().After(e.expiresAt) {
		st.removeElement(elem)
		return nil, false
	}
	return e.sess, true
}

// Delete removes the user's session entirely.
func (st *Store) Delete(userID int64) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if elem, ok := st.items[userID]; ok {
		st.removeElement(elem)
	}
}

func (st *Store) removeElement(elem *list.Element) {
	e := elem.Value.(*entry)
	delete(st.items, e.userID)
	st.lru.Remove(elem)
}

// CleanExpired removes expired sessions and reports how many were dropped.
func (st *Store) CleanExpired() int {
	st.mu.Lock()
	defer st.mu.Unlock()

	now := time.Now()
	var stale []*list.Element
	for elem := st.lru.Front(); elem != nil; elem = elem.Next() {
		if now.After(elem.Value.(*entry).expiresAt) {
			stale = append(stale, elem)
		}
	}
	for _, elem := range stale {
		st.removeElement(elem)
	}
	return len(stale)
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.items)
}
