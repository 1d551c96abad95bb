// Package viewstate keeps the per-conversation view the user is looking at,
// so paginated and nested views can be entered and left coherently.
package viewstate

import (
	"maps"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"ghexplorer/internal/github"
	"ghexplorer/internal/message"
)

// View names the screen a conversation is on
type View string

const (
	ViewHome       View = "home"
	ViewProfile    View = "profile"
	ViewRepos      View = "repos"
	ViewStarred    View = "starred"
	ViewFollowers  View = "followers"
	ViewFollowing  View = "following"
	ViewStats      View = "stats"
	ViewRepository View = "repository"
	ViewSection    View = "section"
	ViewReadme     View = "readme"
	ViewAvatar     View = "avatar"
	ViewTrending   View = "trending"
)

// AvatarReturn is what Back from the avatar photo restores
type AvatarReturn struct {
	ChatID   int64
	Body     string
	Keyboard message.Keyboard
}

// Screen is the last body and keyboard rendered for a conversation
type Screen struct {
	MessageID int
	Kind      message.Kind
	Body      string
	Keyboard  message.Keyboard
}

// State is a conversation's view state. Page is 0-based.
type State struct {
	View    View
	Entity  string
	Section string
	Page    int
	Blobs   map[string]string
	User    *github.User
	Repo    *github.Repository
	Avatar  *AvatarReturn
	Screen  *Screen
}

func (s *State) clone() State {
	out := *s
	out.Blobs = maps.Clone(s.Blobs)
	return out
}

// BlobKey is the cache key of a rendered list or text for one view/entity pair
func BlobKey(view View, entity string) string {
	return string(view) + ":" + entity
}

// Store holds view state per conversation id
type Store interface {
	// Get returns a copy of the conversation's state, creating it if needed
	Get(conversationID int64) State
	SetView(conversationID int64, view View, entity string)
	SetPage(conversationID int64, page int)
	CacheBlob(conversationID int64, key, blob string)
	CachedBlob(conversationID int64, key string) (string, bool)
	InvalidateBlob(conversationID int64, key string)
	// Update applies fn to the stored state under the store lock
	Update(conversationID int64, fn func(*State))
	// Reset starts a fresh state, used by a new profile or repository search
	Reset(conversationID int64)
	Close() error
}

// Defaults for NewMemoryStore
const (
	DefaultMaxConversations = 10000
	DefaultTTL              = 6 * time.Hour
)

// MemoryStore is an in-memory Store bounded by an expiring LRU
type MemoryStore struct {
	mu    sync.Mutex
	cache *expirable.LRU[int64, *State]
}

// NewMemoryStore keeps at most maxConversations states, each for ttl after
// its last write
func NewMemoryStore(maxConversations int, ttl time.Duration) *MemoryStore {
	if maxConversations <= 0 {
		maxConversations = DefaultMaxConversations
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		cache: expirable.NewLRU[int64, *State](maxConversations, nil, ttl),
	}
}

func (m *MemoryStore) load(id int64) *State {
	st, ok := m.cache.Get(id)
	if !ok {
		st = &State{View: ViewHome, Blobs: make(map[string]string)}
	}
	// re-adding refreshes the TTL
	m.cache.Add(id, st)
	return st
}

func (m *MemoryStore) Get(id int64) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.load(id).clone()
}

func (m *MemoryStore) SetView(id int64, view View, entity string) {
	m.Update(id, func(s *State) {
		if s.View != view || s.Entity != entity {
			s.Page = 0
		}
		s.View = view
		s.Entity = entity
	})
}

func (m *MemoryStore) SetPage(id int64, page int) {
	if page < 0 {
		page = 0
	}
	m.Update(id, func(s *State) { s.Page = page })
}

func (m *MemoryStore) CacheBlob(id int64, key, blob string) {
	m.Update(id, func(s *State) { s.Blobs[key] = blob })
}

func (m *MemoryStore) CachedBlob(id int64, key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	blob, ok := m.load(id).Blobs[key]
	return blob, ok
}

func (m *MemoryStore) InvalidateBlob(id int64, key string) {
	m.Update(id, func(s *State) { delete(s.Blobs, key) })
}

func (m *MemoryStore) Update(id int64, fn func(*State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(m.load(id))
}

func (m *MemoryStore) Reset(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev, ok := m.cache.Peek(id)
	next := &State{View: ViewHome, Blobs: make(map[string]string)}
	if ok {
		// the rendered screen still describes the live message
		next.Screen = prev.Screen
	}
	m.cache.Add(id, next)
}

// Len returns the number of conversations held
func (m *MemoryStore) Len() int {
	return m.cache.Len()
}

// Close drops every conversation
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache.Purge()
	return nil
}
