package staging

import "sync"

// Registry owns one Buffer per editing session. A session is identified by
// the editing user and the deck, so two users never share staged work.
type Registry struct {
	mu      sync.Mutex
	buffers map[sessionKey]*Buffer
}

type sessionKey struct {
	userID string
	deckID string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{buffers: make(map[sessionKey]*Buffer)}
}

// Get returns the session's buffer, creating it on first use.
func (r *Registry) Get(userID, deckID string) *Buffer {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := sessionKey{userID: userID, deckID: deckID}
	b, ok := r.buffers[key]
	if !ok {
		b = New(deckID)
		r.buffers[key] = b
	}
	return b
}

// Lookup returns the session's buffer without creating one.
func (r *Registry) Lookup(userID, deckID string) (*Buffer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.buffers[sessionKey{userID: userID, deckID: deckID}]
	return b, ok
}

// Close drops the session's buffer and any staged work in it.
func (r *Registry) Close(userID, deckID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.buffers, sessionKey{userID: userID, deckID: deckID})
}

// DropDeck removes every session of a deck, used when the deck is deleted.
func (r *Registry) DropDeck(deckID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key := range r.buffers {
		if key.deckID == deckID {
			delete(r.buffers, key)
		}
	}
}

// Len returns the number of open sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.buffers)
}
