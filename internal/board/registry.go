package board

import (
	"context"
	"sync"
	"time"
)

// Registry holds one Board per admin session.
type Registry struct {
	mu      sync.Mutex
	boards  map[string]*registryEntry
	factory func() *Board
	now     func() time.Time
}

type registryEntry struct {
	board    *Board
	lastSeen time.Time
}

func NewRegistry(factory func() *Board) *Registry {
	return &Registry{
		boards:  map[string]*registryEntry{},
		factory: factory,
		now:     time.Now,
	}
}

// Get returns the session's board, creating and loading it on first use.
// A failed first load leaves an empty board with its error slot set.
func (r *Registry) Get(ctx context.Context, sessionID string) *Board {
	r.mu.Lock()
	e, ok := r.boards[sessionID]
	if ok {
		e.lastSeen = r.now()
		r.mu.Unlock()
		return e.board
	}
	e = &registryEntry{board: r.factory(), lastSeen: r.now()}
	r.boards[sessionID] = e
	r.mu.Unlock()

	_ = e.board.Refresh(ctx)
	return e.board
}

func (r *Registry) Remove(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.boards, sessionID)
}

// Sweep drops boards not used within idle and returns how many it removed.
func (r *Registry) Sweep(idle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-idle)
	removed := 0
	for id, e := range r.boards {
		if e.lastSeen.Before(cutoff) {
			delete(r.boards, id)
			removed++
		}
	}
	return removed
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.boards)
}
