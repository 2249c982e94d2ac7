package sniper

import "sync"

// Registry enforces per-token mutual exclusion while a snipe is ARMED or
// EXECUTING. Overlapping triggers for the same token acquire here first, so
// at most one buy can ever be in flight per token.
type Registry struct {
	mu     sync.Mutex
	active map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{active: make(map[string]struct{})}
}

// TryAcquire claims the token. Returns false if another controller holds it.
func (r *Registry) TryAcquire(token string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, held := r.active[token]; held {
		return false
	}
	r.active[token] = struct{}{}
	return true
}

// Release frees the token. Safe to call for a token not held.
func (r *Registry) Release(token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.active, token)
}

// Held reports whether the token is currently claimed.
func (r *Registry) Held(token string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, held := r.active[token]
	return held
}
