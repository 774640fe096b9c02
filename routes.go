package spacetravelling

import (
	"sync"
	"time"

	"github.com/eringen/spacetravelling/views"
)

// RouteTable is the set of post identifiers the site knows about. It is
// filled from path enumeration at start-up and grows as fallback requests
// discover posts published later.
type RouteTable struct {
	mu        sync.RWMutex
	uids      []string
	index     map[string]struct{}
	generated time.Time
}

// NewRouteTable returns an empty table.
func NewRouteTable() *RouteTable {
	return &RouteTable{index: make(map[string]struct{})}
}

// Replace swaps the whole table for uids, keeping their order.
func (r *RouteTable) Replace(uids []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.uids = make([]string, 0, len(uids))
	r.index = make(map[string]struct{}, len(uids))
	for _, uid := range uids {
		if _, ok := r.index[uid]; ok {
			continue
		}
		r.index[uid] = struct{}{}
		r.uids = append(r.uids, uid)
	}
	r.generated = time.Now()
}

// Add records uid. It reports whether the uid was new.
func (r *RouteTable) Add(uid string) bool {
	r.mu.RLock()
	_, ok := r.index[uid]
	r.mu.RUnlock()
	if ok {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.index[uid]; ok {
		return false
	}
	r.index[uid] = struct{}{}
	r.uids = append(r.uids, uid)
	return true
}

// Has reports whether uid is known.
func (r *RouteTable) Has(uid string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.index[uid]
	return ok
}

// UIDs returns a copy of the known identifiers in insertion order.
func (r *RouteTable) UIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.uids))
	copy(out, r.uids)
	return out
}

// Paths returns the detail page path of every known post.
func (r *RouteTable) Paths() []string {
	uids := r.UIDs()
	paths := make([]string, len(uids))
	for i, uid := range uids {
		paths[i] = views.PostPath(uid)
	}
	return paths
}

// Generated is the time of the last Replace.
func (r *RouteTable) Generated() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.generated
}
