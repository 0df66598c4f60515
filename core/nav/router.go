package nav

import "sync"

// Router is the imperative navigation surface of the application shell.
type Router interface {
	Navigate(path string)
	CurrentPath() string
}

// HistoryRouter is an in-memory Router that records every navigation.
type HistoryRouter struct {
	mu      sync.RWMutex
	history []string
	onNav   func(path string)
}

var _ Router = (*HistoryRouter)(nil)

// NewHistoryRouter starts at start (HomePath when empty). onNav, when set, observes every navigation.
func NewHistoryRouter(start string, onNav func(path string)) *HistoryRouter {
	if start == "" {
		start = HomePath
	}
	return &HistoryRouter{history: []string{start}, onNav: onNav}
}

func (r *HistoryRouter) Navigate(path string) {
	r.mu.Lock()
	r.history = append(r.history, path)
	r.mu.Unlock()
	if r.onNav != nil {
		r.onNav(path)
	}
}

func (r *HistoryRouter) CurrentPath() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.history[len(r.history)-1]
}

// History returns every visited path, the starting one included.
func (r *HistoryRouter) History() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.history...)
}

// Navigations returns the paths navigated to after start.
func (r *HistoryRouter) Navigations() []string {
	h := r.History()
	return h[1:]
}
