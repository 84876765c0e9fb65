package app

import "sync"

// HomePath is where an anonymous-only view sends a logged-in user
const HomePath = "/"

// RouteState is the shell's view router. The CLI has a single logical view
// at a time; navigations are forwarded to onNavigate so the shell can react.
type RouteState struct {
	mu         sync.Mutex
	current    string
	onNavigate func(path string)
}

func NewRouteState(initial string, onNavigate func(path string)) *RouteState {
	if initial == "" {
		initial = HomePath
	}
	return &RouteState{current: initial, onNavigate: onNavigate}
}

func (r *RouteState) CurrentPath() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

func (r *RouteState) Navigate(path string) {
	r.mu.Lock()
	changed := r.current != path
	r.current = path
	hook := r.onNavigate
	r.mu.Unlock()

	if changed && hook != nil {
		hook(path)
	}
}
