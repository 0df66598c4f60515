package session

import (
	"sync"

	"github.com/Burgess-GLAY/psdahs-alumni-sub001/core/nav"
)

type redirectKey struct {
	authed  bool
	role    nav.Role
	pending string
}

// RedirectWatcher resolves the pending redirect of a Controller once the viewer is authenticated
// with a settled role. It only reacts when (IsAuthenticated, Role, PendingRedirect) changes.
type RedirectWatcher struct {
	ctrl   *Controller
	router nav.Router
	perms  nav.PermissionResolver
	paths  nav.Paths

	mu    sync.Mutex
	last  redirectKey
	unsub func()
}

// WatchRedirects subscribes a RedirectWatcher to ctrl. Nil perms means nav.DefaultPermissions,
// zero paths mean nav.DefaultPaths.
func WatchRedirects(ctrl *Controller, router nav.Router, perms nav.PermissionResolver, paths nav.Paths) *RedirectWatcher {
	if perms == nil {
		perms = nav.DefaultPermissions
	}
	if paths.Home == "" {
		paths.Home = nav.DefaultPaths.Home
	}
	if paths.Dashboard == "" {
		paths.Dashboard = nav.DefaultPaths.Dashboard
	}
	w := &RedirectWatcher{ctrl: ctrl, router: router, perms: perms, paths: paths}
	w.unsub = ctrl.Subscribe(w.observe)
	w.observe(ctrl.Snapshot())
	return w
}

// Stop unsubscribes the watcher.
func (w *RedirectWatcher) Stop() {
	if w.unsub != nil {
		w.unsub()
	}
}

func (w *RedirectWatcher) observe(s AuthSession) {
	key := redirectKey{authed: s.IsAuthenticated(), role: s.Role, pending: s.PendingRedirect}

	w.mu.Lock()
	if key == w.last {
		w.mu.Unlock()
		return
	}
	w.last = key
	w.mu.Unlock()

	if !key.authed || key.role == nav.RoleGuest || key.role == "" || key.pending == "" {
		return
	}

	target := nav.CleanPath(key.pending)
	if !w.perms.CanAccess(key.role, target) {
		target = w.paths.Default(key.role)
	}
	w.router.Navigate(target)
	w.ctrl.clearPendingRedirect()
}
