package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Burgess-GLAY/psdahs-alumni-sub001/core/nav"
)

func TestRedirectWatcher(t *testing.T) {
	tests := []struct {
		name     string
		user     User
		redirect string
		want     []string
	}{
		{name: "permitted destination", user: testUser, redirect: "/class-groups/g1", want: []string{"/class-groups/g1"}},
		{name: "admin destination for a user", user: testUser, redirect: "/admin/x", want: []string{nav.DashboardPath}},
		{name: "admin destination for an admin", user: testAdmin, redirect: "/admin/x", want: []string{"/admin/x"}},
		{name: "dot segments into admin for a user", user: testUser, redirect: "/events/../admin/x", want: []string{nav.DashboardPath}},
		{name: "dot segments into admin for an admin", user: testAdmin, redirect: "/login/../admin/x", want: []string{"/admin/x"}},
		{name: "double slash into admin for a user", user: testUser, redirect: "//admin", want: []string{nav.DashboardPath}},
		{name: "no destination", user: testUser, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, "")
			usr := tt.user
			f.api.loginFunc = func(context.Context, Credentials) (AuthResult, error) {
				return AuthResult{Token: "tok", User: usr}, nil
			}
			w := WatchRedirects(f.ctrl, f.router, nil, nav.Paths{})
			defer w.Stop()

			var opts []Option
			if tt.redirect != "" {
				opts = append(opts, WithRedirect(tt.redirect))
			}
			_, err := f.ctrl.Login(context.Background(), Credentials{Email: usr.Email, Password: "secret"}, opts...)
			require.NoError(t, err)

			if tt.want == nil {
				assert.Empty(t, f.router.Navigations())
			} else {
				assert.Equal(t, tt.want, f.router.Navigations())
			}
			assert.Empty(t, f.ctrl.Snapshot().PendingRedirect)
		})
	}
}

func TestRedirectWatcher_waitsForRole(t *testing.T) {
	f := newFixture(t, "")
	w := WatchRedirects(f.ctrl, f.router, nil, nav.Paths{})
	defer w.Stop()

	// requested while still a guest
	f.ctrl.RequestRedirect("/dashboard")
	assert.Empty(t, f.router.Navigations())
	assert.Equal(t, "/dashboard", f.ctrl.Snapshot().PendingRedirect)

	var rolesAtNav []nav.Role
	unsub := f.ctrl.Subscribe(func(s AuthSession) {
		if s.PendingRedirect == "" && len(rolesAtNav) == 0 && len(f.router.Navigations()) == 1 {
			rolesAtNav = append(rolesAtNav, s.Role)
		}
	})
	defer unsub()

	_, err := f.ctrl.Login(context.Background(), Credentials{Email: testUser.Email, Password: "secret"})
	require.NoError(t, err)

	assert.Equal(t, []string{"/dashboard"}, f.router.Navigations())
	assert.Equal(t, []nav.Role{nav.RoleUser}, rolesAtNav)
	assert.Empty(t, f.ctrl.Snapshot().PendingRedirect)

	// a later unrelated auth change must not replay the destination
	_, err = f.ctrl.GetCurrentUser(context.Background())
	require.NoError(t, err)
	f.ctrl.Logout(context.Background())
	_, err = f.ctrl.Login(context.Background(), Credentials{Email: testUser.Email, Password: "secret"})
	require.NoError(t, err)
	assert.Len(t, f.router.Navigations(), 1)
}

func TestRedirectWatcher_customResolver(t *testing.T) {
	f := newFixture(t, "")
	denyAll := nav.PermissionFunc(func(nav.Role, string) bool { return false })
	w := WatchRedirects(f.ctrl, f.router, denyAll, nav.Paths{Home: "/", Dashboard: "/home"})
	defer w.Stop()

	_, err := f.ctrl.Login(context.Background(), Credentials{Email: testUser.Email, Password: "secret"}, WithRedirect("/profile"))
	require.NoError(t, err)
	assert.Equal(t, []string{"/home"}, f.router.Navigations())
}
