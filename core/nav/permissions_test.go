package nav

import "testing"

func TestCanAccess(t *testing.T) {
	tests := []struct {
		role Role
		path string
		want bool
	}{
		{RoleGuest, "/", true},
		{RoleGuest, "", true},
		{RoleGuest, "/login", true},
		{RoleGuest, "/events", true},
		{RoleGuest, "/events/42?tab=rsvp", true},
		{RoleGuest, "/dashboard", false},
		{RoleGuest, "/admin/users", false},
		{RoleGuest, "/somewhere", false},
		{RoleUser, "/dashboard", true},
		{RoleUser, "/class-groups/2010/", true},
		{RoleUser, "/admin", false},
		{RoleUser, "/admin/x", false},
		{RoleUser, "/administrators-club", true},
		{RoleUser, "/somewhere", true},
		{RoleAdmin, "/admin/x", true},
		{RoleAdmin, "/dashboard", true},
		{"", "/somewhere", false},
		{RoleUser, "/events/../admin/x", false},
		{RoleUser, "/login/../admin", false},
		{RoleUser, "//admin", false},
		{RoleUser, "/class-groups/./../admin/", false},
		{RoleGuest, "/events/../dashboard", false},
		{RoleGuest, "/../../login", true},
		{RoleAdmin, "/events/../admin/x", true},
	}
	for _, tt := range tests {
		t.Run(string(tt.role)+" "+tt.path, func(t *testing.T) {
			if got := DefaultPermissions.CanAccess(tt.role, tt.path); got != tt.want {
				t.Errorf("CanAccess(%q, %q) = %v, want %v", tt.role, tt.path, got, tt.want)
			}
		})
	}
}

func TestDefaultPath(t *testing.T) {
	tests := []struct {
		role Role
		want string
	}{
		{RoleAdmin, DashboardPath},
		{RoleUser, DashboardPath},
		{RoleGuest, HomePath},
		{"", HomePath},
	}
	for _, tt := range tests {
		if got := DefaultPath(tt.role); got != tt.want {
			t.Errorf("DefaultPath(%q) = %q, want %q", tt.role, got, tt.want)
		}
	}
}

func TestHistoryRouter(t *testing.T) {
	var seen []string
	r := NewHistoryRouter("", func(p string) { seen = append(seen, p) })
	if r.CurrentPath() != HomePath {
		t.Fatalf("CurrentPath() = %q, want %q", r.CurrentPath(), HomePath)
	}
	r.Navigate("/dashboard")
	r.Navigate("/events")
	if r.CurrentPath() != "/events" {
		t.Errorf("CurrentPath() = %q, want /events", r.CurrentPath())
	}
	if got := r.Navigations(); len(got) != 2 || got[0] != "/dashboard" {
		t.Errorf("Navigations() = %v", got)
	}
	if len(seen) != 2 {
		t.Errorf("onNav called %d times, want 2", len(seen))
	}
}

func TestPaths_Default(t *testing.T) {
	p := Paths{Home: "/welcome", Dashboard: "/home"}
	if got := p.Default(RoleUser); got != "/home" {
		t.Errorf("Default(user) = %q, want /home", got)
	}
	if got := p.Default(RoleGuest); got != "/welcome" {
		t.Errorf("Default(guest) = %q, want /welcome", got)
	}
}

func TestCleanPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"", "/"},
		{"/", "/"},
		{"/class-groups/", "/class-groups"},
		{"//admin", "/admin"},
		{"/events/../admin/x", "/admin/x"},
		{"/events/./42?tab=rsvp#top", "/events/42?tab=rsvp#top"},
		{"profile", "/profile"},
		{"/../..", "/"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := CleanPath(tt.path); got != tt.want {
				t.Errorf("CleanPath(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}
