package nav

import (
	"path"
	"strings"
)

// Role is the viewer's coarse access level.
type Role string

const (
	RoleGuest Role = "guest"
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

const (
	HomePath      = "/"
	DashboardPath = "/dashboard"
)

// PermissionResolver decides whether a role may open a path.
type PermissionResolver interface {
	CanAccess(role Role, path string) bool
}

// PermissionFunc adapts a plain function to PermissionResolver.
type PermissionFunc func(role Role, path string) bool

func (f PermissionFunc) CanAccess(role Role, path string) bool { return f(role, path) }

var (
	publicPrefixes = []string{"/login", "/register", "/about", "/events"}
	memberPrefixes = []string{"/dashboard", "/class-groups", "/profile", "/posts"}
	adminPrefixes  = []string{"/admin"}
)

// DefaultPermissions is the application's route table.
var DefaultPermissions PermissionResolver = PermissionFunc(CanAccess)

// CanAccess reports whether role may open path. Unknown paths require an authenticated role.
func CanAccess(role Role, path string) bool {
	path = pagePath(path)
	switch {
	case path == HomePath || matchesAny(path, publicPrefixes):
		return true
	case matchesAny(path, adminPrefixes):
		return role == RoleAdmin
	case matchesAny(path, memberPrefixes):
		return role == RoleUser || role == RoleAdmin
	default:
		return role != RoleGuest && role != ""
	}
}

// Paths holds the landing pages of the application.
type Paths struct {
	Home      string
	Dashboard string
}

var DefaultPaths = Paths{Home: HomePath, Dashboard: DashboardPath}

// Default is where a role lands when its requested destination is denied.
func (p Paths) Default(role Role) string {
	switch role {
	case RoleAdmin, RoleUser:
		return p.Dashboard
	default:
		return p.Home
	}
}

// DefaultPath is DefaultPaths.Default.
func DefaultPath(role Role) string { return DefaultPaths.Default(role) }

func matchesAny(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

// CleanPath resolves dot segments and duplicate or trailing slashes in the path part of p, keeping
// its query and fragment.
func CleanPath(p string) string {
	var suffix string
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p, suffix = p[:i], p[i:]
	}
	return pagePath(p) + suffix
}

func pagePath(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if p == "" {
		return HomePath
	}
	return path.Clean("/" + p)
}
