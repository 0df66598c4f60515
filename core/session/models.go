package session

import (
	"strings"

	"github.com/Burgess-GLAY/psdahs-alumni-sub001/core"
	"github.com/Burgess-GLAY/psdahs-alumni-sub001/core/nav"
)

type User struct {
	ID             string `json:"id"`
	Email          string `json:"email"`
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	IsAdmin        bool   `json:"isAdmin"`
	GraduationYear int    `json:"graduationYear,omitempty"`
	ClassGroupID   string `json:"classGroupId,omitempty"`
	ProfilePicture string `json:"profilePicture,omitempty"`
}

// DisplayName is the first name when known, the email otherwise.
func (u *User) DisplayName() string {
	return core.FirstNonEmpty(strings.TrimSpace(u.FirstName), u.Email)
}

// RoleOf derives the viewer role from the (possibly absent) user.
func RoleOf(u *User) nav.Role {
	switch {
	case u == nil:
		return nav.RoleGuest
	case u.IsAdmin:
		return nav.RoleAdmin
	default:
		return nav.RoleUser
	}
}

// Credentials is the login form.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (c *Credentials) Clean() {
	c.Email = core.CleanString(c.Email, true /* lower */)
}

// NewUser contains information needed to register a new alumnus.
type NewUser struct {
	FirstName       string `json:"firstName" validate:"required,max=50"`
	LastName        string `json:"lastName" validate:"required,max=50"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"confirmPassword" validate:"required,eqfield=Password"`
	GraduationYear  int    `json:"graduationYear" validate:"required,gradyear"`
	Phone           string `json:"phone,omitempty" validate:"omitempty,e164"`
}

func (nu *NewUser) Clean() {
	nu.FirstName = core.CleanString(nu.FirstName)
	nu.LastName = core.CleanString(nu.LastName)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Phone = core.CleanString(nu.Phone)
}

// AssignedClassGroup is the class group the backend put a newly registered alumnus in.
type AssignedClassGroup struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	GraduationYear int    `json:"graduationYear,omitempty"`
}

// AuthResult is what login and registration return.
type AuthResult struct {
	Token              string              `json:"token"`
	User               User                `json:"user"`
	AssignedClassGroup *AssignedClassGroup `json:"assignedClassGroup,omitempty"`
}
