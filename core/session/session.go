package session

import "github.com/Burgess-GLAY/psdahs-alumni-sub001/core/nav"

// Status reflects the outcome of the last lifecycle operation.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSucceeded
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	default:
		return "idle"
	}
}

// AuthSession is the process-wide authentication state. Values handed out by the Controller are
// snapshots; mutate it only through Controller transitions.
type AuthSession struct {
	Token           string
	User            *User
	Role            nav.Role
	Status          Status
	IsInitialized   bool
	Error           string
	PendingRedirect string
}

func defaultSession() AuthSession {
	return AuthSession{Role: nav.RoleGuest}
}

func (s AuthSession) IsAuthenticated() bool {
	return s.User != nil && s.Token != ""
}

func (s AuthSession) IsAdmin() bool {
	return s.Role == nav.RoleAdmin
}

// clone detaches the snapshot from the controller's user pointer.
func (s AuthSession) clone() AuthSession {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

// signedOut resets the identity fields and keeps the lifecycle ones.
func (s AuthSession) signedOut() AuthSession {
	s.Token = ""
	s.User = nil
	s.Role = nav.RoleGuest
	return s
}

func (s *AuthSession) setUser(u User) {
	s.User = &u
	s.Role = RoleOf(s.User)
}
