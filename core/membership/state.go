package membership

// MemberFlag is the viewer's membership of one group: either confirmed by the server or
// optimistically assumed while a join or leave is in flight.
type MemberFlag struct {
	optimistic bool
	value      bool
	rollback   bool
}

func Confirmed(value bool) MemberFlag {
	return MemberFlag{value: value}
}

func Optimistic(assumed, rollback bool) MemberFlag {
	return MemberFlag{optimistic: true, value: assumed, rollback: rollback}
}

// Value is the confirmed value, or the assumed one while optimistic.
func (f MemberFlag) Value() bool { return f.value }

func (f MemberFlag) IsOptimistic() bool { return f.optimistic }

// Confirm collapses the flag to the server's value, or to the assumed one when the server did not say.
func (f MemberFlag) Confirm(server *bool) MemberFlag {
	if server != nil {
		return Confirmed(*server)
	}
	return Confirmed(f.value)
}

// Rollback collapses an optimistic flag to the value it had before the mutation.
func (f MemberFlag) Rollback() MemberFlag {
	if !f.optimistic {
		return f
	}
	return Confirmed(f.rollback)
}

type Pending int

const (
	PendingNone Pending = iota
	PendingJoining
	PendingLeaving
)

func (p Pending) String() string {
	switch p {
	case PendingJoining:
		return "joining"
	case PendingLeaving:
		return "leaving"
	default:
		return "none"
	}
}

// State is the membership state of one class group for the current viewer.
type State struct {
	GroupID     string
	GroupName   string
	MemberCount int
	Member      MemberFlag
	Pending     Pending
}

func (s State) IsMember() bool { return s.Member.Value() }

func stateOf(g ClassGroup) State {
	return State{
		GroupID:     g.ID,
		GroupName:   g.Name,
		MemberCount: floor0(g.MemberCount),
		Member:      Confirmed(g.IsMember),
	}
}

func floor0(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
