package membership

type ClassGroup struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Description    string `json:"description,omitempty"`
	GraduationYear int    `json:"graduationYear,omitempty"`
	MemberCount    int    `json:"memberCount"`
	IsMember       bool   `json:"isMember"`
}

// Change is the server's answer to a join or leave. Nil fields were not reported.
type Change struct {
	IsMember    *bool `json:"isMember,omitempty"`
	MemberCount *int  `json:"memberCount,omitempty"`
}

type Action string

const (
	ActionJoin  Action = "join"
	ActionLeave Action = "leave"
)

// Result is handed back to the caller of a successful join or leave.
type Result struct {
	Action      Action
	GroupID     string
	MemberCount *int
}
