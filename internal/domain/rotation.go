package domain

type Role string

const (
	RoleLead    Role = "lead"
	RoleSupport Role = "support"
	RoleRest    Role = "rest"
)

type RotationAssignment struct {
	Date     string
	Index    int
	Lead     AgentID
	Rest     AgentID
	Supports []AgentID
}

// AssignRotation derives the day's roles from the configured order and index.
func AssignRotation(order []AgentID, index int, date string) RotationAssignment {
	assignment := RotationAssignment{Date: date, Index: index}
	n := len(order)
	if n == 0 {
		return assignment
	}

	lead := order[mod(index, n)]
	rest := order[mod(index+1, n)]
	supports := make([]AgentID, 0, n)
	for _, id := range order {
		if id == lead || id == rest {
			continue
		}
		supports = append(supports, id)
	}

	assignment.Lead = lead
	assignment.Rest = rest
	assignment.Supports = supports
	return assignment
}

func (a RotationAssignment) RoleOf(id AgentID) Role {
	switch id {
	case a.Lead:
		return RoleLead
	case a.Rest:
		return RoleRest
	default:
		return RoleSupport
	}
}

func mod(a, n int) int {
	r := a % n
	if r < 0 {
		r += n
	}
	return r
}
