package model

type Role string

const (
	RoleStudent Role = "student"
	RoleFaculty Role = "faculty"
	RoleStaff   Role = "staff"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleFaculty, RoleStaff, RoleAdmin:
		return true
	}
	return false
}

// Actor is the authenticated caller. It is supplied by the gateway and never
// synthesised when missing.
type Actor struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// Privileged actors may decide, complete and manage resources.
func (a Actor) Privileged() bool {
	return a.Role == RoleAdmin || a.Role == RoleStaff
}
