package roles

// Role tags an account with a privilege class. The sale knows exactly two:
// owner, fixed at construction, and admin, managed by the owner at runtime.
type Role string

const (
	RoleOwner Role = "owner"
	RoleAdmin Role = "admin"
)

// IsValid checks if the role is one of the supported values.
func (r Role) IsValid() bool {
	return r == RoleOwner || r == RoleAdmin
}

func (r Role) String() string {
	return string(r)
}
