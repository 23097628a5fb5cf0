package rbac

// Role names. Keep these stable; they are part of the token contract.
const (
	RoleAdmin  = "admin"
	RoleClient = "client"
	RoleDemo   = "demo" // read-only showcase account
)

func IsAdmin(role string) bool { return role == RoleAdmin }

// ValidRole reports whether role is one this service issues tokens for.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleClient, RoleDemo:
		return true
	default:
		return false
	}
}
