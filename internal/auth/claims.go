package auth

import "github.com/golang-jwt/jwt/v5"

// Claims are the only supported JWT claims shape for this service.
// AgentID scopes non-admin users to their own agent's calls; admins carry
// an empty AgentID and see everything.
type Claims struct {
	jwt.RegisteredClaims

	Username string `json:"username"`
	Role     string `json:"role"`
	AgentID  string `json:"agent_id,omitempty"`
}
