package users

import "time"

// User is a dashboard account. Non-admin users carry the AgentID whose
// calls they are allowed to see.
type User struct {
	ID           string    `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         string    `json:"role" db:"role"`
	AgentID      string    `json:"agent_id,omitempty" db:"agent_id"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
