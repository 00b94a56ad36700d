package models

import "time"

// User is an entry of the upstream GET /users roster.
type User struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	LeaderID *int   `json:"leaderId,omitempty"` // team lead of a sale, nil for everyone else
}

// StageChange is one confirmed move of a lead between columns.
type StageChange struct {
	ID         int64     `json:"id"`
	LeadID     int       `json:"lead_id"`
	ActorID    int       `json:"actor_id"`
	MutationID string    `json:"mutation_id"`
	FromStage  Stage     `json:"from_stage"`
	ToStage    Stage     `json:"to_stage"`
	CreatedAt  time.Time `json:"created_at"`
}
