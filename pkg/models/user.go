package models

import "time"

// User is the owner of pipelines and executions. Account management lives
// outside this service; the engine only requires an already-valid user id and
// never fabricates accounts. Deleting a user cascades to everything it owns.
type User struct {
	ID             string    `json:"id"`
	Email          string    `json:"email" validate:"required,email"`
	Name           string    `json:"name,omitempty"`
	EmailConfirmed bool      `json:"email_confirmed"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
