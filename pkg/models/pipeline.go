// Package models defines the core domain models for text-transformation pipelines.
package models

import "time"

// Pipeline is a named, ordered list of text-transformation steps owned by a
// user. Name uniqueness is not enforced; two pipelines may share a name.
type Pipeline struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"        validate:"required"`
	Description string    `json:"description,omitempty"`
	UserID      string    `json:"user_id"     validate:"required"`
	Steps       []*Step   `json:"steps"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
