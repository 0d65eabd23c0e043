package domain

import (
	"time"

	"github.com/google/uuid"
)

// Practice is the tenant every other row belongs to. Its id is also the id of
// the party.organisationPractice object describing it.
type Practice struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	APIKeyHash string    `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
