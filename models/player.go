package models

import "time"

// Player is an external-collaborator entity: the engine only consumes ids
// and cached display names, it never owns the player lifecycle.
type Player struct {
	ID        int       `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     *string   `json:"email,omitempty" db:"email"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
