package models

import "time"

type User struct {
	ID        int64     `json:"id" example:"1"`      // User ID
	Name      string    `json:"name" example:"John"` // Display name
	CreatedAt time.Time `json:"created_at"`
}
