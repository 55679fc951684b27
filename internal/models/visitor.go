package models

import "time"

// Visitor is a guest registration attributed to a resident.
type Visitor struct {
	ID        string    `json:"id"`
	Resident  string    `json:"resident"`
	Name      string    `json:"name"`
	Plate     string    `json:"plate"`
	CreatedAt time.Time `json:"created_at"`
}
