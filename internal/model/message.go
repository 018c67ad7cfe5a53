package model

import "time"

// Message is a pass-through note between two users, optionally about an appointment
type Message struct {
	ID            int64     `json:"id"`
	FromID        int64     `json:"from_id"`
	ToID          int64     `json:"to_id"`
	AppointmentID *int64    `json:"appointment_id"`
	Body          string    `json:"body"`
	Read          bool      `json:"read"`
	CreatedAt     time.Time `json:"created_at"`
}
