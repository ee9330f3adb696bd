package models

import "time"

// ContactMessage is a message left through the public contact form
type ContactMessage struct {
	ID        int64     `json:"id" example:"1"`
	Name      string    `json:"name" example:"John Smith"`
	Email     string    `json:"email" example:"john@example.com"`
	Subject   string    `json:"subject" example:"Transcript request"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}

// ContactMessageFilter narrows the admin listing
type ContactMessageFilter struct {
	UnreadOnly bool
}
