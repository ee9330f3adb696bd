package dto

// CreateContactMessageRequest is the public contact form payload
type CreateContactMessageRequest struct {
	Name    string `json:"name" binding:"required,min=2,max=100"`
	Email   string `json:"email" binding:"required,email"`
	Subject string `json:"subject" binding:"required,max=200"`
	Message string `json:"message" binding:"required,max=5000"`
}

// ContactListQuery represents the admin listing filters
type ContactListQuery struct {
	Unread bool `form:"unread"`
}
