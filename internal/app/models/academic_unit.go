package models

import "time"

// AcademicUnit is a school or department programs belong to
type AcademicUnit struct {
	ID          int64     `json:"id" example:"1"`
	Name        string    `json:"name" example:"School of Engineering"`
	Code        string    `json:"code" example:"ENG"`
	Description string    `json:"description,omitempty"`
	Programs    []string  `json:"programs" example:"B.Tech CS,B.Tech ECE"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
