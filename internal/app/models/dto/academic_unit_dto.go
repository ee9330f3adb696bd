package dto

// CreateAcademicUnitRequest represents academic unit creation data
type CreateAcademicUnitRequest struct {
	Name        string   `json:"name" binding:"required,min=2,max=150" example:"School of Engineering"`
	Code        string   `json:"code" binding:"required,unitcode" example:"ENG"`
	Description string   `json:"description" binding:"max=1000"`
	Programs    []string `json:"programs" binding:"omitempty,dive,required,max=150"`
}

// UpdateAcademicUnitRequest represents academic unit update data; absent fields are kept
type UpdateAcademicUnitRequest struct {
	Name        *string   `json:"name" binding:"omitempty,min=2,max=150"`
	Code        *string   `json:"code" binding:"omitempty,unitcode"`
	Description *string   `json:"description" binding:"omitempty,max=1000"`
	Programs    *[]string `json:"programs" binding:"omitempty,dive,required,max=150"`
}

// ProgramsResponse lists the programs offered by an academic unit
type ProgramsResponse struct {
	AcademicUnitID int64    `json:"academicUnitId"`
	Programs       []string `json:"programs"`
}
