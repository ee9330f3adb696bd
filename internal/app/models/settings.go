package models

import "time"

// Theme values
const (
	ThemeLight  = "light"
	ThemeDark   = "dark"
	ThemeSystem = "system"
)

// NotificationSettings toggles the notification channels
type NotificationSettings struct {
	Email      bool `json:"email"`
	SMS        bool `json:"sms"`
	Newsletter bool `json:"newsletter"`
}

// UserSettings holds per-user preferences
type UserSettings struct {
	UserID        int64                `json:"userId"`
	Theme         string               `json:"theme" example:"system"`
	Language      string               `json:"language" example:"en"`
	Timezone      string               `json:"timezone" example:"UTC"`
	ItemsPerPage  int                  `json:"itemsPerPage" example:"10"`
	Notifications NotificationSettings `json:"notifications"`
	UpdatedAt     time.Time            `json:"updatedAt"`
}

// DefaultUserSettings returns the settings a user starts with
func DefaultUserSettings(userID int64) UserSettings {
	return UserSettings{
		UserID:       userID,
		Theme:        ThemeSystem,
		Language:     "en",
		Timezone:     "UTC",
		ItemsPerPage: 10,
		Notifications: NotificationSettings{
			Email:      true,
			SMS:        false,
			Newsletter: false,
		},
	}
}

// NotificationSettingsPatch carries the toggles present in a request
type NotificationSettingsPatch struct {
	Email      *bool `json:"email"`
	SMS        *bool `json:"sms"`
	Newsletter *bool `json:"newsletter"`
}

// UserSettingsPatch carries the settings present in a request
type UserSettingsPatch struct {
	Theme         *string                    `json:"theme" binding:"omitempty,oneof=light dark system"`
	Language      *string                    `json:"language" binding:"omitempty,min=2,max=10"`
	Timezone      *string                    `json:"timezone" binding:"omitempty,max=64"`
	ItemsPerPage  *int                       `json:"itemsPerPage" binding:"omitempty,min=5,max=100"`
	Notifications *NotificationSettingsPatch `json:"notifications"`
}

// Apply merges p into s leaf by leaf
func (s *UserSettings) Apply(p UserSettingsPatch) {
	setIfPresent(&s.Theme, p.Theme)
	setIfPresent(&s.Language, p.Language)
	setIfPresent(&s.Timezone, p.Timezone)
	if p.ItemsPerPage != nil {
		s.ItemsPerPage = *p.ItemsPerPage
	}
	if n := p.Notifications; n != nil {
		if n.Email != nil {
			s.Notifications.Email = *n.Email
		}
		if n.SMS != nil {
			s.Notifications.SMS = *n.SMS
		}
		if n.Newsletter != nil {
			s.Notifications.Newsletter = *n.Newsletter
		}
	}
}
