package repositories

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repositories holds all the repository instances
type Repositories struct {
	UserRepository               *UserRepository
	TokenRepository              *TokenRepository
	PasswordResetTokenRepository *PasswordResetTokenRepository
	AcademicUnitRepository       *AcademicUnitRepository
	ContactMessageRepository     *ContactMessageRepository
	SettingsRepository           *SettingsRepository
	AlumniRepository             AlumniRepository
}

// NewRepositories initializes all repositories. Alumni go to Postgres unless
// another AlumniRepository is supplied.
func NewRepositories(db *pgxpool.Pool, alumni AlumniRepository) *Repositories {
	if alumni == nil {
		alumni = NewPostgresAlumniRepository(db)
	}
	return &Repositories{
		UserRepository:               NewUserRepository(db),
		TokenRepository:              NewTokenRepository(db),
		PasswordResetTokenRepository: NewPasswordResetTokenRepository(db),
		AcademicUnitRepository:       NewAcademicUnitRepository(db),
		ContactMessageRepository:     NewContactMessageRepository(db),
		SettingsRepository:           NewSettingsRepository(db),
		AlumniRepository:             alumni,
	}
}
