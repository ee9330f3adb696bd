package seed

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	appModels "github.com/yigit/alumnisphere/internal/app/models"
	appRepos "github.com/yigit/alumnisphere/internal/app/repositories"
	"github.com/yigit/alumnisphere/internal/pkg/apperrors"
	"github.com/yigit/alumnisphere/internal/pkg/auth"
)

// Admin describes the account created on first start
type Admin struct {
	Name     string
	Email    string
	Password string
}

// DefaultAcademicUnits are created when missing
var DefaultAcademicUnits = []appModels.AcademicUnit{
	{
		Name:        "School of Engineering",
		Code:        "ENG",
		Description: "Engineering and technology programs",
		Programs:    []string{"B.Tech Computer Science", "B.Tech Electronics", "M.Tech Computer Science"},
	},
	{
		Name:        "School of Sciences",
		Code:        "SCI",
		Description: "Pure and applied sciences",
		Programs:    []string{"B.Sc Physics", "B.Sc Mathematics", "M.Sc Chemistry"},
	},
	{
		Name:        "School of Management",
		Code:        "MGT",
		Description: "Business and management programs",
		Programs:    []string{"BBA", "MBA"},
	},
}

// CreateDefaultData creates the default academic units and, when admin carries
// an email, the administrator account. Existing rows are left untouched.
func CreateDefaultData(ctx context.Context, unitRepo appRepos.IAcademicUnitRepository, userRepo appRepos.IUserRepository, admin Admin, lgr zerolog.Logger) error {
	lgr.Info().Msg("Checking/Creating default data (Academic units/Admin)...")
	var finalErr error // collected so one failure does not stop the rest

	for _, unit := range DefaultAcademicUnits {
		u := unit
		u.Programs = append([]string(nil), unit.Programs...)
		err := unitRepo.Create(ctx, &u)
		switch {
		case err == nil:
			lgr.Info().Str("code", u.Code).Int64("id", u.ID).Msg("Academic unit created")
		case errors.Is(err, apperrors.ErrAcademicUnitAlreadyExists):
			lgr.Debug().Str("code", u.Code).Msg("Academic unit already exists, skipping")
		default:
			lgr.Error().Err(err).Str("code", u.Code).Msg("Error creating academic unit")
			finalErr = errors.Join(finalErr, err)
		}
	}

	if err := createAdmin(ctx, userRepo, admin, lgr); err != nil {
		finalErr = errors.Join(finalErr, err)
	}

	lgr.Info().Msg("Default data check/creation finished.")
	return finalErr
}

func createAdmin(ctx context.Context, userRepo appRepos.IUserRepository, admin Admin, lgr zerolog.Logger) error {
	email := strings.ToLower(strings.TrimSpace(admin.Email))
	if email == "" {
		lgr.Debug().Msg("No admin email configured, skipping admin creation")
		return nil
	}

	exists, err := userRepo.EmailExists(ctx, email)
	if err != nil {
		lgr.Error().Err(err).Msg("Error checking if admin user exists")
		return err
	}
	if exists {
		lgr.Info().Msg("Admin user already exists, skipping creation")
		return nil
	}
	if admin.Password == "" {
		return errors.New("admin password is required to create the admin user")
	}

	hashedPassword, err := auth.HashPassword(admin.Password)
	if err != nil {
		lgr.Error().Err(err).Msg("Error hashing admin password")
		return err
	}

	name := strings.TrimSpace(admin.Name)
	if name == "" {
		name = "System Administrator"
	}

	user := &appModels.User{
		Name:     name,
		Email:    email,
		Password: hashedPassword,
		Role:     appModels.RoleAdmin,
		IsActive: true,
	}
	if err := userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrEmailAlreadyExists) {
			return nil
		}
		lgr.Error().Err(err).Msg("Error creating admin user")
		return err
	}

	lgr.Info().Int64("adminID", user.ID).Msg("Default admin user created successfully")
	return nil
}
