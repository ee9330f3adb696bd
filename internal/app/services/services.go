// Package services holds the business rules of the API.
//
// Services defined in this package:
//   - AlumniService: alumni records, their attachments and search
//   - AuthService: registration, login, token refresh and password reset
//   - UserService: profile, password, photo and admin user management
//   - AcademicUnitService: schools/departments and their programs
//   - ContactService: contact form submissions
//   - SettingsService: per-user preferences
package services
