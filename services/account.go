package services

import (
	"errors"
	"fmt"
	"strings"

	"tnr_clinic_go/config"
	"tnr_clinic_go/models"

	"gorm.io/gorm"
)

// Provisioning failure taxonomy. Handlers map these to 401/404/403/400.
var (
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrCallerNotFound   = errors.New("caller profile not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidArgument  = errors.New("invalid argument")
)

// ProvisionAccountInput is the payload for the privileged account-creation
// operation
type ProvisionAccountInput struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
	Title     string `json:"title"`
}

// ProvisionAccount creates a user account on behalf of an admin. Accounts
// are never self-service: the caller must be an established, active admin.
// The new account starts with the fixed initial password from config and
// must reset it out-of-band. Returns the new account's id.
func ProvisionAccount(db *gorm.DB, cfg *config.Config, callerID string, input ProvisionAccountInput) (string, error) {
	if callerID == "" {
		return "", ErrUnauthenticated
	}

	var caller models.User
	if err := db.First(&caller, "id = ?", callerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrCallerNotFound
		}
		return "", fmt.Errorf("failed to load caller profile: %w", err)
	}

	if caller.Role != models.RoleAdmin {
		return "", ErrPermissionDenied
	}

	// Login lowercases the submitted address, so store it lowercased too
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.FirstName = strings.TrimSpace(input.FirstName)
	if input.Email == "" || input.FirstName == "" || input.Role == "" {
		return "", fmt.Errorf("%w: email, first name and role are required", ErrInvalidArgument)
	}
	if !models.IsValidRole(input.Role) {
		return "", fmt.Errorf("%w: role must be one of staff, trapper, admin", ErrInvalidArgument)
	}

	var count int64
	db.Model(&models.User{}).Where("email = ?", input.Email).Count(&count)
	if count > 0 {
		return "", fmt.Errorf("%w: an account with this email already exists", ErrInvalidArgument)
	}

	hashed, err := HashPassword(cfg.InitialAccountPassword)
	if err != nil {
		return "", err
	}

	user := models.User{
		Email:     input.Email,
		Password:  hashed,
		FirstName: input.FirstName,
		LastName:  strings.TrimSpace(input.LastName),
		Role:      input.Role,
		Title:     strings.TrimSpace(input.Title),
		IsActive:  true,
	}
	if err := db.Create(&user).Error; err != nil {
		return "", fmt.Errorf("failed to create account: %w", err)
	}

	SendEmailAsync(cfg, BuildAccountWelcomeEmail(user.Email, user.FirstName, cfg.AppURL+"/login"))

	return user.ID, nil
}
