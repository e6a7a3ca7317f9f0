package auth

import (
	"github.com/velamart/velamart-backend/internal/users"
	"github.com/velamart/velamart-backend/internal/vendors"
)

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse contains the token and user returned on a successful login.
type LoginResponse struct {
	AccessToken string         `json:"access_token"`
	User        *users.UserDTO `json:"user"`
}

// RegisterRequest contains the payload required for onboarding an account.
// StoreName is required when registering as a vendor.
type RegisterRequest struct {
	FirstName   string `json:"first_name" validate:"required"`
	LastName    string `json:"last_name" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	Role        string `json:"role" validate:"required"`
	StoreName   string `json:"store_name,omitempty"`
	Description string `json:"description,omitempty"`
}

// RegisterResponse returns the created account and vendor profile if any.
type RegisterResponse struct {
	User   *users.UserDTO     `json:"user"`
	Vendor *vendors.VendorDTO `json:"vendor,omitempty"`
}
