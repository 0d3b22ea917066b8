package auth

import (
	"github.com/agilaxstudios/agilax-backend/internal/users"
)

// LoginRequest captures the user credentials sent to the login endpoint.
// RedirectTo carries the client-remembered destination; it wins over the
// role default when computing the landing path.
type LoginRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required"`
	RedirectTo string `json:"redirect_to,omitempty"`
}

// LoginResponse contains the tokens, user, and landing path produced by a
// successful login.
type LoginResponse struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	User         *users.UserDTO `json:"user"`
	LandingPath  string         `json:"landing_path"`
}

// RegisterRequest contains the payload required for creating an account.
type RegisterRequest struct {
	Name        string `json:"name" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	IsAffiliate bool   `json:"is_affiliate"`
	UPIID       string `json:"upi_id,omitempty"`
}

// RefreshRequest carries the expired access token plus its refresh pair.
type RefreshRequest struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshResponse returns the rotated token pair.
type RefreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
