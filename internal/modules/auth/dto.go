package auth

import "railbook/internal/domain"

type SignupRequest struct {
	Username string `json:"username" validate:"required,min=3,max=80"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ExternalLoginRequest carries an identity already verified by an
// outside provider. Username is only used when the account is created.
type ExternalLoginRequest struct {
	ExternalID string `json:"external_id" validate:"required,max=255"`
	Username   string `json:"username" validate:"required,min=3,max=80"`
}

type UserPublic struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type AuthResponse struct {
	User  UserPublic `json:"user"`
	Token string     `json:"token"`
}

func toPublic(u *domain.User) UserPublic {
	return UserPublic{ID: u.ID, Username: u.Username}
}
