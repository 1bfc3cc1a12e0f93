package auth

import "errors"

var (
	ErrValidation         = errors.New("validation failed")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrDuplicateUser      = errors.New("username already taken")
	ErrUnauthorized       = errors.New("unauthorized")
)
