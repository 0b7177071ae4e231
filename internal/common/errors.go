package common

import "errors"

var (
	ErrorNotFound  = errors.New("not found")
	ErrorForbidden = errors.New("forbidden")

	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
