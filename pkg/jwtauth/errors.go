package jwtauth

import "errors"

var (
	ErrMissingSigningKey = errors.New("jwtauth: missing signing key")
	ErrMissingToken      = errors.New("jwtauth: missing token")
	ErrInvalidToken      = errors.New("jwtauth: invalid token")
	ErrMissingClaims     = errors.New("jwtauth: missing claims")
)
