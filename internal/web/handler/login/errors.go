package login

import "errors"

var (
	// ErrInvalidCredentials is the only error a login client ever sees.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrInternalServerError is returned when the session can not be created.
	ErrInternalServerError = errors.New("internal server error")
)
