package app

import "errors"

// Pipeline error kinds. Handlers translate these to response codes; anything
// else is reported as a generic internal failure without leaking details.
var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrDocumentNotFound = errors.New("document not found")
	ErrEmptyDocument    = errors.New("document contains no extractable text")
	ErrGenerationFailed = errors.New("could not generate a response")

	ErrUsernameExists     = errors.New("username already exists")
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
)
