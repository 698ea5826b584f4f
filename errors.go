package estateauth

import "errors"

var (
	// ErrNotFound is returned when no directory entry matches the email.
	ErrNotFound = errors.New("user not found")
	// ErrInvalidCredentials is returned when the entry exists but the password does not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAlreadyExists is returned when registering an email the directory already holds.
	ErrAlreadyExists = errors.New("user already exists with this email")
	// ErrMalformedSession marks a persisted session that could not be decoded.
	// Recover absorbs it; it never reaches callers.
	ErrMalformedSession = errors.New("malformed persisted session")
	// ErrOperationInProgress is returned when Login or Register is called while
	// another operation has not settled.
	ErrOperationInProgress = errors.New("auth operation already in progress")
	// ErrEngineNotReady is returned when Login or Register runs before Recover.
	ErrEngineNotReady = errors.New("session not recovered")
	// ErrRoleInvalid is returned for a role outside the enumeration.
	ErrRoleInvalid = errors.New("invalid role")
	// ErrPasswordMismatch is returned by RegisterData.Validate when the
	// confirmation differs from the password.
	ErrPasswordMismatch = errors.New("passwords do not match")
	// ErrRegistrationInvalid is returned by RegisterData.Validate for missing fields.
	ErrRegistrationInvalid = errors.New("invalid registration request")
	// ErrSessionPersistence is returned when a successful verification could
	// not be written to the persistence surface.
	ErrSessionPersistence = errors.New("session persistence failed")
)
