// Package leads stores contact-form leads and newsletter sign-ups.
package leads

import (
	"errors"
	"time"
)

var (
	// ErrNotConfigured is returned when no lead database is available.
	ErrNotConfigured = errors.New("lead capture is not configured")
	// ErrAlreadySubscribed means the email is already on the newsletter list.
	ErrAlreadySubscribed = errors.New("email is already subscribed")
)

type Lead struct {
	Name      string `json:"name"                validate:"required,max=200"`
	Email     string `json:"email"               validate:"required,email,max=254"`
	Phone     string `json:"phone,omitempty"     validate:"omitempty,max=32"`
	Business  string `json:"business,omitempty"  validate:"max=200"`
	Interest  string `json:"interest,omitempty"  validate:"max=200"`
	Challenge string `json:"challenge,omitempty" validate:"max=2000"`
}

type Subscription struct {
	Email string `json:"email" validate:"required,email,max=254"`
}

// ValidationError reports the first invalid field of a submission.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Record is a submission stamped with its id and creation time.
type Record[T any] struct {
	ID        string
	CreatedAt time.Time
	Value     T
}
