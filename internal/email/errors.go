package email

import "errors"

var (
	// ErrNoRecipients indicates an email with an empty To list.
	ErrNoRecipients = errors.New("email: no recipients")

	// ErrEmptyBody indicates an email with neither a text nor an HTML body.
	ErrEmptyBody = errors.New("email: empty body")
)
