package ledger

import "errors"

var (
	// ErrMemberNotFound is returned when a payment references a member that
	// does not exist.
	ErrMemberNotFound = errors.New("member not found")
	// ErrInvalidMember is returned when a member is missing a name or
	// surname.
	ErrInvalidMember = errors.New("name and surname required")
)
