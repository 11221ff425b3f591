package ledger

import "errors"

// Business-rule failures are sentinel values so handlers can map them to
// HTTP status codes with errors.Is. Everything else coming out of this
// package is a storage failure.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrTaskNotFound       = errors.New("task not found")
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInsufficientCoins  = errors.New("insufficient coins")
	ErrLimitExceeded      = errors.New("withdrawal limit exceeded")
	ErrAlreadyReviewed    = errors.New("submission already reviewed")
	ErrInvalidAmount      = errors.New("amount must be positive")
)
