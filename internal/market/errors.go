package market

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidState        = errors.New("invalid state transition")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrDuplicateReferral   = errors.New("duplicate referral")
	ErrValidation          = errors.New("validation failed")
)
