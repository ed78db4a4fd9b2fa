package services

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidID         = errors.New("invalid id")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidStatus     = errors.New("status must be approved or rejected")
	ErrConflict          = errors.New("conflict")
	ErrPaymentIncomplete = errors.New("payment not completed")
)
