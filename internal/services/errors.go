package services

import "errors"

var (
	ErrAlreadyInitialized = errors.New("escrow already initialized")
	ErrNotInitialized     = errors.New("escrow not initialized")
	ErrUnauthorized       = errors.New("caller is not authorized for this identity")
	ErrSessionNotFound    = errors.New("session not found")
	ErrNotAttended        = errors.New("session must be marked as attended before completion")
	ErrAlreadyCompleted   = errors.New("session already completed")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrTransferFailed     = errors.New("transfer failed")
	ErrInvalidInput       = errors.New("invalid input")
	ErrForbidden          = errors.New("forbidden")
)
