package service

import "errors"

// Common service errors
var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict is returned when there's a conflict (e.g., duplicate)
	ErrConflict = errors.New("resource conflict")

	// ErrUnauthorized is returned when user is not authenticated
	ErrUnauthorized = errors.New("unauthorized")

	// ErrSubcontractorBlacklisted is returned when a contract names a blacklisted subcontractor
	ErrSubcontractorBlacklisted = errors.New("subcontractor is blacklisted")

	// ErrBudgetSourceUnavailable is returned when no budget BOQ source can serve a copy request
	ErrBudgetSourceUnavailable = errors.New("budget BOQ source unavailable")
)
