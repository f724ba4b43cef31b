package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure — no infrastructure dependency.
// Every command failure is local and reported to the caller; nothing here
// is fatal to the process.

var (
	// Lookup errors — the engine short-circuits before any mutation.
	ErrTaskNotFound    = errors.New("task not found")
	ErrAccountNotFound = errors.New("account not found")
	ErrPackNotFound    = errors.New("pack not found")

	// Validation errors — rejected before any registry mutation.
	ErrInvalidInput = errors.New("invalid input")

	// Session errors.
	ErrNotAuthenticated = errors.New("no user logged in")
)
