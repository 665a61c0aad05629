package models

import "errors"

// Custom errors
var (
	ErrNotFound        = errors.New("record not found")
	ErrDuplicateKey    = errors.New("duplicate key violation")
	ErrInvalidID       = errors.New("invalid ID format")
	ErrNoTeams         = errors.New("no teams could be extracted")
	ErrTeamNameMissing = errors.New("team name is required")
	ErrInvalidInput    = errors.New("invalid input")
	ErrNoActiveSession = errors.New("no active live session")
)
