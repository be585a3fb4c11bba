package repository

import "github.com/pkg/errors"

var (
	ErrSolutionNotFound = errors.New("solution not found")
	ErrInvalidStatus    = errors.New("invalid solution status")
)
