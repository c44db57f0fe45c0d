package service

import "errors"

var (
	ErrNotEnrolled        = errors.New("student not enrolled")
	ErrInstructorRequired = errors.New("instructor role required")
	ErrQuizNotFound       = errors.New("quiz not found")
	ErrInvalidStatus      = errors.New("invalid submission status")
	ErrRosterColumns      = errors.New("roster csv missing role or user id column")
)
