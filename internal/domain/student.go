package domain

import (
	"strings"
	"time"
)

type Student struct {
	ID            int64       `json:"id"`
	Email         string      `json:"email"`
	Name          string      `json:"name"`
	StudentNumber string      `json:"student_number"`
	UserID        string      `json:"user_id"`
	Role          StudentRole `json:"role"`
	CreatedAt     time.Time   `json:"created_at"`
	LastActive    time.Time   `json:"last_active"`
}

type StudentRole string

const (
	RoleStudent    StudentRole = "student"
	RoleInstructor StudentRole = "instructor"
)

func (r StudentRole) IsValid() bool {
	switch r {
	case RoleStudent, RoleInstructor:
		return true
	default:
		return false
	}
}

// NormalizeRole maps raw roster role labels onto the two roles the
// service understands. Anything unrecognized counts as a student.
func NormalizeRole(raw string) StudentRole {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "instructor", "representative":
		return RoleInstructor
	default:
		return RoleStudent
	}
}
