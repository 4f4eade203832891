package model

import (
	"strings"
	"time"
)

type Student struct {
	Base
	LastName       string    `db:"last_name" json:"last_name" validate:"required,max=50"`
	FirstMidName   string    `db:"first_mid_name" json:"first_mid_name" validate:"required,max=50"`
	EnrollmentDate time.Time `db:"enrollment_date" json:"enrollment_date" validate:"required"`
}

// DisplayName is the student's full name as shown in notifications.
func (s *Student) DisplayName() string {
	return strings.TrimSpace(s.FirstMidName + " " + s.LastName)
}

// StudentFilter narrows a student listing. Search matches either name part.
type StudentFilter struct {
	Pagination
	Search string `form:"search"`
}
