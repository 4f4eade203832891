package model

type Course struct {
	Base
	Title        string `db:"title" json:"title" validate:"required,min=3,max=50"`
	Credits      int    `db:"credits" json:"credits" validate:"min=0,max=5"`
	DepartmentID int64  `db:"department_id" json:"department_id" validate:"required,gt=0"`
}

func (c *Course) DisplayName() string {
	return c.Title
}

// CourseFilter narrows a course listing.
type CourseFilter struct {
	Pagination
	DepartmentID int64 `form:"department_id"`
}
