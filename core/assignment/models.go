package assignment

import (
	"time"

	"github.com/trezcool/classroom/core"
	"github.com/trezcool/classroom/core/classroom"
)

type Assignment struct {
	ID           int        `json:"id"`
	Title        string     `json:"title"`
	Instructions string     `json:"instructions"`
	DueDate      *time.Time `json:"due_date"`
	Points       *int       `json:"points"`
	ClassroomID  int        `json:"classroom_id"`

	// Classroom is only resolved by Service.ListForStudent.
	Classroom *classroom.Classroom `json:"classroom,omitempty"`
}

type NewAssignment struct {
	Title        string     `json:"title" validate:"notblank,max=200"`
	Instructions string     `json:"instructions" validate:"max=2000"`
	DueDate      *time.Time `json:"due_date"`
	Points       *int       `json:"points" validate:"omitempty,min=0,max=10000"`
	ClassroomID  int        `json:"-"`
}

func (na *NewAssignment) Clean() {
	na.Title = core.CleanString(na.Title)
	na.Instructions = core.CleanString(na.Instructions)
	if na.DueDate != nil {
		due := na.DueDate.UTC()
		na.DueDate = &due
	}
}
