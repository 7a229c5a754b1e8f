package submission

import (
	"time"

	"github.com/trezcool/classroom/core/user"
)

type Submission struct {
	ID           int       `json:"id"`
	Content      string    `json:"content"`
	AssignmentID int       `json:"assignment_id"`
	StudentID    int       `json:"student_id"`
	Grade        *float64  `json:"grade"`
	Timestamp    time.Time `json:"timestamp"`

	// Student is only resolved by Service.ListForAssignment.
	Student *user.User `json:"student,omitempty"`
}

type SubmitWork struct {
	Content string `json:"content" validate:"max=5000"`
}

type GradeRequest struct {
	Grade *float64 `json:"grade" validate:"required,finite,min=0,max=10000"`
}
