package classroom

import (
	"github.com/trezcool/classroom/core"
	"github.com/trezcool/classroom/core/user"
)

type Classroom struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Section   string `json:"section"`
	ClassCode string `json:"class_code"`
	TeacherID int    `json:"teacher_id"`

	Teacher user.User `json:"teacher"`
	// Students is only resolved by Service.Get.
	Students []user.User `json:"students,omitempty"`
}

type NewClassroom struct {
	Name      string `json:"name" validate:"notblank,max=100"`
	Section   string `json:"section" validate:"max=50"`
	TeacherID int    `json:"-"`
}

func (nc *NewClassroom) Clean() {
	nc.Name = core.CleanString(nc.Name)
	nc.Section = core.CleanString(nc.Section)
}

type JoinRequest struct {
	ClassCode string `json:"class_code" validate:"required"`
}

func (jr *JoinRequest) Clean() {
	jr.ClassCode = core.CleanString(jr.ClassCode)
}
