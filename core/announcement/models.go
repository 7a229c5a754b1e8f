package announcement

import (
	"time"

	"github.com/trezcool/classroom/core"
	"github.com/trezcool/classroom/core/user"
)

type Announcement struct {
	ID          int       `json:"id"`
	Content     string    `json:"content"`
	ClassroomID int       `json:"classroom_id"`
	AuthorID    int       `json:"author_id"`
	Author      user.User `json:"author"`
	Timestamp   time.Time `json:"timestamp"`
}

type NewAnnouncement struct {
	Content     string `json:"content" validate:"notblank,max=2000"`
	ClassroomID int    `json:"-"`
	AuthorID    int    `json:"-"`
}

func (na *NewAnnouncement) Clean() {
	na.Content = core.CleanString(na.Content)
}
