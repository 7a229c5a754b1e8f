package announcement

import (
	"context"

	"github.com/trezcool/classroom/core"
	"github.com/trezcool/classroom/core/classroom"
	"github.com/trezcool/classroom/core/user"
)

type (
	Repository interface {
		CreateAnnouncement(ctx context.Context, ann Announcement, exec ...core.DBExecutor) (Announcement, error)
		// QueryClassroomAnnouncements orders by timestamp DESC, then ID DESC, each with its author.
		QueryClassroomAnnouncements(ctx context.Context, classroomID int, exec ...core.DBExecutor) ([]Announcement, error)
	}

	Service struct {
		db        core.DB
		repo      Repository
		clsRepo   classroom.Repository
		usrRepo   user.Repository
		validator *core.Validator
	}
)

func NewService(
	db core.DB,
	repo Repository,
	clsRepo classroom.Repository,
	usrRepo user.Repository,
	validator *core.Validator,
) *Service {
	return &Service{db: db, repo: repo, clsRepo: clsRepo, usrRepo: usrRepo, validator: validator}
}

// Create posts an announcement stamped with the current time.
func (svc *Service) Create(ctx context.Context, na NewAnnouncement) (Announcement, error) {
	na.Clean()
	if err := svc.validator.Struct(na); err != nil {
		return Announcement{}, err
	}

	var ann Announcement
	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		if _, err := svc.clsRepo.GetClassroomByID(ctx, na.ClassroomID, tx); err != nil {
			return err
		}
		author, err := svc.usrRepo.GetUserByID(ctx, na.AuthorID, tx)
		if err != nil {
			return err
		}
		if ann, err = svc.repo.CreateAnnouncement(ctx, Announcement{
			Content:     na.Content,
			ClassroomID: na.ClassroomID,
			AuthorID:    author.ID,
			Timestamp:   core.NowFunc(),
		}, tx); err != nil {
			return err
		}
		ann.Author = author
		return nil
	})
	if err != nil {
		return Announcement{}, err
	}
	return ann, nil
}

func (svc *Service) ListForClassroom(ctx context.Context, classroomID int) ([]Announcement, error) {
	var anns []Announcement
	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		if _, err := svc.clsRepo.GetClassroomByID(ctx, classroomID, tx); err != nil {
			return err
		}
		var err error
		anns, err = svc.repo.QueryClassroomAnnouncements(ctx, classroomID, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return anns, nil
}
