package sqlxrepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/classroom/core"
	"github.com/trezcool/classroom/core/announcement"
	"github.com/trezcool/classroom/core/classroom"
)

type announcementRepository struct {
	repository
}

var _ announcement.Repository = (*announcementRepository)(nil) // interface compliance check

func NewAnnouncementRepository(exec core.DBExecutor) *announcementRepository {
	return &announcementRepository{repository{exec: exec}}
}

func boilAnnouncement(ann announcement.Announcement) announcementRow {
	return announcementRow{
		ID:          ann.ID,
		Content:     ann.Content,
		ClassroomID: ann.ClassroomID,
		AuthorID:    ann.AuthorID,
		Timestamp:   ann.Timestamp.UTC(),
	}
}

func unboilAnnouncement(row announcementWithAuthorRow) announcement.Announcement {
	return announcement.Announcement{
		ID:          row.ID,
		Content:     row.Content,
		ClassroomID: row.ClassroomID,
		AuthorID:    row.AuthorID,
		Author:      unboilUser(row.Author),
		Timestamp:   row.Timestamp.UTC(),
	}
}

// CreateAnnouncement leaves Author unresolved; the caller already holds it.
func (repo announcementRepository) CreateAnnouncement(ctx context.Context, ann announcement.Announcement, exec ...core.DBExecutor) (announcement.Announcement, error) {
	row := boilAnnouncement(ann)
	q := `INSERT INTO announcements (content, classroom_id, author_id, timestamp) VALUES (?, ?, ?, ?) RETURNING id`
	if err := repo.get(ctx, repo.getExec(exec), &row.ID, q, row.Content, row.ClassroomID, row.AuthorID, row.Timestamp); err != nil {
		return announcement.Announcement{}, trapConstraintErr(err, classroom.ErrNotFound, "inserting announcement")
	}
	return unboilAnnouncement(announcementWithAuthorRow{announcementRow: row}), nil
}

func (repo announcementRepository) QueryClassroomAnnouncements(ctx context.Context, classroomID int, exec ...core.DBExecutor) ([]announcement.Announcement, error) {
	var rows []announcementWithAuthorRow
	q := `SELECT n.id, n.content, n.classroom_id, n.author_id, n.timestamp, ` + userColumns("u", "author") + `
FROM announcements n
JOIN users u ON u.id = n.author_id
WHERE n.classroom_id = ?
ORDER BY n.timestamp DESC, n.id DESC`
	if err := repo.selectAll(ctx, repo.getExec(exec), &rows, q, classroomID); err != nil {
		return nil, errors.Wrap(err, "selecting classroom announcements")
	}

	anns := make([]announcement.Announcement, 0, len(rows))
	for _, row := range rows {
		anns = append(anns, unboilAnnouncement(row))
	}
	return anns, nil
}
