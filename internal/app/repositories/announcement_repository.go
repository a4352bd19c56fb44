package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/handbook/internal/app/models"
	"github.com/yigit/handbook/internal/pkg/apperrors"
	"github.com/yigit/handbook/internal/pkg/dberrors"
)

var announcementColumns = []string{
	"id", "title", "content", "created_by", "created_by_name", "is_important", "created_at", "updated_at",
}

// AnnouncementRepository handles database operations for announcements
type AnnouncementRepository struct {
	db *pgxpool.Pool
}

// NewAnnouncementRepository creates a new AnnouncementRepository
func NewAnnouncementRepository(db *pgxpool.Pool) *AnnouncementRepository {
	return &AnnouncementRepository{db: db}
}

func scanAnnouncement(row pgx.Row) (*models.Announcement, error) {
	var a models.Announcement
	err := row.Scan(&a.ID, &a.Title, &a.Content, &a.CreatedBy, &a.CreatedByName, &a.IsImportant, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// List returns up to limit announcements ordered by creation time
func (r *AnnouncementRepository) List(ctx context.Context, limit uint64, ascending bool) ([]*models.Announcement, error) {
	order := "created_at DESC"
	if ascending {
		order = "created_at ASC"
	}

	sql, args, err := psql.Select(announcementColumns...).
		From("announcements").
		OrderBy(order, "id ASC").
		Limit(limit).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, dberrors.Wrap(err, "error listing announcements")
	}
	defer rows.Close()

	announcements := make([]*models.Announcement, 0)
	for rows.Next() {
		a, err := scanAnnouncement(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning announcement: %w", err)
		}
		announcements = append(announcements, a)
	}
	if err := rows.Err(); err != nil {
		return nil, dberrors.Wrap(err, "error iterating announcements")
	}
	return announcements, nil
}

// GetByID retrieves an announcement by its ID
func (r *AnnouncementRepository) GetByID(ctx context.Context, id string) (*models.Announcement, error) {
	sql, args, err := psql.Select(announcementColumns...).From("announcements").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	a, err := scanAnnouncement(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if dberrors.IsNoRows(err) {
			return nil, apperrors.ErrAnnouncementNotFound
		}
		return nil, dberrors.Wrap(err, "error retrieving announcement")
	}
	return a, nil
}

// CreateBatch inserts every announcement in one statement
func (r *AnnouncementRepository) CreateBatch(ctx context.Context, announcements []*models.Announcement) error {
	if len(announcements) == 0 {
		return nil
	}

	builder := psql.Insert("announcements").
		Columns("id", "title", "content", "created_by", "created_by_name", "is_important", "created_at")
	for _, a := range announcements {
		builder = builder.Values(a.ID, a.Title, a.Content, a.CreatedBy, a.CreatedByName, a.IsImportant, a.CreatedAt)
	}

	sql, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return dberrors.Wrap(err, "error creating announcements")
	}
	return nil
}

// Update replaces title, content and importance
func (r *AnnouncementRepository) Update(ctx context.Context, announcement *models.Announcement) error {
	sql, args, err := psql.Update("announcements").
		Set("title", announcement.Title).
		Set("content", announcement.Content).
		Set("is_important", announcement.IsImportant).
		Set("updated_at", announcement.UpdatedAt).
		Where(squirrel.Eq{"id": announcement.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return dberrors.Wrap(err, "error updating announcement")
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrAnnouncementNotFound
	}
	return nil
}

// Delete removes an announcement
func (r *AnnouncementRepository) Delete(ctx context.Context, id string) error {
	sql, args, err := psql.Delete("announcements").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return dberrors.Wrap(err, "error deleting announcement")
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrAnnouncementNotFound
	}
	return nil
}
