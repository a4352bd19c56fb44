package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/handbook/internal/app/models"
	"github.com/yigit/handbook/internal/pkg/dberrors"
)

var notificationColumns = []string{
	"id", "seq", "user_id", "title", "description", "type",
	"created_at", "read", "read_at", "related_id", "badge_color",
}

var notificationInsertColumns = []string{
	"id", "user_id", "title", "description", "type", "created_at", "read", "related_id", "badge_color",
}

// NotificationRepository handles database operations for notifications
type NotificationRepository struct {
	db *pgxpool.Pool
}

// NewNotificationRepository creates a new NotificationRepository
func NewNotificationRepository(db *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func scanNotification(row pgx.Row) (*models.Notification, error) {
	var n models.Notification
	var notificationType string
	err := row.Scan(
		&n.ID,
		&n.Seq,
		&n.UserID,
		&n.Title,
		&n.Description,
		&notificationType,
		&n.CreatedAt,
		&n.Read,
		&n.ReadAt,
		&n.RelatedID,
		&n.BadgeColor,
	)
	if err != nil {
		return nil, err
	}
	n.Type = models.ParseNotificationType(notificationType)
	return &n, nil
}

func notificationValues(n *models.Notification) []interface{} {
	return []interface{}{n.ID, n.UserID, n.Title, n.Description, string(n.Type), n.CreatedAt, n.Read, n.RelatedID, n.BadgeColor}
}

// Create inserts a single notification
func (r *NotificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	_, err := r.CreateBatch(ctx, []*models.Notification{notification})
	return err
}

// CreateBatch inserts every notification in one statement and returns the ids
// actually written. Rows whose id already exists are skipped.
func (r *NotificationRepository) CreateBatch(ctx context.Context, notifications []*models.Notification) ([]string, error) {
	if len(notifications) == 0 {
		return nil, nil
	}

	builder := psql.Insert("notifications").Columns(notificationInsertColumns...)
	for _, n := range notifications {
		builder = builder.Values(notificationValues(n)...)
	}

	sql, args, err := builder.Suffix("ON CONFLICT (id) DO NOTHING RETURNING id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, dberrors.Wrap(err, "error creating notifications")
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, dberrors.Wrap(err, "error creating notifications")
	}
	return ids, nil
}

// ListByRecipients returns the feed of a recipient, newest first
func (r *NotificationRepository) ListByRecipients(ctx context.Context, recipientAliases []string) ([]*models.Notification, error) {
	sql, args, err := psql.Select(notificationColumns...).
		From("notifications").
		Where(squirrel.Eq{"user_id": recipientAliases}).
		OrderBy("created_at DESC", "seq DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, dberrors.Wrap(err, "error listing notifications")
	}
	defer rows.Close()

	notifications := make([]*models.Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, dberrors.Wrap(err, "error iterating notifications")
	}
	return notifications, nil
}

func (r *NotificationRepository) markRead(ctx context.Context, builder squirrel.UpdateBuilder) (int64, error) {
	sql, args, err := builder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("error building SQL: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return 0, dberrors.Wrap(err, "error marking notifications read")
	}
	return tag.RowsAffected(), nil
}

// MarkRead flips the recipient's unread notifications; an empty ids slice means all of them
func (r *NotificationRepository) MarkRead(ctx context.Context, recipientAliases, ids []string, at time.Time) (int64, error) {
	builder := psql.Update("notifications").
		Set("read", true).
		Set("read_at", at).
		Where(squirrel.Eq{"user_id": recipientAliases}).
		Where(squirrel.Eq{"read": false})
	if len(ids) > 0 {
		builder = builder.Where(squirrel.Eq{"id": ids})
	}
	return r.markRead(ctx, builder)
}

// MarkReadByRelated flips the recipient's unread notifications of one type raised for relatedIDs
func (r *NotificationRepository) MarkReadByRelated(ctx context.Context, recipientAliases []string, notificationType models.NotificationType, relatedIDs []string, at time.Time) (int64, error) {
	if len(relatedIDs) == 0 {
		return 0, nil
	}
	return r.markRead(ctx, psql.Update("notifications").
		Set("read", true).
		Set("read_at", at).
		Where(squirrel.Eq{"user_id": recipientAliases}).
		Where(squirrel.Eq{"type": string(notificationType)}).
		Where(squirrel.Eq{"related_id": relatedIDs}).
		Where(squirrel.Eq{"read": false}))
}

func (r *NotificationRepository) delete(ctx context.Context, builder squirrel.DeleteBuilder) (int64, error) {
	sql, args, err := builder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("error building SQL: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return 0, dberrors.Wrap(err, "error deleting notifications")
	}
	return tag.RowsAffected(), nil
}

// DeleteByRecipients purges every notification owned by the recipient
func (r *NotificationRepository) DeleteByRecipients(ctx context.Context, recipientAliases []string) (int64, error) {
	return r.delete(ctx, psql.Delete("notifications").Where(squirrel.Eq{"user_id": recipientAliases}))
}

// DeleteReadBefore purges read notifications created before cutoff
func (r *NotificationRepository) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return r.delete(ctx, psql.Delete("notifications").
		Where(squirrel.Eq{"read": true}).
		Where(squirrel.Lt{"created_at": cutoff}))
}
