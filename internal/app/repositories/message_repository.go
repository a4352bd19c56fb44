package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/handbook/internal/app/models"
	"github.com/yigit/handbook/internal/db"
	"github.com/yigit/handbook/internal/pkg/apperrors"
	"github.com/yigit/handbook/internal/pkg/dberrors"
)

var messageColumns = []string{
	"id", "seq", "sender_id", "receiver_id", "sender_name", "sender_initials", "text",
	"created_at", "updated_at", "read", "replied_to", "reactions", "attachments",
	"deleted", "deleted_by", "deleted_by_name", "deleted_at",
}

// MessageRepository handles database operations for chat messages
type MessageRepository struct {
	db *pgxpool.Pool
}

// NewMessageRepository creates a new MessageRepository
func NewMessageRepository(db *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{db: db}
}

func scanMessage(row pgx.Row) (*models.Message, error) {
	var m models.Message
	err := row.Scan(
		&m.ID,
		&m.Seq,
		&m.SenderID,
		&m.ReceiverID,
		&m.SenderName,
		&m.SenderInitials,
		&m.Text,
		&m.CreatedAt,
		&m.UpdatedAt,
		&m.Read,
		&m.RepliedTo,
		&m.Reactions,
		&m.Attachments,
		&m.Deleted,
		&m.DeletedBy,
		&m.DeletedByName,
		&m.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Create inserts a new message; seq is assigned by the database
func (r *MessageRepository) Create(ctx context.Context, message *models.Message) error {
	if message.Reactions == nil {
		message.Reactions = []models.Reaction{}
	}
	if message.Attachments == nil {
		message.Attachments = []models.Attachment{}
	}

	sql, args, err := psql.Insert("messages").
		Columns("id", "sender_id", "receiver_id", "sender_name", "sender_initials", "text",
			"created_at", "read", "replied_to", "reactions", "attachments").
		Values(message.ID, message.SenderID, message.ReceiverID, message.SenderName, message.SenderInitials,
			message.Text, message.CreatedAt, message.Read, message.RepliedTo, message.Reactions, message.Attachments).
		Suffix("RETURNING seq").
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&message.Seq); err != nil {
		return dberrors.Wrap(err, "error creating message")
	}
	return nil
}

// GetByID retrieves a message by its ID
func (r *MessageRepository) GetByID(ctx context.Context, id string) (*models.Message, error) {
	sql, args, err := psql.Select(messageColumns...).From("messages").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	message, err := scanMessage(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if dberrors.IsNoRows(err) {
			return nil, apperrors.ErrMessageNotFound
		}
		return nil, dberrors.Wrap(err, "error retrieving message")
	}
	return message, nil
}

func (r *MessageRepository) execOne(ctx context.Context, builder squirrel.UpdateBuilder, op string) error {
	sql, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return dberrors.Wrap(err, op)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrMessageNotFound
	}
	return nil
}

// UpdateText replaces the text and stamps updated_at
func (r *MessageRepository) UpdateText(ctx context.Context, id, text string, at time.Time) error {
	return r.execOne(ctx, psql.Update("messages").
		Set("text", text).
		Set("updated_at", at).
		Where(squirrel.Eq{"id": id}), "error updating message")
}

// SoftDelete flags the message deleted, text and attachments are kept
func (r *MessageRepository) SoftDelete(ctx context.Context, id, deletedBy, deletedByName string, at time.Time) error {
	return r.execOne(ctx, psql.Update("messages").
		Set("deleted", true).
		Set("deleted_by", deletedBy).
		Set("deleted_by_name", deletedByName).
		Set("deleted_at", at).
		Where(squirrel.Eq{"id": id}), "error deleting message")
}

// ToggleReaction applies the reaction toggle under a row lock and returns the new set
func (r *MessageRepository) ToggleReaction(ctx context.Context, id, userID, emoji string) ([]models.Reaction, bool, error) {
	var updated []models.Reaction
	var added bool

	err := db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		var current []models.Reaction
		err := tx.QueryRow(ctx, `SELECT reactions FROM messages WHERE id = $1 FOR UPDATE`, id).Scan(&current)
		if err != nil {
			if dberrors.IsNoRows(err) {
				return apperrors.ErrMessageNotFound
			}
			return dberrors.Wrap(err, "error locking message")
		}

		updated, added = models.ToggleReaction(current, userID, emoji)
		if _, err := tx.Exec(ctx, `UPDATE messages SET reactions = $1 WHERE id = $2`, updated, id); err != nil {
			return dberrors.Wrap(err, "error updating reactions")
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return updated, added, nil
}

// MarkRead flips every unread message from senderAliases to receiverAliases
// and returns the ids it changed.
func (r *MessageRepository) MarkRead(ctx context.Context, senderAliases, receiverAliases []string) ([]string, error) {
	sql, args, err := psql.Update("messages").
		Set("read", true).
		Where(squirrel.Eq{"sender_id": senderAliases}).
		Where(squirrel.Eq{"receiver_id": receiverAliases}).
		Where(squirrel.Eq{"read": false}).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, dberrors.Wrap(err, "error marking messages read")
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, dberrors.Wrap(err, "error marking messages read")
	}
	return ids, nil
}

// InboundIDs returns the ids of every message from senderAliases to receiverAliases
func (r *MessageRepository) InboundIDs(ctx context.Context, senderAliases, receiverAliases []string) ([]string, error) {
	sql, args, err := psql.Select("id").
		From("messages").
		Where(squirrel.Eq{"sender_id": senderAliases}).
		Where(squirrel.Eq{"receiver_id": receiverAliases}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, dberrors.Wrap(err, "error listing conversation message ids")
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, dberrors.Wrap(err, "error listing conversation message ids")
	}
	return ids, nil
}

// ListConversation returns the messages exchanged between the two alias sets,
// oldest first with insertion order breaking ties
func (r *MessageRepository) ListConversation(ctx context.Context, userAliases, adminAliases []string) ([]*models.Message, error) {
	sql, args, err := psql.Select(messageColumns...).
		From("messages").
		Where(squirrel.Or{
			squirrel.And{squirrel.Eq{"sender_id": userAliases}, squirrel.Eq{"receiver_id": adminAliases}},
			squirrel.And{squirrel.Eq{"sender_id": adminAliases}, squirrel.Eq{"receiver_id": userAliases}},
		}).
		OrderBy("created_at ASC", "seq ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, dberrors.Wrap(err, "error listing conversation")
	}
	defer rows.Close()

	messages := make([]*models.Message, 0)
	for rows.Next() {
		message, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning message: %w", err)
		}
		messages = append(messages, message)
	}
	if err := rows.Err(); err != nil {
		return nil, dberrors.Wrap(err, "error iterating conversation")
	}
	return messages, nil
}

// UnreadCounts groups the unread inbound messages of an inbox by sender, newest first
func (r *MessageRepository) UnreadCounts(ctx context.Context, receiverAliases []string) ([]UnreadCount, error) {
	sql, args, err := psql.Select("sender_id", "COUNT(*)", "MAX(created_at)").
		From("messages").
		Where(squirrel.Eq{"receiver_id": receiverAliases}).
		Where(squirrel.NotEq{"sender_id": receiverAliases}).
		Where(squirrel.Eq{"read": false}).
		GroupBy("sender_id").
		OrderBy("MAX(created_at) DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, dberrors.Wrap(err, "error counting unread messages")
	}
	defer rows.Close()

	var counts []UnreadCount
	for rows.Next() {
		var c UnreadCount
		if err := rows.Scan(&c.SenderID, &c.Count, &c.LatestMessageTime); err != nil {
			return nil, fmt.Errorf("error scanning unread count: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, dberrors.Wrap(err, "error iterating unread counts")
	}
	return counts, nil
}

// LatestByCounterpart returns the newest message time per conversation of the admin
func (r *MessageRepository) LatestByCounterpart(ctx context.Context, adminAliases []string) ([]LatestMessage, error) {
	sql, args, err := psql.Select().
		Column(squirrel.Expr("CASE WHEN sender_id = ANY(?) THEN receiver_id ELSE sender_id END AS counterpart", adminAliases)).
		Column("MAX(created_at)").
		From("messages").
		Where(squirrel.Or{
			squirrel.Eq{"sender_id": adminAliases},
			squirrel.Eq{"receiver_id": adminAliases},
		}).
		GroupBy("counterpart").
		OrderBy("MAX(created_at) DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, dberrors.Wrap(err, "error listing latest messages")
	}
	defer rows.Close()

	var latest []LatestMessage
	for rows.Next() {
		var l LatestMessage
		if err := rows.Scan(&l.CounterpartID, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning latest message: %w", err)
		}
		latest = append(latest, l)
	}
	if err := rows.Err(); err != nil {
		return nil, dberrors.Wrap(err, "error iterating latest messages")
	}
	return latest, nil
}
