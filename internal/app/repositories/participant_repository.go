package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/handbook/internal/app/models"
	"github.com/yigit/handbook/internal/pkg/apperrors"
	"github.com/yigit/handbook/internal/pkg/dberrors"
)

var userColumns = []string{
	"id", "email", "student_number", "password", "first_name", "last_name",
	"department", "year_level", "role", "profile_picture", "last_active", "created_at",
}

// admins carry no student fields, they are filled with literals so both tables scan alike
var adminColumns = []string{
	"id", "email", "'' AS student_number", "password", "first_name", "last_name",
	"'' AS department", "'' AS year_level", "'admin' AS role", "profile_picture", "last_active", "created_at",
}

// ParticipantRepository handles database operations for students and the admin
type ParticipantRepository struct {
	db *pgxpool.Pool
}

// NewParticipantRepository creates a new ParticipantRepository
func NewParticipantRepository(db *pgxpool.Pool) *ParticipantRepository {
	return &ParticipantRepository{db: db}
}

func scanParticipant(row pgx.Row) (*models.User, error) {
	var u models.User
	var role string
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.StudentNumber,
		&u.Password,
		&u.FirstName,
		&u.LastName,
		&u.Department,
		&u.YearLevel,
		&role,
		&u.ProfilePicture,
		&u.LastActive,
		&u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.Role = models.RoleType(role)
	return &u, nil
}

func (r *ParticipantRepository) findOne(ctx context.Context, builder squirrel.SelectBuilder) (*models.User, error) {
	sql, args, err := builder.Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	user, err := scanParticipant(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if dberrors.IsNoRows(err) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, dberrors.Wrap(err, "error retrieving participant")
	}
	return user, nil
}

// firstOf runs the lookups in order and returns the first match
func (r *ParticipantRepository) firstOf(ctx context.Context, builders ...squirrel.SelectBuilder) (*models.User, error) {
	for _, b := range builders {
		user, err := r.findOne(ctx, b)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, err
		}
	}
	return nil, apperrors.ErrUserNotFound
}

// FindCanonicalAdmin returns the oldest admin account, preferring the admins table
func (r *ParticipantRepository) FindCanonicalAdmin(ctx context.Context) (*models.User, error) {
	return r.firstOf(ctx,
		psql.Select(adminColumns...).From("admins").OrderBy("created_at ASC", "id ASC"),
		psql.Select(userColumns...).From("users").Where(squirrel.Eq{"role": string(models.RoleAdmin)}).OrderBy("created_at ASC", "id ASC"),
	)
}

// FindByID retrieves a participant by its ID
func (r *ParticipantRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.firstOf(ctx,
		psql.Select(adminColumns...).From("admins").Where(squirrel.Eq{"id": id}),
		psql.Select(userColumns...).From("users").Where(squirrel.Eq{"id": id}),
	)
}

// FindByEmail retrieves a participant by email, ignoring case
func (r *ParticipantRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.firstOf(ctx,
		psql.Select(adminColumns...).From("admins").Where("LOWER(email) = ?", email),
		psql.Select(userColumns...).From("users").Where("LOWER(email) = ?", email),
	)
}

// FindByStudentNumber retrieves a student by school identifier
func (r *ParticipantRepository) FindByStudentNumber(ctx context.Context, studentNumber string) (*models.User, error) {
	return r.findOne(ctx, psql.Select(userColumns...).From("users").
		Where(squirrel.And{
			squirrel.Eq{"student_number": studentNumber},
			squirrel.NotEq{"student_number": ""},
		}))
}

// TouchLastActive stamps last_active on the user matched by id, email or student number
func (r *ParticipantRepository) TouchLastActive(ctx context.Context, ref string, at time.Time) (int64, error) {
	sql, args, err := psql.Update("users").
		Set("last_active", at).
		Where(squirrel.Or{
			squirrel.Eq{"id": ref},
			squirrel.Expr("LOWER(email) = LOWER(?)", ref),
			squirrel.And{squirrel.Eq{"student_number": ref}, squirrel.NotEq{"student_number": ""}},
		}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("error building SQL: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return 0, dberrors.Wrap(err, "error updating last active")
	}
	return tag.RowsAffected(), nil
}

// ListNonAdmins returns every student ordered by first then last name
func (r *ParticipantRepository) ListNonAdmins(ctx context.Context) ([]*models.User, error) {
	sql, args, err := psql.Select(userColumns...).
		From("users").
		Where(squirrel.NotEq{"role": string(models.RoleAdmin)}).
		OrderBy("first_name ASC", "last_name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, dberrors.Wrap(err, "error listing users")
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanParticipant(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, dberrors.Wrap(err, "error iterating users")
	}
	return users, nil
}

// ListNonAdminIDs returns the ids of every student, the audience of an announcement
func (r *ParticipantRepository) ListNonAdminIDs(ctx context.Context) ([]string, error) {
	sql, args, err := psql.Select("id").
		From("users").
		Where(squirrel.NotEq{"role": string(models.RoleAdmin)}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, dberrors.Wrap(err, "error listing user ids")
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, dberrors.Wrap(err, "error collecting user ids")
	}
	return ids, nil
}

// CreateAdmin inserts an admin account
func (r *ParticipantRepository) CreateAdmin(ctx context.Context, admin *models.User) error {
	sql, args, err := psql.Insert("admins").
		Columns("id", "email", "password", "first_name", "last_name", "created_at").
		Values(admin.ID, strings.ToLower(admin.Email), admin.Password, admin.FirstName, admin.LastName, admin.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		if dberrors.IsDuplicateConstraintError(err, "idx_admins_email") {
			return apperrors.NewBadRequestError("admin email already exists")
		}
		return dberrors.Wrap(err, "error creating admin")
	}
	admin.Role = models.RoleAdmin
	return nil
}
