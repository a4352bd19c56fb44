package services

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/handbook/internal/app/models"
	"github.com/yigit/handbook/internal/app/repositories"
	"github.com/yigit/handbook/internal/pkg/apperrors"
	"github.com/yigit/handbook/internal/pkg/cache"
)

// Identity is a resolved participant reference. Key is the canonical form:
// the admin's real id (or the sentinel when no admin exists) for the admin,
// the user id for a student, and the raw reference when nothing matched.
type Identity struct {
	Ref         string
	Key         string
	IsAdmin     bool
	Participant *models.User
}

// Resolved reports whether the reference matched a stored participant
// or is the admin sentinel
func (i Identity) Resolved() bool {
	return i.Participant != nil || i.IsAdmin
}

// DisplayName is the name used in notification descriptions
func (i Identity) DisplayName(fallback string) string {
	if i.IsAdmin {
		return "Admin"
	}
	if name := i.Participant.FullName(); name != "" {
		return name
	}
	return fallback
}

// AdminCacheEntry is the cached result of the canonical admin lookup.
// Found=false caches the absence of an admin as well.
type AdminCacheEntry struct {
	Found bool         `json:"found"`
	Admin *models.User `json:"admin,omitempty"`
}

// IdentityService resolves participant references to canonical identities
type IdentityService interface {
	Resolve(ctx context.Context, ref string) (Identity, error)
	CanonicalAdmin(ctx context.Context) (*models.User, error)
	AdminKey(ctx context.Context) (string, error)
	AdminAliases(ctx context.Context) ([]string, error)
	Aliases(ctx context.Context, ref string) ([]string, error)
	Same(ctx context.Context, a, b string) (bool, error)
	InvalidateAdmin(ctx context.Context)
}

type identityServiceImpl struct {
	participantRepo repositories.IParticipantRepository
	adminCache      *cache.TTLCache[AdminCacheEntry]
	logger          zerolog.Logger
}

// NewIdentityService creates a new IdentityService. adminCache may be nil,
// in which case every lookup goes to the store.
func NewIdentityService(
	participantRepo repositories.IParticipantRepository,
	adminCache *cache.TTLCache[AdminCacheEntry],
	logger zerolog.Logger,
) IdentityService {
	return &identityServiceImpl{
		participantRepo: participantRepo,
		adminCache:      adminCache,
		logger:          logger,
	}
}

func isSentinel(ref string) bool {
	return strings.EqualFold(strings.TrimSpace(ref), models.AdminSentinel)
}

// CanonicalAdmin returns the single admin record, nil when none is stored
func (s *identityServiceImpl) CanonicalAdmin(ctx context.Context) (*models.User, error) {
	if s.adminCache != nil {
		entry, ok, err := s.adminCache.Get(ctx)
		if err != nil {
			s.logger.Warn().Err(err).Msg("Admin cache unavailable, reading from store")
		} else if ok {
			return entry.Admin, nil
		}
	}

	admin, err := s.participantRepo.FindCanonicalAdmin(ctx)
	if err != nil && !errors.Is(err, apperrors.ErrUserNotFound) {
		return nil, err
	}
	if err != nil {
		admin = nil
	}

	if s.adminCache != nil {
		if err := s.adminCache.Set(ctx, AdminCacheEntry{Found: admin != nil, Admin: admin}); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to cache canonical admin")
		}
	}
	return admin, nil
}

// AdminKey is the canonical key of the admin side
func (s *identityServiceImpl) AdminKey(ctx context.Context) (string, error) {
	admin, err := s.CanonicalAdmin(ctx)
	if err != nil {
		return "", err
	}
	if admin == nil {
		return models.AdminSentinel, nil
	}
	return admin.ID, nil
}

// AdminAliases lists the ids admin-side rows may carry
func (s *identityServiceImpl) AdminAliases(ctx context.Context) ([]string, error) {
	key, err := s.AdminKey(ctx)
	if err != nil {
		return nil, err
	}
	return uniqueNonEmpty(key, models.AdminSentinel), nil
}

// Resolve maps ref to its canonical identity. An unresolved reference is not
// an error; the identity keeps ref as its key.
func (s *identityServiceImpl) Resolve(ctx context.Context, ref string) (Identity, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Identity{}, nil
	}

	if isSentinel(ref) {
		admin, err := s.CanonicalAdmin(ctx)
		if err != nil {
			return Identity{}, err
		}
		key := models.AdminSentinel
		if admin != nil {
			key = admin.ID
		}
		return Identity{Ref: ref, Key: key, IsAdmin: true, Participant: admin}, nil
	}

	participant, err := s.lookup(ctx, ref)
	if err != nil {
		return Identity{}, err
	}
	if participant == nil {
		return Identity{Ref: ref, Key: ref}, nil
	}

	if participant.IsAdmin() {
		key, err := s.AdminKey(ctx)
		if err != nil {
			return Identity{}, err
		}
		return Identity{Ref: ref, Key: key, IsAdmin: true, Participant: participant}, nil
	}
	return Identity{Ref: ref, Key: participant.ID, Participant: participant}, nil
}

// lookup tries the id, then the email, then the student number
func (s *identityServiceImpl) lookup(ctx context.Context, ref string) (*models.User, error) {
	finders := []func(context.Context, string) (*models.User, error){
		s.participantRepo.FindByID,
		s.participantRepo.FindByEmail,
		s.participantRepo.FindByStudentNumber,
	}
	for _, find := range finders {
		user, err := find(ctx, ref)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, err
		}
	}
	return nil, nil
}

// Aliases lists every stored form a participant may appear under
func (s *identityServiceImpl) Aliases(ctx context.Context, ref string) ([]string, error) {
	id, err := s.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	if id.IsAdmin {
		aliases, err := s.AdminAliases(ctx)
		if err != nil {
			return nil, err
		}
		return uniqueNonEmpty(append(aliases, id.Ref)...), nil
	}
	if id.Participant == nil {
		return uniqueNonEmpty(id.Ref), nil
	}
	p := id.Participant
	return uniqueNonEmpty(id.Ref, id.Key, p.ID, p.Email, p.StudentNumber), nil
}

// Same compares two references by canonical key
func (s *identityServiceImpl) Same(ctx context.Context, a, b string) (bool, error) {
	ia, err := s.Resolve(ctx, a)
	if err != nil {
		return false, err
	}
	ib, err := s.Resolve(ctx, b)
	if err != nil {
		return false, err
	}
	return ia.Key != "" && ia.Key == ib.Key, nil
}

// InvalidateAdmin forgets the cached canonical admin
func (s *identityServiceImpl) InvalidateAdmin(ctx context.Context) {
	if s.adminCache == nil {
		return
	}
	if err := s.adminCache.Invalidate(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to invalidate admin cache")
	}
}

func uniqueNonEmpty(values ...string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
