package services

import (
	"context"
	"errors"
	"os"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/handbook/internal/app/models"
	"github.com/yigit/handbook/internal/app/models/dto"
	"github.com/yigit/handbook/internal/app/notifier"
	"github.com/yigit/handbook/internal/app/repositories"
	"github.com/yigit/handbook/internal/pkg/apperrors"
	"github.com/yigit/handbook/internal/pkg/cache"
)

func TestMain(m *testing.M) {
	dto.DisplayLocation = time.UTC
	os.Exit(m.Run())
}

// --- participants ---

type fakeParticipantRepo struct {
	mu         sync.Mutex
	admins     []*models.User
	users      []*models.User
	adminCalls int
	err        error
}

func (r *fakeParticipantRepo) all() []*models.User {
	return append(append([]*models.User{}, r.admins...), r.users...)
}

func (r *fakeParticipantRepo) find(match func(*models.User) bool) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	for _, u := range r.all() {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (r *fakeParticipantRepo) FindCanonicalAdmin(ctx context.Context) (*models.User, error) {
	r.mu.Lock()
	r.adminCalls++
	r.mu.Unlock()
	return r.find(func(u *models.User) bool { return u.IsAdmin() })
}

func (r *fakeParticipantRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.ID == id })
}

func (r *fakeParticipantRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return strings.EqualFold(u.Email, email) })
}

func (r *fakeParticipantRepo) FindByStudentNumber(ctx context.Context, n string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return n != "" && u.StudentNumber == n })
}

func (r *fakeParticipantRepo) TouchLastActive(ctx context.Context, ref string, at time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, u := range r.users {
		if u.ID == ref || strings.EqualFold(u.Email, ref) || (u.StudentNumber != "" && u.StudentNumber == ref) {
			t := at
			u.LastActive = &t
			n++
		}
	}
	return n, nil
}

func (r *fakeParticipantRepo) ListNonAdmins(ctx context.Context) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.User
	for _, u := range r.users {
		if !u.IsAdmin() {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeParticipantRepo) ListNonAdminIDs(ctx context.Context) ([]string, error) {
	users, err := r.ListNonAdmins(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids, nil
}

func (r *fakeParticipantRepo) CreateAdmin(ctx context.Context, admin *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.admins = append(r.admins, admin)
	return nil
}

// --- messages ---

type fakeMessageRepo struct {
	mu       sync.Mutex
	seq      int64
	messages map[string]*models.Message
	err      error
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{messages: make(map[string]*models.Message)}
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func (r *fakeMessageRepo) Create(ctx context.Context, m *models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.seq++
	m.Seq = r.seq
	cp := *m
	r.messages[m.ID] = &cp
	return nil
}

func (r *fakeMessageRepo) GetByID(ctx context.Context, id string) (*models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.messages[id]
	if !ok {
		return nil, apperrors.ErrMessageNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *fakeMessageRepo) UpdateText(ctx context.Context, id, text string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.messages[id]
	if !ok {
		return apperrors.ErrMessageNotFound
	}
	m.Text = text
	m.UpdatedAt = &at
	return nil
}

func (r *fakeMessageRepo) SoftDelete(ctx context.Context, id, by, name string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.messages[id]
	if !ok {
		return apperrors.ErrMessageNotFound
	}
	m.Deleted = true
	m.DeletedBy = &by
	m.DeletedByName = &name
	m.DeletedAt = &at
	return nil
}

func (r *fakeMessageRepo) ToggleReaction(ctx context.Context, id, userID, emoji string) ([]models.Reaction, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.messages[id]
	if !ok {
		return nil, false, apperrors.ErrMessageNotFound
	}
	reactions, added := models.ToggleReaction(m.Reactions, userID, emoji)
	m.Reactions = reactions
	return reactions, added, nil
}

func (r *fakeMessageRepo) MarkRead(ctx context.Context, senders, receivers []string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []string
	for _, m := range r.messages {
		if !m.Read && contains(senders, m.SenderID) && contains(receivers, m.ReceiverID) {
			m.Read = true
			ids = append(ids, m.ID)
		}
	}
	return ids, nil
}

func (r *fakeMessageRepo) InboundIDs(ctx context.Context, senders, receivers []string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []string
	for _, m := range r.messages {
		if contains(senders, m.SenderID) && contains(receivers, m.ReceiverID) {
			ids = append(ids, m.ID)
		}
	}
	return ids, nil
}

func (r *fakeMessageRepo) ListConversation(ctx context.Context, users, admins []string) ([]*models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Message
	for _, m := range r.messages {
		if (contains(users, m.SenderID) && contains(admins, m.ReceiverID)) ||
			(contains(admins, m.SenderID) && contains(users, m.ReceiverID)) {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Seq < out[j].Seq
	})
	return out, nil
}

func (r *fakeMessageRepo) UnreadCounts(ctx context.Context, receivers []string) ([]repositories.UnreadCount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := map[string]*repositories.UnreadCount{}
	for _, m := range r.messages {
		if m.Read || !contains(receivers, m.ReceiverID) {
			continue
		}
		c, ok := counts[m.SenderID]
		if !ok {
			c = &repositories.UnreadCount{SenderID: m.SenderID}
			counts[m.SenderID] = c
		}
		c.Count++
		if m.CreatedAt.After(c.LatestMessageTime) {
			c.LatestMessageTime = m.CreatedAt
		}
	}
	out := make([]repositories.UnreadCount, 0, len(counts))
	for _, c := range counts {
		out = append(out, *c)
	}
	return out, nil
}

func (r *fakeMessageRepo) LatestByCounterpart(ctx context.Context, admins []string) ([]repositories.LatestMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	latest := map[string]time.Time{}
	for _, m := range r.messages {
		var counterpart string
		switch {
		case contains(admins, m.SenderID):
			counterpart = m.ReceiverID
		case contains(admins, m.ReceiverID):
			counterpart = m.SenderID
		default:
			continue
		}
		if m.CreatedAt.After(latest[counterpart]) {
			latest[counterpart] = m.CreatedAt
		}
	}
	out := make([]repositories.LatestMessage, 0, len(latest))
	for id, at := range latest {
		out = append(out, repositories.LatestMessage{CounterpartID: id, CreatedAt: at})
	}
	return out, nil
}

// --- notifications ---

type fakeNotificationRepo struct {
	mu       sync.Mutex
	seq      int64
	items    []*models.Notification
	batches  int
	batchErr error

	// failBatch makes the CreateBatch call with that 1-based number fail once
	failBatch    int
	failBatchErr error
}

func (r *fakeNotificationRepo) Create(ctx context.Context, n *models.Notification) error {
	_, err := r.CreateBatch(ctx, []*models.Notification{n})
	return err
}

func (r *fakeNotificationRepo) CreateBatch(ctx context.Context, ns []*models.Notification) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.batchErr != nil {
		return nil, r.batchErr
	}
	r.batches++
	if r.failBatch > 0 && r.batches == r.failBatch {
		r.failBatch = 0
		return nil, r.failBatchErr
	}

	existing := make(map[string]struct{}, len(r.items))
	for _, n := range r.items {
		existing[n.ID] = struct{}{}
	}
	var ids []string
	for _, n := range ns {
		if _, ok := existing[n.ID]; ok {
			continue
		}
		r.seq++
		cp := *n
		cp.Seq = r.seq
		r.items = append(r.items, &cp)
		existing[n.ID] = struct{}{}
		ids = append(ids, n.ID)
	}
	return ids, nil
}

func (r *fakeNotificationRepo) ListByRecipients(ctx context.Context, aliases []string) ([]*models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Notification
	for _, n := range r.items {
		if contains(aliases, n.UserID) {
			cp := *n
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Seq > out[j].Seq
	})
	return out, nil
}

func (r *fakeNotificationRepo) MarkRead(ctx context.Context, aliases, ids []string, at time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, item := range r.items {
		if item.Read || !contains(aliases, item.UserID) {
			continue
		}
		if len(ids) > 0 && !contains(ids, item.ID) {
			continue
		}
		item.Read = true
		item.ReadAt = &at
		n++
	}
	return n, nil
}

func (r *fakeNotificationRepo) MarkReadByRelated(ctx context.Context, aliases []string, t models.NotificationType, related []string, at time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, item := range r.items {
		if item.Read || item.Type != t || item.RelatedID == nil || !contains(aliases, item.UserID) || !contains(related, *item.RelatedID) {
			continue
		}
		item.Read = true
		item.ReadAt = &at
		n++
	}
	return n, nil
}

func (r *fakeNotificationRepo) DeleteByRecipients(ctx context.Context, aliases []string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.items[:0]
	var n int64
	for _, item := range r.items {
		if contains(aliases, item.UserID) {
			n++
			continue
		}
		kept = append(kept, item)
	}
	r.items = kept
	return n, nil
}

func (r *fakeNotificationRepo) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.items[:0]
	var n int64
	for _, item := range r.items {
		if item.Read && item.CreatedAt.Before(cutoff) {
			n++
			continue
		}
		kept = append(kept, item)
	}
	r.items = kept
	return n, nil
}

func (r *fakeNotificationRepo) forRecipient(key string) []*models.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Notification
	for _, n := range r.items {
		if n.UserID == key {
			out = append(out, n)
		}
	}
	return out
}

// --- announcements ---

type fakeAnnouncementRepo struct {
	mu    sync.Mutex
	items map[string]*models.Announcement
}

func (r *fakeAnnouncementRepo) List(ctx context.Context, limit uint64, ascending bool) ([]*models.Announcement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Announcement, 0, len(r.items))
	for _, a := range r.items {
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if ascending {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if uint64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeAnnouncementRepo) GetByID(ctx context.Context, id string) (*models.Announcement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.items[id]
	if !ok {
		return nil, apperrors.ErrAnnouncementNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *fakeAnnouncementRepo) CreateBatch(ctx context.Context, items []*models.Announcement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range items {
		cp := *a
		r.items[a.ID] = &cp
	}
	return nil
}

func (r *fakeAnnouncementRepo) Update(ctx context.Context, a *models.Announcement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[a.ID]; !ok {
		return apperrors.ErrAnnouncementNotFound
	}
	cp := *a
	r.items[a.ID] = &cp
	return nil
}

func (r *fakeAnnouncementRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return apperrors.ErrAnnouncementNotFound
	}
	delete(r.items, id)
	return nil
}

// --- dispatcher and clock ---

// syncDispatcher runs the handler inline so tests can assert on its effects.
// With hold set, events wait until deliver is called.
type syncDispatcher struct {
	mu      sync.Mutex
	handler notifier.Handler
	events  []notifier.Event
	errs    []error
	hold    bool
	held    []notifier.Event
}

func (d *syncDispatcher) Dispatch(_ context.Context, e notifier.Event) {
	d.mu.Lock()
	d.events = append(d.events, e)
	if d.hold {
		d.held = append(d.held, e)
		d.mu.Unlock()
		return
	}
	d.mu.Unlock()
	d.run(e)
}

func (d *syncDispatcher) run(e notifier.Event) {
	if d.handler == nil {
		return
	}
	if err := d.handler.Handle(context.Background(), e); err != nil {
		d.mu.Lock()
		d.errs = append(d.errs, err)
		d.mu.Unlock()
	}
}

// deliver runs the held events in dispatch order
func (d *syncDispatcher) deliver() {
	d.mu.Lock()
	held := d.held
	d.held, d.hold = nil, false
	d.mu.Unlock()
	for _, e := range held {
		d.run(e)
	}
}

func (d *syncDispatcher) Close() {}

type tickClock struct {
	mu sync.Mutex
	t  time.Time
}

// Now returns a strictly increasing time, one second per call
func (c *tickClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

// --- fixture ---

const (
	adminID   = "admin-1"
	studentS  = "stu-1"
	studentT  = "stu-2"
	emailS    = "ana.cruz@school.edu"
	studentNo = "2021-00123"
)

var errStoreDown = apperrors.NewUnavailableError("database unavailable", errors.New("dial tcp: connection refused"))

type testEnv struct {
	participants  *fakeParticipantRepo
	messagesRepo  *fakeMessageRepo
	notifRepo     *fakeNotificationRepo
	announceRepo  *fakeAnnouncementRepo
	identity      IdentityService
	notifications NotificationService
	messages      MessageService
	conversations ConversationService
	presence      PresenceService
	announcements AnnouncementService
	dispatcher    *syncDispatcher
	clock         *tickClock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	picture := "https://cdn.example/admin.png"
	participants := &fakeParticipantRepo{
		admins: []*models.User{{
			ID: adminID, Email: "registrar@school.edu", FirstName: "Maria", LastName: "Santos",
			Role: models.RoleAdmin, ProfilePicture: &picture,
		}},
		users: []*models.User{
			{ID: studentS, Email: emailS, StudentNumber: studentNo, FirstName: "Ana", LastName: "Cruz", Role: models.RoleUser},
			{ID: studentT, Email: "ben.reyes@school.edu", StudentNumber: "2021-00456", FirstName: "Ben", LastName: "Reyes", Role: models.RoleUser},
		},
	}

	env := &testEnv{
		participants: participants,
		messagesRepo: newFakeMessageRepo(),
		notifRepo:    &fakeNotificationRepo{},
		announceRepo: &fakeAnnouncementRepo{items: map[string]*models.Announcement{}},
		dispatcher:   &syncDispatcher{},
		clock:        &tickClock{t: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)},
	}

	logger := zerolog.Nop()
	adminCache := cache.NewTTLCache[AdminCacheEntry](cache.NewMemoryCache(), "handbook:admin", time.Minute)
	env.identity = NewIdentityService(participants, adminCache, logger)

	notifications := NewNotificationService(env.notifRepo, env.identity, logger).(*notificationServiceImpl)
	notifications.now = env.clock.Now
	env.notifications = notifications

	env.dispatcher.handler = NewNotificationEventHandler(
		env.messagesRepo, env.announceRepo, participants, env.identity, env.notifications, logger)

	messages := NewMessageService(env.messagesRepo, env.identity, env.notifications, env.dispatcher, logger).(*messageServiceImpl)
	messages.now = env.clock.Now
	env.messages = messages

	env.conversations = NewConversationService(env.messages, env.identity, participants, logger)

	presence := NewPresenceService(participants, logger).(*presenceServiceImpl)
	presence.now = env.clock.Now
	env.presence = presence

	announcements := NewAnnouncementService(env.announceRepo, env.dispatcher, logger).(*announcementServiceImpl)
	announcements.now = env.clock.Now
	env.announcements = announcements

	return env
}
