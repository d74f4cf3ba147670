package services

import (
	"context"
	"sort"
	"sync"

	"github.com/estatehub/realtime/internal/models"
	"github.com/estatehub/realtime/internal/repository"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memNotificationStore mirrors the repository's filter semantics in memory.
type memNotificationStore struct {
	mu    sync.Mutex
	items []models.Notification
	err   error
}

func (m *memNotificationStore) CreateNotification(_ context.Context, notif *models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if notif.ID.IsZero() {
		notif.ID = primitive.NewObjectID()
	}
	m.items = append(m.items, *notif)
	return nil
}

func (m *memNotificationStore) InsertLikeOnce(ctx context.Context, notif *models.Notification) (*models.Notification, bool, error) {
	q := repository.DedupQuery{Recipient: notif.Recipient, Type: models.TypeLike, ListingID: notif.Meta.ListingID}
	if notif.Sender != nil {
		q.SenderID = &notif.Sender.ID
	}
	existing, err := m.FindDuplicate(ctx, q)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}
	if err := m.CreateNotification(ctx, notif); err != nil {
		return nil, false, err
	}
	return notif, true, nil
}

func (m *memNotificationStore) FindDuplicate(_ context.Context, q repository.DedupQuery) (*models.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.items {
		n := m.items[i]
		if n.Recipient != q.Recipient || n.Meta.Type != q.Type {
			continue
		}
		if q.SenderID != nil && (n.Sender == nil || n.Sender.ID != *q.SenderID) {
			continue
		}
		if q.ListingID != nil && (n.Meta.ListingID == nil || *n.Meta.ListingID != *q.ListingID) {
			continue
		}
		if q.Since != nil && n.CreatedAt.Before(*q.Since) {
			continue
		}
		return &n, nil
	}
	return nil, nil
}

func (m *memNotificationStore) GetUserNotifications(_ context.Context, recipient primitive.ObjectID, skip, limit int64) ([]models.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []models.Notification
	for _, n := range m.items {
		if n.Recipient == recipient {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if skip >= int64(len(out)) {
		return []models.Notification{}, nil
	}
	out = out[skip:]
	if limit > 0 && limit < int64(len(out)) {
		out = out[:limit]
	}
	return out, nil
}

func (m *memNotificationStore) CountUserNotifications(_ context.Context, recipient primitive.ObjectID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, item := range m.items {
		if item.Recipient == recipient {
			n++
		}
	}
	return n, nil
}

func (m *memNotificationStore) MarkAsRead(_ context.Context, id, recipient primitive.ObjectID) (*models.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		if m.items[i].ID == id && m.items[i].Recipient == recipient {
			m.items[i].IsRead = true
			n := m.items[i]
			return &n, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memNotificationStore) MarkAllRead(_ context.Context, recipient primitive.ObjectID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var changed int64
	for i := range m.items {
		if m.items[i].Recipient == recipient && !m.items[i].IsRead {
			m.items[i].IsRead = true
			changed++
		}
	}
	return changed, nil
}

func (m *memNotificationStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

type published struct {
	UserID  string
	Event   string
	Payload interface{}
}

// fakePublisher stands in for the gateway: online maps a user to the id of
// their registered connection.
type fakePublisher struct {
	mu     sync.Mutex
	online map[string]string
	sent   []published
}

func newFakePublisher(online map[string]string) *fakePublisher {
	if online == nil {
		online = map[string]string{}
	}
	return &fakePublisher{online: online}
}

func (f *fakePublisher) Publish(userID, event string, payload interface{}) bool {
	return f.PublishExcept(userID, event, payload, "")
}

func (f *fakePublisher) PublishExcept(userID, event string, payload interface{}, exceptConnID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	conn, ok := f.online[userID]
	if !ok || (exceptConnID != "" && conn == exceptConnID) {
		return false
	}
	f.sent = append(f.sent, published{UserID: userID, Event: event, Payload: payload})
	return true
}

func (f *fakePublisher) IsOnline(userID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.online[userID]
	return ok
}

func (f *fakePublisher) messages() []published {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]published(nil), f.sent...)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(userID, event string, payload interface{}) bool {
	args := m.Called(userID, event, payload)
	return args.Bool(0)
}

func (m *mockPublisher) PublishExcept(userID, event string, payload interface{}, exceptConnID string) bool {
	args := m.Called(userID, event, payload, exceptConnID)
	return args.Bool(0)
}

func (m *mockPublisher) IsOnline(userID string) bool {
	args := m.Called(userID)
	return args.Bool(0)
}

type fakeListings struct {
	listings map[primitive.ObjectID]models.Listing
}

func (f *fakeListings) GetListingByID(_ context.Context, id primitive.ObjectID) (*models.Listing, error) {
	l, ok := f.listings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &l, nil
}

type fakeUsers struct {
	users map[primitive.ObjectID]models.User
}

func (f *fakeUsers) GetUserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (f *fakeUsers) GetUsersByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	var out []models.User
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}
