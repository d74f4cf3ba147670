package handlers

import (
	"context"
	"sort"
	"sync"

	"github.com/estatehub/realtime/internal/models"
	"github.com/estatehub/realtime/internal/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memNotifications is an in-memory services.NotificationStore.
type memNotifications struct {
	mu    sync.Mutex
	items []models.Notification
}

func (m *memNotifications) CreateNotification(_ context.Context, n *models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n.ID = primitive.NewObjectID()
	m.items = append(m.items, *n)
	return nil
}

func (m *memNotifications) InsertLikeOnce(ctx context.Context, n *models.Notification) (*models.Notification, bool, error) {
	q := repository.DedupQuery{Recipient: n.Recipient, Type: models.TypeLike, ListingID: n.Meta.ListingID}
	if n.Sender != nil {
		q.SenderID = &n.Sender.ID
	}
	if existing, _ := m.FindDuplicate(ctx, q); existing != nil {
		return existing, false, nil
	}
	_ = m.CreateNotification(ctx, n)
	return n, true, nil
}

func (m *memNotifications) FindDuplicate(_ context.Context, q repository.DedupQuery) (*models.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.items {
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
		found := n
		return &found, nil
	}
	return nil, nil
}

func (m *memNotifications) forUser(recipient primitive.ObjectID) []models.Notification {
	var out []models.Notification
	for _, n := range m.items {
		if n.Recipient == recipient {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *memNotifications) GetUserNotifications(_ context.Context, recipient primitive.ObjectID, skip, limit int64) ([]models.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.forUser(recipient)
	if skip >= int64(len(out)) {
		return []models.Notification{}, nil
	}
	out = out[skip:]
	if limit < int64(len(out)) {
		out = out[:limit]
	}
	return out, nil
}

func (m *memNotifications) CountUserNotifications(_ context.Context, recipient primitive.ObjectID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.forUser(recipient))), nil
}

func (m *memNotifications) MarkAsRead(_ context.Context, id, recipient primitive.ObjectID) (*models.Notification, error) {
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

func (m *memNotifications) MarkAllRead(_ context.Context, recipient primitive.ObjectID) (int64, error) {
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

func (m *memNotifications) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

type memBookings struct {
	mu       sync.Mutex
	bookings []models.Booking
}

func (m *memBookings) CreateBooking(_ context.Context, b *models.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b.ID = primitive.NewObjectID()
	b.Status = "pending"
	m.bookings = append(m.bookings, *b)
	return nil
}
