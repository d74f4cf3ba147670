package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/estatehub/realtime/internal/metrics"
	"github.com/estatehub/realtime/internal/models"
	"github.com/estatehub/realtime/internal/repository"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const dropdownSize = 5

// NotificationStore persists notifications.
type NotificationStore interface {
	CreateNotification(ctx context.Context, notif *models.Notification) error
	InsertLikeOnce(ctx context.Context, notif *models.Notification) (*models.Notification, bool, error)
	FindDuplicate(ctx context.Context, q repository.DedupQuery) (*models.Notification, error)
	GetUserNotifications(ctx context.Context, recipient primitive.ObjectID, skip, limit int64) ([]models.Notification, error)
	CountUserNotifications(ctx context.Context, recipient primitive.ObjectID) (int64, error)
	MarkAsRead(ctx context.Context, id, recipient primitive.ObjectID) (*models.Notification, error)
	MarkAllRead(ctx context.Context, recipient primitive.ObjectID) (int64, error)
}

// UserLookup resolves display names.
type UserLookup interface {
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
}

// ListingLookup checks that a listing exists and resolves its name.
type ListingLookup interface {
	GetListingByID(ctx context.Context, id primitive.ObjectID) (*models.Listing, error)
}

// NotifyParams describes one notification to record. A nil Kind is InfoKind.
type NotifyParams struct {
	RecipientID primitive.ObjectID
	Title       string
	Body        string
	Sender      *models.Sender
	BookingID   *primitive.ObjectID
	Kind        models.Kind
}

// NotifyResult is the outcome of Notify. When Suppressed is true,
// Notification is the earlier record and nothing was delivered.
type NotifyResult struct {
	Notification *models.Notification
	Suppressed   bool
	Delivered    bool
}

// ListingEvent is the propertyLiked / propertyViewed socket payload.
type ListingEvent struct {
	OwnerID     string `json:"ownerId"`
	BuyerID     string `json:"buyerId"`
	BuyerName   string `json:"buyerName"`
	ListingID   string `json:"listingId"`
	ListingName string `json:"listingName"`
}

type NotificationService struct {
	store      NotificationStore
	dispatcher *Dispatcher
	users      UserLookup
	listings   ListingLookup
	now        func() time.Time
}

func NewNotificationService(store NotificationStore, dispatcher *Dispatcher, users UserLookup, listings ListingLookup) *NotificationService {
	return &NotificationService{
		store:      store,
		dispatcher: dispatcher,
		users:      users,
		listings:   listings,
		now:        time.Now,
	}
}

// WithClock replaces the server clock. The clock's location defines the
// calendar day used for view suppression.
func (s *NotificationService) WithClock(now func() time.Time) *NotificationService {
	s.now = now
	return s
}

// Notify records a notification unless it duplicates an earlier like (ever)
// or view (same day) from the same sender on the same listing, then tries to
// deliver it. Delivery never rolls back the stored record. A store failure is
// returned to the caller, who decides whether the primary action still
// succeeds.
func (s *NotificationService) Notify(ctx context.Context, p NotifyParams) (NotifyResult, error) {
	if p.RecipientID.IsZero() {
		return NotifyResult{}, fmt.Errorf("%w: missing recipient", ErrInvalidPayload)
	}
	kind := p.Kind
	if kind == nil {
		kind = models.InfoKind{}
	}
	now := s.now()

	existing, err := s.findDuplicate(ctx, p, kind, now)
	if err != nil {
		return NotifyResult{}, err
	}
	if existing != nil {
		metrics.NotificationsSuppressed.WithLabelValues(kind.Type()).Inc()
		logrus.WithFields(logrus.Fields{
			"recipient": p.RecipientID.Hex(),
			"type":      kind.Type(),
		}).Info("Duplicate notification blocked")
		return NotifyResult{Notification: existing, Suppressed: true}, nil
	}

	notif := &models.Notification{
		Recipient: p.RecipientID,
		Title:     p.Title,
		Body:      p.Body,
		Sender:    p.Sender,
		Booking:   p.BookingID,
		Meta:      models.MetaOf(kind),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, ok := kind.(models.LikeKind); ok {
		stored, created, err := s.store.InsertLikeOnce(ctx, notif)
		if err != nil {
			return NotifyResult{}, err
		}
		if !created {
			metrics.NotificationsSuppressed.WithLabelValues(kind.Type()).Inc()
			return NotifyResult{Notification: stored, Suppressed: true}, nil
		}
		notif = stored
	} else if err := s.store.CreateNotification(ctx, notif); err != nil {
		return NotifyResult{}, err
	}
	metrics.NotificationsCreated.WithLabelValues(kind.Type()).Inc()

	delivered := s.dispatcher.Deliver(p.RecipientID.Hex(), notif)
	return NotifyResult{Notification: notif, Delivered: delivered}, nil
}

func (s *NotificationService) findDuplicate(ctx context.Context, p NotifyParams, kind models.Kind, now time.Time) (*models.Notification, error) {
	q := repository.DedupQuery{Recipient: p.RecipientID, Type: kind.Type()}
	if p.Sender != nil {
		q.SenderID = &p.Sender.ID
	}

	switch k := kind.(type) {
	case models.LikeKind:
		q.ListingID = &k.ListingID
	case models.ViewKind:
		q.ListingID = &k.ListingID
		start := startOfDay(now)
		q.Since = &start
	default:
		return nil, nil
	}

	existing, err := s.store.FindDuplicate(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("duplicate lookup failed: %w", err)
	}
	return existing, nil
}

// ListingLiked records a like notification for the listing owner.
func (s *NotificationService) ListingLiked(ctx context.Context, ev ListingEvent) (NotifyResult, error) {
	return s.notifyListingEvent(ctx, ev, models.TypeLike)
}

// ListingViewed records a view notification for the listing owner.
func (s *NotificationService) ListingViewed(ctx context.Context, ev ListingEvent) (NotifyResult, error) {
	return s.notifyListingEvent(ctx, ev, models.TypeView)
}

func (s *NotificationService) notifyListingEvent(ctx context.Context, ev ListingEvent, typ string) (NotifyResult, error) {
	ownerID, err := primitive.ObjectIDFromHex(ev.OwnerID)
	if err != nil {
		return NotifyResult{}, fmt.Errorf("%w: ownerId %q", ErrInvalidPayload, ev.OwnerID)
	}
	buyerID, err := primitive.ObjectIDFromHex(ev.BuyerID)
	if err != nil {
		return NotifyResult{}, fmt.Errorf("%w: buyerId %q", ErrInvalidPayload, ev.BuyerID)
	}
	listingID, err := primitive.ObjectIDFromHex(ev.ListingID)
	if err != nil {
		return NotifyResult{}, fmt.Errorf("%w: listingId %q", ErrInvalidPayload, ev.ListingID)
	}
	if ownerID == buyerID {
		return NotifyResult{}, ErrSelfAction
	}

	listingName := strings.TrimSpace(ev.ListingName)
	if listingName == "" && s.listings != nil {
		listing, err := s.listings.GetListingByID(ctx, listingID)
		if errors.Is(err, repository.ErrNotFound) {
			return NotifyResult{}, fmt.Errorf("listing %s: %w", ev.ListingID, ErrNotFound)
		}
		if err != nil {
			return NotifyResult{}, err
		}
		listingName = listing.Name
	}
	if listingName == "" {
		listingName = "your property"
	}

	buyerName := strings.TrimSpace(ev.BuyerName)
	if buyerName == "" && s.users != nil {
		if user, err := s.users.GetUserByID(ctx, buyerID); err == nil {
			buyerName = user.Username
		}
	}
	if buyerName == "" {
		buyerName = "Someone"
	}

	p := NotifyParams{
		RecipientID: ownerID,
		Sender:      &models.Sender{ID: buyerID, Name: buyerName},
	}
	switch typ {
	case models.TypeLike:
		p.Title = "New like on your property"
		p.Body = fmt.Sprintf("%s liked %s", buyerName, listingName)
		p.Kind = models.LikeKind{ListingID: listingID, ListingName: listingName}
	default:
		p.Title = "Your property was viewed"
		p.Body = fmt.Sprintf("%s viewed %s", buyerName, listingName)
		p.Kind = models.ViewKind{ListingID: listingID, ListingName: listingName}
	}
	return s.Notify(ctx, p)
}

// Dropdown returns the newest notifications for the header menu.
func (s *NotificationService) Dropdown(ctx context.Context, userID primitive.ObjectID) ([]models.Notification, error) {
	return s.store.GetUserNotifications(ctx, userID, 0, dropdownSize)
}

// List returns one page of a user's notifications, newest first. Pages
// start at 1.
func (s *NotificationService) List(ctx context.Context, userID primitive.ObjectID, page, limit int64) (*models.NotificationPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	items, err := s.store.GetUserNotifications(ctx, userID, (page-1)*limit, limit)
	if err != nil {
		return nil, err
	}
	total, err := s.store.CountUserNotifications(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &models.NotificationPage{
		Notifications: items,
		Total:         total,
		Page:          page,
		Pages:         int64(math.Ceil(float64(total) / float64(limit))),
	}, nil
}

// MarkAsRead marks one of userID's notifications as read.
func (s *NotificationService) MarkAsRead(ctx context.Context, userID, notifID primitive.ObjectID) (*models.Notification, error) {
	notif, err := s.store.MarkAsRead(ctx, notifID, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	return notif, err
}

// MarkAllRead marks every unread notification of userID as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return s.store.MarkAllRead(ctx, userID)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
