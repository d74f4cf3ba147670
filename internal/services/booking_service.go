package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/estatehub/realtime/internal/models"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const inquiryPreviewLen = 100

// BookingStore persists booking inquiries.
type BookingStore interface {
	CreateBooking(ctx context.Context, booking *models.Booking) error
}

// BookingRequest is the body of POST /api/booking/create.
type BookingRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Message     string `json:"message"`
	Action      string `json:"action"`
	AgentID     string `json:"agentId"`
	BuyerID     string `json:"buyerId"`
	PropertyID  string `json:"propertyId"`
	ListingName string `json:"listingName"`
}

// InquiryAlert is the newInquiry payload pushed to the agent.
type InquiryAlert struct {
	ID          primitive.ObjectID `json:"_id"`
	BuyerName   string             `json:"buyerName"`
	BuyerEmail  string             `json:"buyerEmail"`
	ListingName string             `json:"listingName"`
	PropertyID  string             `json:"propertyId"`
	Message     string             `json:"message"`
	Action      string             `json:"action"`
	Timestamp   string             `json:"timestamp"`
}

type BookingService struct {
	store         BookingStore
	pub           Publisher
	notifications *NotificationService
	now           func() time.Time
}

func NewBookingService(store BookingStore, pub Publisher, notifications *NotificationService) *BookingService {
	return &BookingService{store: store, pub: pub, notifications: notifications, now: time.Now}
}

// CreateBooking stores the inquiry, then alerts the agent. Alert and
// notification failures are logged and never fail the booking.
func (s *BookingService) CreateBooking(ctx context.Context, req BookingRequest) (*models.Booking, error) {
	if req.Name == "" || req.Email == "" || req.Message == "" || req.Action == "" ||
		req.AgentID == "" || req.BuyerID == "" || req.PropertyID == "" {
		return nil, fmt.Errorf("%w: all fields are required including propertyId", ErrInvalidPayload)
	}
	action := strings.ToLower(req.Action)
	if !models.BookingActions[action] {
		return nil, fmt.Errorf("%w: unknown action %q", ErrInvalidPayload, req.Action)
	}
	ids, err := parseObjectIDs(req.AgentID, req.BuyerID, req.PropertyID)
	if err != nil {
		return nil, err
	}

	booking := &models.Booking{
		AgentID:    ids[0],
		BuyerID:    ids[1],
		PropertyID: ids[2],
		Name:       req.Name,
		Email:      req.Email,
		Message:    req.Message,
		Action:     action,
	}
	if err := s.store.CreateBooking(ctx, booking); err != nil {
		return nil, err
	}

	listingName := req.ListingName
	if listingName == "" {
		listingName = "a property"
	}

	alert := InquiryAlert{
		ID:          booking.ID,
		BuyerName:   req.Name,
		BuyerEmail:  req.Email,
		ListingName: listingName,
		PropertyID:  req.PropertyID,
		Message:     preview(req.Message, inquiryPreviewLen),
		Action:      capitalize(action),
		Timestamp:   s.now().UTC().Format(time.RFC3339),
	}
	if s.pub.Publish(req.AgentID, EventNewInquiry, alert) {
		logrus.WithField("agentId", req.AgentID).Info("Real-time inquiry sent to agent")
	}

	if s.notifications != nil {
		_, err := s.notifications.Notify(ctx, NotifyParams{
			RecipientID: booking.AgentID,
			Title:       "New property inquiry",
			Body:        fmt.Sprintf("%s wants to %s %s", req.Name, action, listingName),
			Sender:      &models.Sender{ID: booking.BuyerID, Name: req.Name, Email: req.Email},
			BookingID:   &booking.ID,
			Kind: models.BookingInquiryKind{
				BookingID:   booking.ID,
				ListingID:   booking.PropertyID,
				ListingName: listingName,
				Action:      action,
			},
		})
		if err != nil {
			logrus.WithError(err).Warn("Inquiry notification failed (non-critical)")
		}
	}

	return booking, nil
}

func preview(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}
