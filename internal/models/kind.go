package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Notification type tags as stored in meta.type.
const (
	TypeLike    = "like"
	TypeView    = "view"
	TypeBooking = "booking"
	TypeChat    = "chat"
	TypeInfo    = "info"
)

// Kind is the closed set of notification kinds. Each kind carries its own
// fields; the unexported method keeps the set closed to this package.
type Kind interface {
	Type() string
	meta() Meta
}

// LikeKind is raised when a buyer likes a listing. Deduplicated forever per
// (recipient, sender, listing).
type LikeKind struct {
	ListingID   primitive.ObjectID
	ListingName string
}

// ViewKind is raised when a buyer opens a listing. Deduplicated per calendar
// day per (recipient, sender, listing).
type ViewKind struct {
	ListingID   primitive.ObjectID
	ListingName string
}

// BookingInquiryKind is raised when a buyer sends an inquiry to an agent.
type BookingInquiryKind struct {
	BookingID   primitive.ObjectID
	ListingID   primitive.ObjectID
	ListingName string
	Action      string
}

// ChatAlertKind is raised for an incoming chat message.
type ChatAlertKind struct {
	ListingID primitive.ObjectID
	MessageID primitive.ObjectID
}

// InfoKind is a free-form notification with no dedup.
type InfoKind struct {
	Extra map[string]interface{}
}

func (LikeKind) Type() string           { return TypeLike }
func (ViewKind) Type() string           { return TypeView }
func (BookingInquiryKind) Type() string { return TypeBooking }
func (ChatAlertKind) Type() string      { return TypeChat }
func (InfoKind) Type() string           { return TypeInfo }

func (k LikeKind) meta() Meta {
	return Meta{Type: TypeLike, ListingID: objectIDPtr(k.ListingID), ListingName: k.ListingName}
}

func (k ViewKind) meta() Meta {
	return Meta{Type: TypeView, ListingID: objectIDPtr(k.ListingID), ListingName: k.ListingName}
}

func (k BookingInquiryKind) meta() Meta {
	return Meta{
		Type:        TypeBooking,
		ListingID:   objectIDPtr(k.ListingID),
		ListingName: k.ListingName,
		BookingID:   objectIDPtr(k.BookingID),
		Action:      k.Action,
	}
}

func (k ChatAlertKind) meta() Meta {
	return Meta{Type: TypeChat, ListingID: objectIDPtr(k.ListingID), MessageID: objectIDPtr(k.MessageID)}
}

func (k InfoKind) meta() Meta {
	return Meta{Type: TypeInfo, Extra: k.Extra}
}

// MetaOf returns the persisted meta for k. A nil kind is InfoKind.
func MetaOf(k Kind) Meta {
	if k == nil {
		k = InfoKind{}
	}
	return k.meta()
}

func objectIDPtr(id primitive.ObjectID) *primitive.ObjectID {
	if id.IsZero() {
		return nil
	}
	return &id
}
