package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/estatehub/realtime/internal/models"
	"github.com/sirupsen/logrus"
)

// ChatPayload is the sendChatMessage socket payload. The message has already
// been stored through the REST path when it arrives here.
type ChatPayload struct {
	ID        string     `json:"_id,omitempty"`
	ListingID string     `json:"listingId"`
	BuyerID   string     `json:"buyerId"`
	SellerID  string     `json:"sellerId"`
	Message   string     `json:"message"`
	Sender    string     `json:"sender"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// Validate checks the ids and the sender role.
func (p ChatPayload) Validate() error {
	switch {
	case strings.TrimSpace(p.ListingID) == "":
		return fmt.Errorf("%w: missing listingId", ErrInvalidPayload)
	case strings.TrimSpace(p.BuyerID) == "":
		return fmt.Errorf("%w: missing buyerId", ErrInvalidPayload)
	case strings.TrimSpace(p.SellerID) == "":
		return fmt.Errorf("%w: missing sellerId", ErrInvalidPayload)
	case p.Sender != models.RoleBuyer && p.Sender != models.RoleSeller:
		return fmt.Errorf("%w: sender must be buyer or seller, got %q", ErrInvalidPayload, p.Sender)
	}
	return nil
}

// ChatDelivery is the receiveChatMessage payload. Sender is "me" or "other"
// from the receiving client's point of view; SenderRole keeps the stored role.
type ChatDelivery struct {
	ID         string    `json:"_id,omitempty"`
	ListingID  string    `json:"listingId"`
	BuyerID    string    `json:"buyerId"`
	SellerID   string    `json:"sellerId"`
	Message    string    `json:"message"`
	Sender     string    `json:"sender"`
	SenderRole string    `json:"senderRole"`
	CreatedAt  time.Time `json:"createdAt"`
}

// RelayResult tells which live copies were handed to the gateway.
type RelayResult struct {
	DeliveredToRecipient bool
	EchoedToSender       bool
}

// ChatRelay fans a stored chat message out to whichever participants are
// connected.
type ChatRelay struct {
	pub Publisher
	now func() time.Time
}

func NewChatRelay(pub Publisher) *ChatRelay {
	return &ChatRelay{pub: pub, now: time.Now}
}

// Relay pushes the message to the counterpart tagged "other" and to the
// sender's registered connection, unless that is originConnID, tagged "me".
// Offline participants are skipped; the stored message is the system of record.
func (r *ChatRelay) Relay(p ChatPayload, originConnID string) (RelayResult, error) {
	if err := p.Validate(); err != nil {
		return RelayResult{}, err
	}

	recipientID, senderID := p.SellerID, p.BuyerID
	if p.Sender == models.RoleSeller {
		recipientID, senderID = p.BuyerID, p.SellerID
	}

	createdAt := r.now()
	if p.CreatedAt != nil && !p.CreatedAt.IsZero() {
		createdAt = *p.CreatedAt
	}
	base := ChatDelivery{
		ID:         p.ID,
		ListingID:  p.ListingID,
		BuyerID:    p.BuyerID,
		SellerID:   p.SellerID,
		Message:    p.Message,
		SenderRole: p.Sender,
		CreatedAt:  createdAt,
	}

	toOther := base
	toOther.Sender = "other"
	toMe := base
	toMe.Sender = "me"

	var res RelayResult
	res.DeliveredToRecipient = r.pub.Publish(recipientID, EventReceiveChatMessage, toOther)
	res.EchoedToSender = r.pub.PublishExcept(senderID, EventReceiveChatMessage, toMe, originConnID)

	if !res.DeliveredToRecipient && !res.EchoedToSender {
		logrus.WithFields(logrus.Fields{
			"listingId": p.ListingID,
			"recipient": recipientID,
		}).Debug("Chat relay: no live participants")
	}
	return res, nil
}
