package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/estatehub/realtime/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ChatStore persists chat messages.
type ChatStore interface {
	SendMessage(ctx context.Context, msg *models.ChatMessage) (*models.ChatMessage, error)
	GetUserMessages(ctx context.Context, userID primitive.ObjectID) ([]models.ChatMessage, error)
	GetThread(ctx context.Context, listingID, userID, otherID primitive.ObjectID) ([]models.ChatMessage, error)
}

// SendMessageRequest is the body of POST /api/message/send.
type SendMessageRequest struct {
	ListingID string `json:"listingId"`
	BuyerID   string `json:"buyerId"`
	SellerID  string `json:"sellerId"`
	Message   string `json:"message"`
	Sender    string `json:"sender"`
}

type ChatService struct {
	Repo  ChatStore
	users UserLookup
	pub   Publisher
}

func NewChatService(repo ChatStore, users UserLookup, pub Publisher) *ChatService {
	return &ChatService{Repo: repo, users: users, pub: pub}
}

// SendMessage stores a message. Live fan-out happens separately through the
// socket relay.
func (s *ChatService) SendMessage(ctx context.Context, req SendMessageRequest) (*models.ChatMessage, error) {
	payload := ChatPayload{
		ListingID: req.ListingID,
		BuyerID:   req.BuyerID,
		SellerID:  req.SellerID,
		Message:   req.Message,
		Sender:    req.Sender,
	}
	if err := payload.Validate(); err != nil {
		return nil, err
	}
	text := strings.TrimSpace(req.Message)
	if text == "" {
		return nil, fmt.Errorf("%w: empty message", ErrInvalidPayload)
	}

	ids, err := parseObjectIDs(req.ListingID, req.BuyerID, req.SellerID)
	if err != nil {
		return nil, err
	}

	return s.Repo.SendMessage(ctx, &models.ChatMessage{
		ListingID: ids[0],
		BuyerID:   ids[1],
		SellerID:  ids[2],
		Message:   text,
		Sender:    req.Sender,
	})
}

// Conversations derives userID's conversation list: one entry per
// (listing, counterpart) with the latest message, newest first.
func (s *ChatService) Conversations(ctx context.Context, userID primitive.ObjectID) ([]models.Conversation, error) {
	messages, err := s.Repo.GetUserMessages(ctx, userID)
	if err != nil {
		return nil, err
	}

	convos := make(map[string]*models.Conversation)
	var others []primitive.ObjectID
	seen := make(map[primitive.ObjectID]bool)

	for _, msg := range messages {
		other := msg.SellerID
		if msg.SellerID == userID {
			other = msg.BuyerID
		}

		key := msg.ListingID.Hex() + "-" + other.Hex()
		c, ok := convos[key]
		if !ok {
			convos[key] = &models.Conversation{
				ListingID:   msg.ListingID.Hex(),
				BuyerID:     msg.BuyerID.Hex(),
				SellerID:    msg.SellerID.Hex(),
				OtherUserID: other.Hex(),
				LastMessage: msg.Message,
				Time:        msg.CreatedAt,
			}
			if !seen[other] {
				seen[other] = true
				others = append(others, other)
			}
			continue
		}
		if msg.CreatedAt.After(c.Time) {
			c.LastMessage = msg.Message
			c.Time = msg.CreatedAt
		}
	}

	names := make(map[string]models.User)
	if s.users != nil && len(others) > 0 {
		users, err := s.users.GetUsersByIDs(ctx, others)
		if err != nil {
			return nil, err
		}
		for _, u := range users {
			names[u.ID.Hex()] = u
		}
	}

	result := make([]models.Conversation, 0, len(convos))
	for _, c := range convos {
		if u, ok := names[c.OtherUserID]; ok && u.Username != "" {
			c.OtherUserName = u.Username
			c.OtherUserAvatar = u.Avatar
		} else {
			c.OtherUserName = "Unknown User"
		}
		if s.pub != nil {
			c.Online = s.pub.IsOnline(c.OtherUserID)
		}
		result = append(result, *c)
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Time.Equal(result[j].Time) {
			return result[i].ListingID+result[i].OtherUserID < result[j].ListingID+result[j].OtherUserID
		}
		return result[i].Time.After(result[j].Time)
	})
	return result, nil
}

// Thread returns the messages between userID and otherID about one listing,
// oldest first.
func (s *ChatService) Thread(ctx context.Context, listingID, userID, otherID string) ([]models.ChatMessage, error) {
	ids, err := parseObjectIDs(listingID, userID, otherID)
	if err != nil {
		return nil, err
	}
	return s.Repo.GetThread(ctx, ids[0], ids[1], ids[2])
}

func parseObjectIDs(hexes ...string) ([]primitive.ObjectID, error) {
	ids := make([]primitive.ObjectID, len(hexes))
	for i, h := range hexes {
		id, err := primitive.ObjectIDFromHex(h)
		if err != nil {
			return nil, fmt.Errorf("%w: bad id %q", ErrInvalidPayload, h)
		}
		ids[i] = id
	}
	return ids, nil
}
