package handlers

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/estatehub/realtime/internal/gateway"
	"github.com/estatehub/realtime/internal/services"
	"github.com/sirupsen/logrus"
)

// EventRouter is the part of the gateway that accepts event handlers.
type EventRouter interface {
	On(event string, fn gateway.HandlerFunc)
}

// SocketHandler routes client socket events to the services.
type SocketHandler struct {
	Relay         *services.ChatRelay
	Notifications *services.NotificationService
}

func NewSocketHandler(relay *services.ChatRelay, notifications *services.NotificationService) *SocketHandler {
	return &SocketHandler{Relay: relay, Notifications: notifications}
}

// Register installs the event handlers. Call it before the gateway starts.
func (h *SocketHandler) Register(router EventRouter) {
	router.On(services.EventSendChatMessage, h.onSendChatMessage)
	router.On(services.EventPropertyLiked, h.onPropertyLiked)
	router.On(services.EventPropertyViewed, h.onPropertyViewed)
}

func (h *SocketHandler) onSendChatMessage(_ context.Context, c *gateway.Conn, data []byte) {
	var p services.ChatPayload
	if err := json.Unmarshal(data, &p); err != nil {
		logrus.WithError(err).WithField("conn", c.ID()).Warn("Malformed sendChatMessage payload")
		return
	}

	res, err := h.Relay.Relay(p, c.ID())
	if err != nil {
		logrus.WithError(err).WithField("conn", c.ID()).Warn("Chat message not relayed")
		return
	}
	logrus.WithFields(logrus.Fields{
		"listing":   p.ListingID,
		"recipient": res.DeliveredToRecipient,
		"echo":      res.EchoedToSender,
	}).Debug("Chat message relayed")
}

func (h *SocketHandler) onPropertyLiked(ctx context.Context, c *gateway.Conn, data []byte) {
	h.listingEvent(ctx, c, data, services.EventPropertyLiked, h.Notifications.ListingLiked)
}

func (h *SocketHandler) onPropertyViewed(ctx context.Context, c *gateway.Conn, data []byte) {
	h.listingEvent(ctx, c, data, services.EventPropertyViewed, h.Notifications.ListingViewed)
}

func (h *SocketHandler) listingEvent(
	ctx context.Context,
	c *gateway.Conn,
	data []byte,
	event string,
	notify func(context.Context, services.ListingEvent) (services.NotifyResult, error),
) {
	log := logrus.WithFields(logrus.Fields{"event": event, "conn": c.ID()})

	var ev services.ListingEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		log.WithError(err).Warn("Malformed listing event payload")
		return
	}

	res, err := notify(ctx, ev)
	switch {
	case errors.Is(err, services.ErrSelfAction):
		log.Debug("Owner acted on own listing")
	case err != nil:
		log.WithError(err).Error("Listing notification failed")
	case res.Suppressed:
		log.Debug("Listing notification suppressed")
	default:
		log.WithField("delivered", res.Delivered).Info("Listing notification recorded")
	}
}
