package services

import (
	"github.com/estatehub/realtime/internal/models"
	"github.com/sirupsen/logrus"
)

// Dispatcher pushes persisted notifications to their recipient.
type Dispatcher struct {
	pub Publisher
}

func NewDispatcher(pub Publisher) *Dispatcher {
	return &Dispatcher{pub: pub}
}

// Deliver reports whether the recipient was online. An offline recipient is
// not an error; the record is already stored.
func (d *Dispatcher) Deliver(userID string, n *models.Notification) bool {
	delivered := d.pub.Publish(userID, EventNotification, n.Push())
	logrus.WithFields(logrus.Fields{
		"recipient": userID,
		"type":      n.Meta.Type,
		"delivered": delivered,
	}).Debug("Notification dispatched")
	return delivered
}
