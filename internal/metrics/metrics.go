package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OnlineUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "estate_ws_online_users",
			Help: "Number of users with a registered websocket connection",
		},
	)

	OpenConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "estate_ws_open_connections",
			Help: "Number of open websocket connections, registered or not",
		},
	)

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "estate_ws_events_published_total",
			Help: "Server to client events by outcome (delivered, offline, dropped)",
		},
		[]string{"event", "outcome"},
	)

	EventsReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "estate_ws_events_received_total",
			Help: "Client to server events by name",
		},
		[]string{"event"},
	)

	NotificationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "estate_notifications_created_total",
			Help: "Persisted notifications by type",
		},
		[]string{"type"},
	)

	NotificationsSuppressed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "estate_notifications_suppressed_total",
			Help: "Notifications suppressed as duplicates by type",
		},
		[]string{"type"},
	)
)
