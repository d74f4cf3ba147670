package services

// Events pushed to clients by the services.
const (
	EventNotification       = "notification"
	EventReceiveChatMessage = "receiveChatMessage"
	EventNewInquiry         = "newInquiry"
)

// Events accepted from clients and routed to the services.
const (
	EventSendChatMessage = "sendChatMessage"
	EventPropertyLiked   = "propertyLiked"
	EventPropertyViewed  = "propertyViewed"
)

// Publisher is the delivery surface of the connection gateway. Services never
// touch the presence registry directly.
type Publisher interface {
	Publish(userID, event string, payload interface{}) bool
	PublishExcept(userID, event string, payload interface{}, exceptConnID string) bool
	IsOnline(userID string) bool
}
