package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/estatehub/realtime/internal/gateway"
	"github.com/estatehub/realtime/internal/models"
	"github.com/estatehub/realtime/internal/services"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type realtimeEnv struct {
	gw    *gateway.Gateway
	store *memNotifications
	url   string
}

func newRealtimeEnv(t *testing.T) *realtimeEnv {
	t.Helper()

	gw := gateway.New(nil, gateway.Options{Path: "/socket"})
	store := &memNotifications{}
	notifications := services.NewNotificationService(store, services.NewDispatcher(gw), nil, nil)
	NewSocketHandler(services.NewChatRelay(gw), notifications).Register(gw)

	router := mux.NewRouter()
	gw.Start(router)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &realtimeEnv{gw: gw, store: store, url: "ws" + strings.TrimPrefix(srv.URL, "http") + "/socket"}
}

func (e *realtimeEnv) connect(t *testing.T, userID string) *websocket.Conn {
	t.Helper()
	ws, _, err := websocket.DefaultDialer.Dial(e.url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })

	emit(t, ws, gateway.EventRegisterUser, userID)
	require.Eventually(t, func() bool { return e.gw.IsOnline(userID) }, 2*time.Second, 10*time.Millisecond)
	return ws
}

func emit(t *testing.T, ws *websocket.Conn, event string, data interface{}) {
	t.Helper()
	require.NoError(t, ws.WriteJSON(map[string]interface{}{"event": event, "data": data}))
}

func nextFrame(t *testing.T, ws *websocket.Conn) gateway.Frame {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	var f gateway.Frame
	require.NoError(t, ws.ReadJSON(&f))
	return f
}

func TestLikeWhileOwnerOfflineIsStoredThenLaterEventsArrive(t *testing.T) {
	env := newRealtimeEnv(t)
	owner, buyer, listing := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()

	buyerWS := env.connect(t, buyer.Hex())
	like := services.ListingEvent{
		OwnerID:     owner.Hex(),
		BuyerID:     buyer.Hex(),
		BuyerName:   "Ann",
		ListingID:   listing.Hex(),
		ListingName: "Sea View",
	}

	emit(t, buyerWS, services.EventPropertyLiked, like)
	require.Eventually(t, func() bool { return env.store.count() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.False(t, env.gw.IsOnline(owner.Hex()))

	ownerWS := env.connect(t, owner.Hex())

	// A second like is suppressed, so the next frame the owner sees is the view.
	emit(t, buyerWS, services.EventPropertyLiked, like)
	emit(t, buyerWS, services.EventPropertyViewed, like)

	f := nextFrame(t, ownerWS)
	assert.Equal(t, services.EventNotification, f.Event)
	var push models.NotificationPush
	require.NoError(t, json.Unmarshal(f.Data, &push))
	assert.Equal(t, models.TypeView, push.Meta.Type)
	assert.Equal(t, "Ann viewed Sea View", push.Body)
	assert.Equal(t, 2, env.store.count())
}

func TestSelfLikeIsIgnored(t *testing.T) {
	env := newRealtimeEnv(t)
	owner, listing := primitive.NewObjectID(), primitive.NewObjectID()
	ws := env.connect(t, owner.Hex())

	emit(t, ws, services.EventPropertyLiked, services.ListingEvent{
		OwnerID: owner.Hex(), BuyerID: owner.Hex(), ListingID: listing.Hex(),
	})
	emit(t, ws, gateway.EventGetOnlineUsers, nil)

	// The reply proves the like was processed first on this connection.
	f := nextFrame(t, ws)
	assert.Equal(t, gateway.EventOnlineUsers, f.Event)
	assert.Equal(t, 0, env.store.count())
}

func TestChatMessageRelayedBetweenParticipants(t *testing.T) {
	env := newRealtimeEnv(t)
	buyerWS := env.connect(t, "buyer-1")
	sellerWS := env.connect(t, "seller-1")

	emit(t, buyerWS, services.EventSendChatMessage, services.ChatPayload{
		ListingID: "listing-1",
		BuyerID:   "buyer-1",
		SellerID:  "seller-1",
		Message:   "Can I visit on Sunday?",
		Sender:    models.RoleBuyer,
	})

	f := nextFrame(t, sellerWS)
	assert.Equal(t, services.EventReceiveChatMessage, f.Event)
	var got services.ChatDelivery
	require.NoError(t, json.Unmarshal(f.Data, &got))
	assert.Equal(t, "other", got.Sender)
	assert.Equal(t, "Can I visit on Sunday?", got.Message)
}

func TestMalformedChatPayloadKeepsConnectionAlive(t *testing.T) {
	env := newRealtimeEnv(t)
	ws := env.connect(t, "buyer-1")

	emit(t, ws, services.EventSendChatMessage, "not an object")
	emit(t, ws, gateway.EventGetOnlineUsers, nil)

	f := nextFrame(t, ws)
	assert.Equal(t, gateway.EventOnlineUsers, f.Event)
	var online []string
	require.NoError(t, json.Unmarshal(f.Data, &online))
	assert.Equal(t, []string{"buyer-1"}, online)
}
