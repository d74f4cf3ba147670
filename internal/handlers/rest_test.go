package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/estatehub/realtime/internal/gateway"
	"github.com/estatehub/realtime/internal/models"
	"github.com/estatehub/realtime/internal/services"
	jwtutil "github.com/estatehub/realtime/pkg/jwt"
	"github.com/estatehub/realtime/pkg/middleware"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testSecret = "test-secret"

type restEnv struct {
	router   *mux.Router
	store    *memNotifications
	bookings *memBookings
	service  *services.NotificationService
}

func newRestEnv(t *testing.T) *restEnv {
	t.Helper()

	gw := gateway.New(nil, gateway.Options{})
	router := mux.NewRouter()
	gw.Start(router)

	store := &memNotifications{}
	bookings := &memBookings{}
	notifications := services.NewNotificationService(store, services.NewDispatcher(gw), nil, nil)
	notifHandler := NewNotificationHandler(notifications)
	bookingHandler := NewBookingHandler(services.NewBookingService(bookings, gw, notifications))

	api := router.PathPrefix("/api/notifications").Subrouter()
	api.Use(middleware.AuthMiddleware(testSecret))
	api.HandleFunc("/get-notifications", notifHandler.GetDropdownNotificationsHandler).Methods("GET")
	api.HandleFunc("/all-notifications", notifHandler.GetAllNotificationsHandler).Methods("GET")
	api.HandleFunc("/mark-as-read/{notificationId}", notifHandler.MarkAsReadHandler).Methods("PUT")
	api.HandleFunc("/read-all-notifications", notifHandler.MarkAllReadHandler).Methods("PUT")
	router.HandleFunc("/api/booking/create", bookingHandler.CreateBookingHandler).Methods("POST")

	return &restEnv{router: router, store: store, bookings: bookings, service: notifications}
}

func (e *restEnv) do(t *testing.T, method, path string, userID primitive.ObjectID, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if !userID.IsZero() {
		token, err := jwtutil.GenerateToken(userID.Hex(), "", testSecret, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *restEnv) seed(t *testing.T, recipient primitive.ObjectID, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := e.service.Notify(context.Background(), services.NotifyParams{
			RecipientID: recipient,
			Title:       "Info",
			Body:        strings.Repeat("x", i+1),
		})
		require.NoError(t, err)
	}
}

func TestDropdownRequiresAuth(t *testing.T) {
	env := newRestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/notifications/get-notifications", primitive.NilObjectID, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDropdownReturnsLatestFive(t *testing.T) {
	env := newRestEnv(t)
	user := primitive.NewObjectID()
	env.seed(t, user, 7)
	env.seed(t, primitive.NewObjectID(), 2)

	rec := env.do(t, http.MethodGet, "/api/notifications/get-notifications", user, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success       bool                  `json:"success"`
		Notifications []models.Notification `json:"notifications"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Len(t, body.Notifications, 5)
}

func TestAllNotificationsPaginates(t *testing.T) {
	env := newRestEnv(t)
	user := primitive.NewObjectID()
	env.seed(t, user, 7)

	rec := env.do(t, http.MethodGet, "/api/notifications/all-notifications?page=2&limit=3", user, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Notifications []models.Notification `json:"notifications"`
		Total         int64                 `json:"total"`
		Page          int64                 `json:"page"`
		Pages         int64                 `json:"pages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Notifications, 3)
	assert.Equal(t, int64(7), body.Total)
	assert.Equal(t, int64(2), body.Page)
	assert.Equal(t, int64(3), body.Pages)
}

func TestMarkAsReadIsRecipientScoped(t *testing.T) {
	env := newRestEnv(t)
	owner, stranger := primitive.NewObjectID(), primitive.NewObjectID()
	env.seed(t, owner, 1)
	id := env.store.items[0].ID.Hex()

	rec := env.do(t, http.MethodPut, "/api/notifications/mark-as-read/"+id, stranger, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/notifications/mark-as-read/"+id, owner, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.store.items[0].IsRead)

	rec = env.do(t, http.MethodPut, "/api/notifications/mark-as-read/not-an-id", owner, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMarkAllRead(t *testing.T) {
	env := newRestEnv(t)
	user := primitive.NewObjectID()
	env.seed(t, user, 3)

	rec := env.do(t, http.MethodPut, "/api/notifications/read-all-notifications", user, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	for _, n := range env.store.items {
		assert.True(t, n.IsRead)
	}
}

func TestCreateBookingHandler(t *testing.T) {
	env := newRestEnv(t)
	agent, buyer, property := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()

	rec := env.do(t, http.MethodPost, "/api/booking/create", primitive.NilObjectID, services.BookingRequest{
		Name:       "Ann",
		Email:      "ann@example.com",
		Message:    "I would like to visit",
		Action:     "Visit",
		AgentID:    agent.Hex(),
		BuyerID:    buyer.Hex(),
		PropertyID: property.Hex(),
	})
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Len(t, env.bookings.bookings, 1)
	assert.Equal(t, 1, env.store.count())

	rec = env.do(t, http.MethodPost, "/api/booking/create", primitive.NilObjectID, services.BookingRequest{Name: "Ann"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
