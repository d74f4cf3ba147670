package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/estatehub/realtime/internal/config"
	"github.com/estatehub/realtime/internal/database"
	"github.com/estatehub/realtime/internal/gateway"
	"github.com/estatehub/realtime/internal/handlers"
	"github.com/estatehub/realtime/internal/presence"
	"github.com/estatehub/realtime/internal/repository"
	"github.com/estatehub/realtime/internal/scheduler"
	"github.com/estatehub/realtime/internal/services"
	"github.com/estatehub/realtime/pkg/logger"
	"github.com/estatehub/realtime/pkg/middleware"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

func main() {
	// Load configuration from .env and the environment
	cfg := config.LoadConfig()

	logger.InitLogger()
	logger.SetLevel(cfg.LogLevel)
	logger.Log.Info("Logger initialized")

	db, err := database.ConnectDB(cfg)
	if err != nil {
		log.Fatalf("Database connection error: %v", err)
	}
	defer database.Disconnect(db)

	// --- Repositories ---
	notificationRepo := repository.NewNotificationRepository(db)
	chatRepo := repository.NewChatRepository(db)
	userRepo := repository.NewUserRepository(db)
	listingRepo := repository.NewListingRepository(db)
	bookingRepo := repository.NewBookingRepository(db)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := notificationRepo.EnsureIndexes(ctx); err != nil {
		log.Fatalf("Notification indexes: %v", err)
	}
	if err := chatRepo.EnsureIndexes(ctx); err != nil {
		log.Fatalf("Message indexes: %v", err)
	}
	cancel()

	// --- Gateway ---
	gw := gateway.New(presence.NewRegistry(), gateway.Options{
		Path:           cfg.WSPath,
		AllowedOrigins: cfg.CORSOrigins,
	})

	// --- Services ---
	notificationService := services.NewNotificationService(notificationRepo, services.NewDispatcher(gw), userRepo, listingRepo)
	chatService := services.NewChatService(chatRepo, userRepo, gw)
	bookingService := services.NewBookingService(bookingRepo, gw, notificationService)

	// --- Handlers ---
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	messageHandler := handlers.NewMessageHandler(chatService)
	bookingHandler := handlers.NewBookingHandler(bookingService)
	handlers.NewSocketHandler(services.NewChatRelay(gw), notificationService).Register(gw)

	router := mux.NewRouter()
	gw.Start(router)

	// Notification routes
	notificationRoutes := router.PathPrefix("/api/notifications").Subrouter()
	notificationRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	notificationRoutes.HandleFunc("/get-notifications", notificationHandler.GetDropdownNotificationsHandler).Methods("GET")
	notificationRoutes.HandleFunc("/all-notifications", notificationHandler.GetAllNotificationsHandler).Methods("GET")
	notificationRoutes.HandleFunc("/mark-as-read/{notificationId}", notificationHandler.MarkAsReadHandler).Methods("PUT")
	notificationRoutes.HandleFunc("/read-all-notifications", notificationHandler.MarkAllReadHandler).Methods("PUT")

	// Message routes
	messageRoutes := router.PathPrefix("/api/message").Subrouter()
	messageRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	messageRoutes.HandleFunc("/send", messageHandler.SendMessageHandler).Methods("POST")
	messageRoutes.HandleFunc("/conversations", messageHandler.GetConversationsHandler).Methods("GET")
	messageRoutes.HandleFunc("/chat/{listingId}/{otherUserId}", messageHandler.GetThreadHandler).Methods("GET")

	// Booking inquiries are open to anonymous visitors
	router.HandleFunc("/api/booking/create", bookingHandler.CreateBookingHandler).Methods("POST")

	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	router.Use(middleware.LoggingMiddleware)

	sweeper, err := scheduler.StartPresenceCronJobs(cfg.PresenceSweep, gw)
	if err != nil {
		log.Fatalf("Scheduler error: %v", err)
	}
	defer sweeper.Stop()

	port := cfg.Port
	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	handler := c.Handler(router)

	fmt.Printf("Server running on port %s\n", port)
	log.Fatal(http.ListenAndServe(":"+port, handler))
}
