package main

import (
	"context"
	"log"
	"os"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"google.golang.org/api/option"

	fbapp "firebase.google.com/go/v4"

	"marketchat/internal/adapter/api"
	"marketchat/internal/adapter/api/handler"
	apimiddleware "marketchat/internal/adapter/api/middleware"
	"marketchat/internal/adapter/api/router"
	"marketchat/internal/adapter/repository"
	"marketchat/internal/infrastructure/cache"
	"marketchat/internal/infrastructure/client"
	"marketchat/internal/infrastructure/firebase"
	"marketchat/internal/infrastructure/websocket"
	"marketchat/internal/usecase"
	"marketchat/pkg/config"
)

const membershipVerifyTimeout = 2 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	var opts []option.ClientOption
	if serviceAccountJSON := os.Getenv("FIREBASE_SERVICE_ACCOUNT_JSON"); serviceAccountJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(serviceAccountJSON)))
	} else if serviceAccountPath := os.Getenv("FIREBASE_SERVICE_ACCOUNT_PATH"); serviceAccountPath != "" {
		opts = append(opts, option.WithCredentialsFile(serviceAccountPath))
	}

	firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opts...)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}

	fbAuth, err := firebaseApp.Auth(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase Auth: %v", err)
	}

	firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opts...)
	if err != nil {
		log.Fatalf("Failed to create Firestore client: %v", err)
	}
	defer firestoreClient.Close()

	roomRepo := repository.NewFirestoreRoomRepository(firestoreClient)
	participantRepo := repository.NewFirestoreParticipantRepository(firestoreClient)
	messageRepo := repository.NewFirestoreMessageRepository(firestoreClient)

	// Without a Redis address every unread lookup recomputes from Firestore.
	// Fine for local development, not for production traffic.
	var counter cache.Counter
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		defer redisClient.Close()
		counter = cache.NewRedisCounter(redisClient)
		log.Printf("Unread counters backed by Redis at %s", cfg.RedisAddr)
	} else {
		counter = cache.NewMemoryCounter()
		log.Printf("REDIS_ADDR not set, unread counters held in process memory")
	}

	productClient := client.NewProductClient(cfg.ProductServiceURL, cfg.CollaboratorTimeout)
	userClient := client.NewUserClient(cfg.UserServiceURL, cfg.CollaboratorTimeout)
	authClient := firebase.NewAuthClient(fbAuth)

	unreadUseCase := usecase.NewUnreadUseCase(participantRepo, messageRepo, counter)
	roomUseCase := usecase.NewRoomUseCase(roomRepo, participantRepo, messageRepo, productClient, userClient, unreadUseCase)

	wsManager := websocket.NewManager(roomUseCase, membershipVerifyTimeout)
	wsManager.Start(ctx)

	messageUseCase := usecase.NewMessageUseCase(roomRepo, participantRepo, messageRepo, counter, userClient, wsManager, roomUseCase)

	e := echo.New()

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.Validator = api.NewValidator()

	authMiddleware := apimiddleware.NewAuthMiddleware(authClient)

	roomHandler := handler.NewRoomHandler(roomUseCase)
	messageHandler := handler.NewMessageHandler(messageUseCase, unreadUseCase)
	wsHandler := handler.NewWebSocketHandler(wsManager)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	router.SetupChatRoutes(e, roomHandler, messageHandler, authMiddleware)
	router.SetupWebSocketRoutes(e, wsHandler, authMiddleware)

	log.Printf("Starting server on port %s...", cfg.ServerPort)
	if err := e.Start(":" + cfg.ServerPort); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
