package main

import (
	"context"
	"log"

	"civicalert-be/config"
	"civicalert-be/controllers"
	"civicalert-be/identity"
	"civicalert-be/models"
	"civicalert-be/payments"
	"civicalert-be/routes"
	"civicalert-be/store"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()

	client, db, err := config.ConnectDB(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		if err := config.DisconnectDB(client); err != nil {
			log.Println("Failed to disconnect MongoDB:", err)
		}
	}()
	log.Println("MongoDB connection established successfully!")

	var redisClient *redis.Client
	if cfg.RedisAddress != "" {
		redisClient, err = config.ConnectRedis(ctx, cfg)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		log.Println("Connected to Redis")
	}

	issueStore := store.NewIssueStore(db)
	userStore := store.NewUserStore(db)
	paymentStore := store.NewPaymentStore(db)
	accounts := identity.NewAccountStore(db)

	if err := models.EnsureIssueIndexes(db.Collection("issues")); err != nil {
		log.Fatalf("Failed to create issue indexes: %v", err)
	}
	if err := models.EnsureUserIndexes(db.Collection("users")); err != nil {
		log.Fatalf("Failed to create user indexes: %v", err)
	}
	if err := models.EnsurePaymentIndexes(db.Collection("payments")); err != nil {
		log.Fatalf("Failed to create payment indexes: %v", err)
	}
	if err := accounts.EnsureIndexes(ctx); err != nil {
		log.Fatalf("Failed to create identity indexes: %v", err)
	}

	jwtService, err := identity.NewJWTService(cfg.IdentityKey)
	if err != nil {
		log.Fatal(err)
	}

	gateway, err := payments.NewOmiseGateway(cfg.OmisePublicKey, cfg.OmiseSecretKey)
	if err != nil {
		log.Fatalf("Failed to initialize payment gateway: %v", err)
	}
	orchestrator := payments.NewOrchestrator(gateway, paymentStore, issueStore, userStore, cfg.SiteOrigin)

	r := gin.Default()
	r.Use(cors.Default())

	routes.Setup(r, routes.Deps{
		Cfg:      cfg,
		Verifier: jwtService,
		Users:    userStore,
		Redis:    redisClient,
		Auth:     controllers.NewAuthController(accounts, jwtService),
		Issues:   controllers.NewIssueController(issueStore, cfg),
		UsersC:   controllers.NewUserController(userStore, accounts, cfg),
		Payments: controllers.NewPaymentController(orchestrator, paymentStore, cfg),
		Stats:    controllers.NewStatsController(issueStore, userStore, paymentStore),
	})

	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
