package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"talkthreads/config"
	"talkthreads/database"
	"talkthreads/events"
	"talkthreads/handlers"
	"talkthreads/payments"
	"talkthreads/push"
	"talkthreads/routes"
	"talkthreads/websocket"
)

func main() {
	log.Println("🚀 Starting Talk Threads server...")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal("❌ Invalid configuration: ", err)
	}

	if cfg.GinMode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
		log.Println("⚙️ Running in RELEASE mode")
	} else {
		gin.SetMode(gin.DebugMode)
		log.Println("⚙️ Running in DEBUG mode")
	}

	// ===== MONGODB =====
	log.Println("🔌 Connecting to MongoDB...")
	connectCtx, connectCancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := database.Connect(connectCtx, cfg.MongoURI, cfg.DBName)
	connectCancel()
	if err != nil {
		log.Fatal("❌ ", err)
	}

	// An unreachable database does not stop the listener; requests fail
	// individually until it comes back.
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := db.Ping(pingCtx); err != nil {
		log.Printf("❌ MongoDB ping failed: %v", err)
	} else {
		log.Println("✅ MongoDB ping successful")
		if err := db.EnsureIndexes(context.Background()); err != nil {
			log.Printf("❌ Index creation failed: %v", err)
		}
	}
	pingCancel()

	bg, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	// ===== EVENTS =====
	hub := websocket.NewManager()
	go hub.Start()
	log.Println("✅ WebSocket endpoint: /ws")

	var sinks events.Multi
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = events.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		publisher := events.NewRedisPublisher(rdb, cfg.Redis.Channel)
		sinks = append(sinks, publisher)

		// Every instance feeds its websocket clients from the shared channel.
		go publisher.Run(bg, hub)
		log.Printf("✅ Publishing events to Redis channel %q", cfg.Redis.Channel)
	} else {
		sinks = append(sinks, hub)
	}

	if cfg.Push.Enabled() {
		notifier := push.NewNotifier(db, cfg.Push.PublicKey, cfg.Push.PrivateKey, cfg.Push.Subscriber)
		go notifier.Run(bg)
		sinks = append(sinks, notifier)
		log.Println("✅ Web push enabled for announcements")
	} else {
		log.Println("⚠️ VAPID keys not set; web push disabled (run cmd/vapidkeys)")
	}

	// ===== HANDLERS =====
	opts := handlers.Options{
		Events:         sinks,
		JWTSecret:      cfg.JWTSecret,
		IdentitySecret: cfg.IdentitySecret,
		TokenTTL:       cfg.TokenTTL,
		Timeout:        cfg.RequestTimeout,
		VAPIDPublicKey: cfg.Push.PublicKey,
	}
	if cfg.StripeSecretKey != "" {
		opts.Payments = payments.NewStripe(cfg.StripeSecretKey, cfg.Currency)
	} else {
		log.Println("⚠️ STRIPE_SECRET_KEY not set; payment endpoints answer 503")
	}

	h := handlers.New(db, opts)
	router := routes.SetupRouter(cfg, h, db, hub)

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("🌐 Server running on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("❌ Server error:", err)
		}
	}()

	// ===== GRACEFUL SHUTDOWN =====
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Println("❌ Forced shutdown:", err)
	}

	stopBackground()
	hub.Stop()
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			log.Printf("❌ Redis close: %v", err)
		}
	}
	if err := db.Disconnect(shutdownCtx); err != nil {
		log.Printf("❌ MongoDB disconnect: %v", err)
	}

	log.Println("👋 Server stopped gracefully")
}
