package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"bookingpay/internal/config"
	"bookingpay/internal/database"
	"bookingpay/internal/middleware"
	"bookingpay/internal/modules/admin"
	"bookingpay/internal/modules/auth"
	"bookingpay/internal/modules/booking"
	"bookingpay/internal/modules/events"
	"bookingpay/internal/modules/payment"
	"bookingpay/internal/modules/provider"
	jwtsvc "bookingpay/internal/pkg/jwt"
	"bookingpay/internal/repository"
	"bookingpay/internal/scheduler"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	if err := repository.AutoMigrate(db); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	userRepo := repository.NewUserRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)

	j := jwtsvc.New(cfg.JWTSecret, cfg.JWTTTL)
	hub := events.NewHub()
	gateway := provider.NewSimulator()

	authService := auth.NewService(userRepo, j)
	bookingService := booking.NewService(bookingRepo, log.Printf)
	paymentService := payment.NewService(paymentRepo, bookingRepo, gateway, hub, log.Printf)

	sched, err := scheduler.New(paymentService, bookingService, cfg, log.Printf)
	if err != nil {
		log.Fatal(err)
	}

	authHandler := auth.NewHandler(authService)
	bookingHandler := booking.NewHandler(bookingService)
	paymentHandler := payment.NewHandler(paymentService)
	adminHandler := admin.NewHandler(bookingService, paymentService, sched, cfg.StaleAfter)
	eventsHandler := events.NewHandler(hub, log.Printf)

	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	v1 := r.Group("/api/v1")
	{
		authHandler.RegisterRoutes(v1)

		protected := v1.Group("/")
		protected.Use(middleware.Auth(j))
		{
			bookingHandler.RegisterRoutes(protected)
			paymentHandler.RegisterRoutes(protected)
		}
	}

	adminGroup := r.Group("/admin")
	adminGroup.Use(middleware.Auth(j), middleware.RequireRole("admin"))
	{
		adminHandler.RegisterRoutes(adminGroup)
		eventsHandler.RegisterRoutes(adminGroup)
	}

	sched.Start()

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: r,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()
	log.Printf("level=info msg=listening addr=%s", cfg.ListenAddr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("level=info msg=shutting down")

	if err := sched.Stop(); err != nil {
		log.Printf("level=error msg=scheduler shutdown failed err=%v", err)
	}
	hub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("level=error msg=server shutdown failed err=%v", err)
	}
}
