package main // Entry point package

import (
    "log" // Logging library

    "github.com/joho/godotenv"    // .env loader for local development
    "github.com/labstack/echo/v4" // Echo web framework

    "github.com/iliyamo/venue-reservation/internal/config"
    "github.com/iliyamo/venue-reservation/internal/database"
    "github.com/iliyamo/venue-reservation/internal/handler"
    "github.com/iliyamo/venue-reservation/internal/middleware"
    "github.com/iliyamo/venue-reservation/internal/queue"
    "github.com/iliyamo/venue-reservation/internal/repository"
    "github.com/iliyamo/venue-reservation/internal/router"
    queue_publisher "github.com/iliyamo/venue-reservation/internal/service"
    "github.com/iliyamo/venue-reservation/internal/workflow"
)

func main() {
    // Load .env when present; real deployments set the environment directly.
    _ = godotenv.Load()

    cfg := config.Load()

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatalf("database: %v", err)
    }
    defer db.Close()

    // Repositories.
    userRepo := repository.NewUserRepo(db)
    tokenRepo := repository.NewTokenRepo(db)
    facilityRepo := repository.NewFacilityRepo(db)
    reservationRepo := repository.NewReservationRepo(db)
    approvalRepo := repository.NewPaymentApprovalRepo(db)
    notificationRepo := repository.NewNotificationRepo(db)
    transactionRepo := repository.NewTransactionRepo(db)

    // Workflow engine: all state changes of the reservation lifecycle go
    // through it; handlers never write reservation state directly.
    engine := &workflow.Engine{
        Reservations:    reservationRepo,
        Approvals:       approvalRepo,
        Notifications:   notificationRepo,
        Audit:           transactionRepo,
        Facilities:      facilityRepo,
        Users:           userRepo,
        Routes:          workflow.NewRouteConfig(cfg.MDRRFacilityIDs),
        Checker:         workflow.NewConflictChecker(reservationRepo),
        AdminReviewerID: cfg.AdminReviewerID,
        Publish:         queue_publisher.PublishReservationEvent,
    }

    // Handlers.
    authH := handler.NewAuthHandler(cfg, userRepo, tokenRepo)
    facilityH := handler.NewFacilityHandler(facilityRepo, reservationRepo)
    adminFacilityH := handler.NewAdminFacilityHandler(facilityRepo)
    bookingH := handler.NewBookingHandler(engine, reservationRepo, approvalRepo, userRepo)
    staffH := handler.NewStaffReservationHandler(engine, reservationRepo, approvalRepo, transactionRepo, cfg.MDRRFacilityIDs)
    collectorH := handler.NewCollectorHandler(engine, approvalRepo)
    notificationH := handler.NewNotificationHandler(notificationRepo)

    e := echo.New()

    // Redis backs the distributed rate limiter and the public catalogue
    // cache. A nil client disables both and the server degrades gracefully.
    rdb := config.NewRedisClient()
    if rdb == nil {
        log.Printf("redis unavailable; rate limiting and response cache disabled")
    }
    e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
    cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

    router.RegisterRoutes(e)
    router.RegisterAuth(e, authH, cfg.JWTSecret)
    router.RegisterPublic(e, facilityH, cache)
    router.RegisterUser(e, bookingH, notificationH, cfg.JWTSecret)
    router.RegisterStaff(e, staffH, adminFacilityH, authH, notificationH, cfg.JWTSecret)
    router.RegisterCollector(e, collectorH, notificationH, cfg.JWTSecret)

    // Background consumer turning broker events into the change-feed log.
    go func() {
        if err := queue.StartReservationConsumer(); err != nil {
            log.Printf("reservation consumer stopped: %v", err)
        }
    }()

    addr := ":" + cfg.Port
    log.Printf("listening on %s (env=%s)", addr, cfg.Env)

    if err := e.Start(addr); err != nil {
        log.Fatal(err)
    }
}
