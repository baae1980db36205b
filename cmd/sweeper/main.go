package main

import (
    "context"
    "flag"
    "log"
    "time"

    "github.com/joho/godotenv"

    "github.com/iliyamo/venue-reservation/internal/config"
    "github.com/iliyamo/venue-reservation/internal/database"
    "github.com/iliyamo/venue-reservation/internal/repository"
    queue_publisher "github.com/iliyamo/venue-reservation/internal/service"
    "github.com/iliyamo/venue-reservation/internal/workflow"
)

// The sweeper moves approved reservations whose end time has passed to
// completed. Run it from cron with -once, or let it loop with -interval.
func main() {
    once := flag.Bool("once", false, "run a single sweep and exit")
    interval := flag.Duration("interval", 5*time.Minute, "delay between sweeps")
    flag.Parse()

    _ = godotenv.Load()
    cfg := config.Load()

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatalf("database: %v", err)
    }
    defer db.Close()

    reservationRepo := repository.NewReservationRepo(db)
    engine := &workflow.Engine{
        Reservations:    reservationRepo,
        Approvals:       repository.NewPaymentApprovalRepo(db),
        Notifications:   repository.NewNotificationRepo(db),
        Audit:           repository.NewTransactionRepo(db),
        Facilities:      repository.NewFacilityRepo(db),
        Users:           repository.NewUserRepo(db),
        Routes:          workflow.NewRouteConfig(cfg.MDRRFacilityIDs),
        Checker:         workflow.NewConflictChecker(reservationRepo),
        AdminReviewerID: cfg.AdminReviewerID,
        Publish:         queue_publisher.PublishReservationEvent,
    }

    for {
        n, err := engine.CompleteExpired(context.Background())
        if err != nil {
            log.Printf("sweep failed: %v", err)
        } else if n > 0 {
            log.Printf("completed %d reservations", n)
        }
        if *once {
            return
        }
        time.Sleep(*interval)
    }
}
