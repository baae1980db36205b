package repository

import (
    "context"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"
)

func TestCountOverlappingPredicateArguments(t *testing.T) {
    db, mock, err := sqlmock.New()
    if err != nil {
        t.Fatalf("sqlmock init error: %v", err)
    }
    defer db.Close()

    start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
    end := start.Add(2 * time.Hour)

    // The interval predicate compares start < existing.end and
    // end > existing.start, so the query receives end first.
    mock.ExpectQuery(`SELECT COUNT\(\*\) FROM reservations`).
        WithArgs(uint64(5), end, start, uint64(0)).
        WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

    repo := NewReservationRepo(db)
    n, err := repo.CountOverlapping(context.Background(), 5, start, end, 0)
    if err != nil {
        t.Fatalf("CountOverlapping: %v", err)
    }
    if n != 2 {
        t.Fatalf("count = %d, want 2", n)
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Fatalf("unmet expectations: %v", err)
    }
}

func TestUpdateStatusFromIsCompareAndSet(t *testing.T) {
    db, mock, err := sqlmock.New()
    if err != nil {
        t.Fatalf("sqlmock init error: %v", err)
    }
    defer db.Close()

    at := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
    repo := NewReservationRepo(db)

    // Row still pending: the update claims it.
    mock.ExpectExec(`UPDATE reservations`).
        WithArgs("approved", uint64(1), "ADMIN", at, nil, uint64(9), "pending").
        WillReturnResult(sqlmock.NewResult(0, 1))
    ok, err := repo.UpdateStatusFrom(context.Background(), 9, "pending", "approved", 1, "ADMIN", at, nil)
    if err != nil {
        t.Fatalf("UpdateStatusFrom: %v", err)
    }
    if !ok {
        t.Fatalf("expected the claim to succeed")
    }

    // Row already moved: zero rows affected, no error.
    mock.ExpectExec(`UPDATE reservations`).
        WithArgs("declined", uint64(1), "ADMIN", at, nil, uint64(9), "pending").
        WillReturnResult(sqlmock.NewResult(0, 0))
    ok, err = repo.UpdateStatusFrom(context.Background(), 9, "pending", "declined", 1, "ADMIN", at, nil)
    if err != nil {
        t.Fatalf("UpdateStatusFrom: %v", err)
    }
    if ok {
        t.Fatalf("claim must fail when the row left the expected status")
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Fatalf("unmet expectations: %v", err)
    }
}

func TestMarkReadIsIdempotentInsert(t *testing.T) {
    db, mock, err := sqlmock.New()
    if err != nil {
        t.Fatalf("sqlmock init error: %v", err)
    }
    defer db.Close()

    mock.ExpectExec(`INSERT IGNORE INTO reservation_reads`).
        WithArgs(uint64(9), "MDRR").
        WillReturnResult(sqlmock.NewResult(1, 1))
    // A duplicate acknowledgement affects zero rows and is still fine.
    mock.ExpectExec(`INSERT IGNORE INTO reservation_reads`).
        WithArgs(uint64(9), "MDRR").
        WillReturnResult(sqlmock.NewResult(0, 0))

    repo := NewReservationRepo(db)
    for i := 0; i < 2; i++ {
        if err := repo.MarkRead(context.Background(), 9, "MDRR"); err != nil {
            t.Fatalf("MarkRead #%d: %v", i+1, err)
        }
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Fatalf("unmet expectations: %v", err)
    }
}

func TestGetByIDNotFound(t *testing.T) {
    db, mock, err := sqlmock.New()
    if err != nil {
        t.Fatalf("sqlmock init error: %v", err)
    }
    defer db.Close()

    mock.ExpectQuery(`FROM reservations WHERE id = \?`).
        WithArgs(uint64(404)).
        WillReturnRows(sqlmock.NewRows([]string{"id"}))

    repo := NewReservationRepo(db)
    if _, err := repo.GetByID(context.Background(), 404); err != ErrReservationNotFound {
        t.Fatalf("got %v, want ErrReservationNotFound", err)
    }
}
