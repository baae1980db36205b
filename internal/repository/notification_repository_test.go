package repository

import (
    "context"
    "errors"
    "testing"

    "github.com/DATA-DOG/go-sqlmock"
)

func TestMarkReadOwnership(t *testing.T) {
    db, mock, err := sqlmock.New()
    if err != nil {
        t.Fatalf("sqlmock init error: %v", err)
    }
    defer db.Close()

    repo := NewNotificationRepo(db)

    // Unread row belonging to the caller.
    mock.ExpectExec(`UPDATE notifications SET is_read = 1`).
        WithArgs(uint64(5), uint64(7)).
        WillReturnResult(sqlmock.NewResult(0, 1))
    if err := repo.MarkRead(context.Background(), 5, 7); err != nil {
        t.Fatalf("MarkRead unread: %v", err)
    }

    // Already read: the update touches nothing but the row exists, so the
    // call still succeeds.
    mock.ExpectExec(`UPDATE notifications SET is_read = 1`).
        WithArgs(uint64(5), uint64(7)).
        WillReturnResult(sqlmock.NewResult(0, 0))
    mock.ExpectQuery(`SELECT COUNT\(\*\) FROM notifications WHERE id = \?`).
        WithArgs(uint64(5), uint64(7)).
        WillReturnRows(sqlmock.NewRows([]string{"c"}).AddRow(1))
    if err := repo.MarkRead(context.Background(), 5, 7); err != nil {
        t.Fatalf("MarkRead already-read: %v", err)
    }

    // Someone else's notification looks like a missing row.
    mock.ExpectExec(`UPDATE notifications SET is_read = 1`).
        WithArgs(uint64(5), uint64(99)).
        WillReturnResult(sqlmock.NewResult(0, 0))
    mock.ExpectQuery(`SELECT COUNT\(\*\) FROM notifications WHERE id = \?`).
        WithArgs(uint64(5), uint64(99)).
        WillReturnRows(sqlmock.NewRows([]string{"c"}).AddRow(0))
    if err := repo.MarkRead(context.Background(), 5, 99); !errors.Is(err, ErrNotificationNotFound) {
        t.Fatalf("MarkRead foreign row err = %v, want ErrNotificationNotFound", err)
    }

    if err := mock.ExpectationsWereMet(); err != nil {
        t.Fatalf("unmet expectations: %v", err)
    }
}

func TestDeleteReportsMissing(t *testing.T) {
    db, mock, err := sqlmock.New()
    if err != nil {
        t.Fatalf("sqlmock init error: %v", err)
    }
    defer db.Close()

    repo := NewNotificationRepo(db)

    mock.ExpectExec(`DELETE FROM notifications`).
        WithArgs(uint64(5), uint64(7)).
        WillReturnResult(sqlmock.NewResult(0, 0))
    if err := repo.Delete(context.Background(), 5, 7); !errors.Is(err, ErrNotificationNotFound) {
        t.Fatalf("Delete err = %v, want ErrNotificationNotFound", err)
    }
}
