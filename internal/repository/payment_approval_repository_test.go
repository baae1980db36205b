package repository

import (
    "context"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"
)

func TestClaimDecisionGuardsOnPending(t *testing.T) {
    db, mock, err := sqlmock.New()
    if err != nil {
        t.Fatalf("sqlmock init error: %v", err)
    }
    defer db.Close()

    at := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
    repo := NewPaymentApprovalRepo(db)

    mock.ExpectExec(`UPDATE payment_approvals`).
        WithArgs("approved", uint64(2), at, uint64(11)).
        WillReturnResult(sqlmock.NewResult(0, 1))
    claimed, err := repo.ClaimDecision(context.Background(), 11, "approved", 2, at)
    if err != nil {
        t.Fatalf("ClaimDecision: %v", err)
    }
    if !claimed {
        t.Fatalf("expected the first decision to claim the approval")
    }

    // A second collector arriving late affects zero rows.
    mock.ExpectExec(`UPDATE payment_approvals`).
        WithArgs("declined", uint64(3), at, uint64(11)).
        WillReturnResult(sqlmock.NewResult(0, 0))
    claimed, err = repo.ClaimDecision(context.Background(), 11, "declined", 3, at)
    if err != nil {
        t.Fatalf("ClaimDecision: %v", err)
    }
    if claimed {
        t.Fatalf("a decided approval must not be claimable again")
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Fatalf("unmet expectations: %v", err)
    }
}

func TestClaimConflictRetrySingleWinner(t *testing.T) {
    db, mock, err := sqlmock.New()
    if err != nil {
        t.Fatalf("sqlmock init error: %v", err)
    }
    defer db.Close()

    repo := NewPaymentApprovalRepo(db)

    mock.ExpectExec(`UPDATE payment_approvals`).
        WithArgs(uint64(11)).
        WillReturnResult(sqlmock.NewResult(0, 1))
    claimed, err := repo.ClaimConflictRetry(context.Background(), 11)
    if err != nil {
        t.Fatalf("ClaimConflictRetry: %v", err)
    }
    if !claimed {
        t.Fatalf("expected the retry claim to succeed")
    }

    mock.ExpectExec(`UPDATE payment_approvals`).
        WithArgs(uint64(11)).
        WillReturnResult(sqlmock.NewResult(0, 0))
    claimed, err = repo.ClaimConflictRetry(context.Background(), 11)
    if err != nil {
        t.Fatalf("ClaimConflictRetry: %v", err)
    }
    if claimed {
        t.Fatalf("a non-conflicted approval must not be claimable")
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Fatalf("unmet expectations: %v", err)
    }
}

func TestListDetailsConflictedQueue(t *testing.T) {
    db, mock, err := sqlmock.New()
    if err != nil {
        t.Fatalf("sqlmock init error: %v", err)
    }
    defer db.Close()

    cols := []string{
        "id", "facility_id", "name", "user_id", "booker_name", "booker_email", "booker_phone",
        "start_time", "end_time", "purpose", "attendees", "receipt_image_url",
        "status", "promoted_reservation_id", "promotion_conflict", "created_at",
    }
    now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
    mock.ExpectQuery(`FROM payment_approvals a`).
        WillReturnRows(sqlmock.NewRows(cols).AddRow(
            uint64(11), uint64(2), "Grand Pavilion", uint64(7), "Pat Booker", "booker@example.com", "0900",
            now, now.Add(2*time.Hour), nil, nil, "r.jpg",
            "approved", nil, true, now,
        ))

    repo := NewPaymentApprovalRepo(db)
    items, err := repo.ListDetails(context.Background(), ApprovalFilter{ConflictedOnly: true})
    if err != nil {
        t.Fatalf("ListDetails: %v", err)
    }
    if len(items) != 1 {
        t.Fatalf("items = %d, want 1", len(items))
    }
    got := items[0]
    if !got.PromotionConflict || got.PromotedReservationID != nil {
        t.Fatalf("conflicted row decoded incorrectly: %+v", got)
    }
    if got.ReceiptImageURL == nil || *got.ReceiptImageURL != "r.jpg" {
        t.Fatalf("receipt decoded incorrectly: %+v", got)
    }
}
