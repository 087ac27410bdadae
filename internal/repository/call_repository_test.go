package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/onurcolak/call-scheduler/internal/domain"
)

func newMockRepo(t *testing.T) (*CallRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return NewCallRepository(sqlx.NewDb(db, "mysql")), mock
}

func callRows(id int64, status string, scheduledTime time.Time) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "phone_number", "scheduled_time", "status",
		"call_api_id", "call_status", "error_message", "created_at", "updated_at",
	}).AddRow(id, "+905551234567", scheduledTime, status, nil, nil, nil, now, now)
}

func TestClaimForDispatch_ConditionalOnPendingStatus(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE scheduled_calls")).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.ClaimForDispatch(context.Background(), 7); err != nil {
		t.Fatalf("ClaimForDispatch returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestClaimForDispatch_ZeroRowsMeansAlreadyClaimed(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE scheduled_calls")).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.ClaimForDispatch(context.Background(), 7)
	if !errors.Is(err, domain.ErrAlreadyClaimed) {
		t.Fatalf("expected ErrAlreadyClaimed, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestGetDuePending_PassesCaptureTimeToQuery(t *testing.T) {
	repo, mock := newMockRepo(t)

	now := time.Now()

	mock.ExpectQuery(`SELECT .+\s+FROM scheduled_calls\s+WHERE status = 'pending' AND scheduled_time <= \?`).
		WithArgs(now).
		WillReturnRows(callRows(1, "pending", now))

	calls, err := repo.GetDuePending(context.Background(), now)
	if err != nil {
		t.Fatalf("GetDuePending returned error: %v", err)
	}

	if len(calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(calls))
	}
	if calls[0].Status != domain.StatusPending {
		t.Errorf("expected status %q, got %q", domain.StatusPending, calls[0].Status)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT")).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "phone_number", "scheduled_time", "status",
			"call_api_id", "call_status", "error_message", "created_at", "updated_at",
		}))

	_, err := repo.GetByID(context.Background(), 99)
	if !errors.Is(err, domain.ErrCallNotFound) {
		t.Fatalf("expected ErrCallNotFound, got %v", err)
	}
}

func TestDelete_NotPendingIsRejected(t *testing.T) {
	repo, mock := newMockRepo(t)

	// The conditional DELETE touches nothing because the call is no longer
	// pending; the follow-up lookup finds it, so the error is InvalidState.
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM scheduled_calls")).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT")).
		WithArgs(int64(5)).
		WillReturnRows(callRows(5, "in-progress", time.Now()))

	err := repo.Delete(context.Background(), 5)
	if !errors.Is(err, domain.ErrCallNotPending) {
		t.Fatalf("expected ErrCallNotPending, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestDelete_MissingCallIsNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM scheduled_calls")).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT")).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "phone_number", "scheduled_time", "status",
			"call_api_id", "call_status", "error_message", "created_at", "updated_at",
		}))

	err := repo.Delete(context.Background(), 5)
	if !errors.Is(err, domain.ErrCallNotFound) {
		t.Fatalf("expected ErrCallNotFound, got %v", err)
	}
}

func TestDelete_PendingCallSucceeds(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM scheduled_calls")).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Delete(context.Background(), 5); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
}

func TestMarkDispatched_UnknownCallFails(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE scheduled_calls")).
		WithArgs("call-123", "ringing", int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.MarkDispatched(context.Background(), 42, "call-123", "ringing"); err == nil {
		t.Fatalf("expected error for unknown call, got nil")
	}
}

func TestCreate_InsertsPendingAndFetchesBack(t *testing.T) {
	repo, mock := newMockRepo(t)

	scheduledTime := time.Now().Add(time.Hour)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO scheduled_calls")).
		WithArgs("+905551234567", scheduledTime).
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT")).
		WithArgs(int64(11)).
		WillReturnRows(callRows(11, "pending", scheduledTime))

	call, err := repo.Create(context.Background(), "+905551234567", scheduledTime)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if call.ID != 11 {
		t.Errorf("expected id=11, got %d", call.ID)
	}
	if call.Status != domain.StatusPending {
		t.Errorf("expected status %q, got %q", domain.StatusPending, call.Status)
	}
	if call.CallAPIID != nil {
		t.Errorf("expected call_api_id to be unset on creation")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
