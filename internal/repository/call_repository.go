package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/onurcolak/call-scheduler/internal/domain"
)

const callColumns = "id, phone_number, scheduled_time, status, call_api_id, call_status, error_message, created_at, updated_at"

// CallRepository handles database operations for scheduled calls.
type CallRepository struct {
	db *sqlx.DB
}

func NewCallRepository(db *sqlx.DB) *CallRepository {
	return &CallRepository{db: db}
}

// Create inserts a new pending call scheduled for the given time.
func (r *CallRepository) Create(ctx context.Context, phoneNumber string, scheduledTime time.Time) (*domain.ScheduledCall, error) {
	query := `
		INSERT INTO scheduled_calls (phone_number, scheduled_time, status, created_at, updated_at)
		VALUES (?, ?, 'pending', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	`

	result, err := r.db.ExecContext(ctx, query, phoneNumber, scheduledTime)
	if err != nil {
		return nil, fmt.Errorf("failed to create call: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return r.GetByID(ctx, id)
}

// CreateInProgress inserts a call that has already been placed against the
// Call API (the call-now path), so it skips 'pending' entirely.
func (r *CallRepository) CreateInProgress(
	ctx context.Context,
	phoneNumber string,
	scheduledTime time.Time,
	callAPIID, callStatus string,
) (*domain.ScheduledCall, error) {
	query := `
		INSERT INTO scheduled_calls
			(phone_number, scheduled_time, status, call_api_id, call_status, created_at, updated_at)
		VALUES (?, ?, 'in-progress', ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	`

	result, err := r.db.ExecContext(ctx, query, phoneNumber, scheduledTime, callAPIID, callStatus)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-progress call: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return r.GetByID(ctx, id)
}

func (r *CallRepository) GetByID(ctx context.Context, id int64) (*domain.ScheduledCall, error) {
	query := `SELECT ` + callColumns + ` FROM scheduled_calls WHERE id = ?`

	var call domain.ScheduledCall
	if err := r.db.GetContext(ctx, &call, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrCallNotFound
		}
		return nil, fmt.Errorf("failed to get call: %w", err)
	}

	return &call, nil
}

func (r *CallRepository) GetAll(ctx context.Context) ([]domain.ScheduledCall, error) {
	query := `SELECT ` + callColumns + ` FROM scheduled_calls ORDER BY scheduled_time DESC`

	var calls []domain.ScheduledCall
	if err := r.db.SelectContext(ctx, &calls, query); err != nil {
		return nil, fmt.Errorf("failed to get calls: %w", err)
	}

	return calls, nil
}

// GetDuePending returns pending calls whose scheduled time is at or before now.
func (r *CallRepository) GetDuePending(ctx context.Context, now time.Time) ([]domain.ScheduledCall, error) {
	query := `
		SELECT ` + callColumns + `
		FROM scheduled_calls
		WHERE status = 'pending' AND scheduled_time <= ?
		ORDER BY scheduled_time ASC
	`

	var calls []domain.ScheduledCall
	if err := r.db.SelectContext(ctx, &calls, query, now); err != nil {
		return nil, fmt.Errorf("failed to get due pending calls: %w", err)
	}

	return calls, nil
}

func (r *CallRepository) GetInProgress(ctx context.Context) ([]domain.ScheduledCall, error) {
	query := `
		SELECT ` + callColumns + `
		FROM scheduled_calls
		WHERE status = 'in-progress'
	`

	var calls []domain.ScheduledCall
	if err := r.db.SelectContext(ctx, &calls, query); err != nil {
		return nil, fmt.Errorf("failed to get in-progress calls: %w", err)
	}

	return calls, nil
}

// ClaimForDispatch transitions a call from 'pending' to 'in-progress' as a
// single conditional update. Overlapping dispatcher runs race on this row;
// whichever run sees zero affected rows lost the race and must skip the call.
func (r *CallRepository) ClaimForDispatch(ctx context.Context, id int64) error {
	query := `
		UPDATE scheduled_calls
		SET status = 'in-progress', updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = 'pending'
	`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to claim call for dispatch: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}

	if rows == 0 {
		return domain.ErrAlreadyClaimed
	}

	return nil
}

// MarkDispatched records the external handle after a successful initiation.
// The call stays 'in-progress'; ClaimForDispatch already moved it there.
func (r *CallRepository) MarkDispatched(ctx context.Context, id int64, callAPIID, callStatus string) error {
	query := `
		UPDATE scheduled_calls
		SET call_api_id = ?, call_status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query, callAPIID, callStatus, id)
	if err != nil {
		return fmt.Errorf("failed to mark call as dispatched: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("no call found with id %d", id)
	}

	return nil
}

func (r *CallRepository) MarkFailed(ctx context.Context, id int64, errorMessage string) error {
	query := `
		UPDATE scheduled_calls
		SET status = 'failed', error_message = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	if _, err := r.db.ExecContext(ctx, query, errorMessage, id); err != nil {
		return fmt.Errorf("failed to mark call as failed: %w", err)
	}

	return nil
}

// UpdateCallStatus refreshes the last known external status without touching
// the local lifecycle status.
func (r *CallRepository) UpdateCallStatus(ctx context.Context, id int64, callStatus string) error {
	query := `
		UPDATE scheduled_calls
		SET call_status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	if _, err := r.db.ExecContext(ctx, query, callStatus, id); err != nil {
		return fmt.Errorf("failed to update call status: %w", err)
	}

	return nil
}

// MarkCompleted is conditional on the call still being in-progress so a
// completed or failed record is never moved again.
func (r *CallRepository) MarkCompleted(ctx context.Context, id int64) error {
	query := `
		UPDATE scheduled_calls
		SET status = 'completed', updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = 'in-progress'
	`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to mark call as completed: %w", err)
	}

	return nil
}

// Delete removes a call, but only while it is still pending. Distinguishes
// a missing record from one that has already left 'pending'.
func (r *CallRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM scheduled_calls WHERE id = ? AND status = 'pending'`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete call: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}

	if rows == 0 {
		// Either the call never existed or it is no longer pending.
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return domain.ErrCallNotPending
	}

	return nil
}

// GetStats returns the number of calls per lifecycle status.
func (r *CallRepository) GetStats(ctx context.Context) (pending, inProgress, completed, failed int64, err error) {
	query := `
		SELECT
			COALESCE(SUM(CASE WHEN status = 'pending' THEN 1 ELSE 0 END), 0)     AS pending,
			COALESCE(SUM(CASE WHEN status = 'in-progress' THEN 1 ELSE 0 END), 0) AS in_progress,
			COALESCE(SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END), 0)   AS completed,
			COALESCE(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0)      AS failed
		FROM scheduled_calls
	`

	var stats struct {
		Pending    int64 `db:"pending"`
		InProgress int64 `db:"in_progress"`
		Completed  int64 `db:"completed"`
		Failed     int64 `db:"failed"`
	}

	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return 0, 0, 0, 0, fmt.Errorf("failed to get stats: %w", err)
	}

	return stats.Pending, stats.InProgress, stats.Completed, stats.Failed, nil
}
