package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/onurcolak/call-scheduler/internal/domain"
	"github.com/onurcolak/call-scheduler/pkg/logger"
)

// Small internal interfaces so we can test without touching real DB/Redis/API.
type callRepository interface {
	Create(ctx context.Context, phoneNumber string, scheduledTime time.Time) (*domain.ScheduledCall, error)
	CreateInProgress(ctx context.Context, phoneNumber string, scheduledTime time.Time, callAPIID, callStatus string) (*domain.ScheduledCall, error)
	GetByID(ctx context.Context, id int64) (*domain.ScheduledCall, error)
	GetAll(ctx context.Context) ([]domain.ScheduledCall, error)
	GetDuePending(ctx context.Context, now time.Time) ([]domain.ScheduledCall, error)
	GetInProgress(ctx context.Context) ([]domain.ScheduledCall, error)
	ClaimForDispatch(ctx context.Context, id int64) error
	MarkDispatched(ctx context.Context, id int64, callAPIID, callStatus string) error
	MarkFailed(ctx context.Context, id int64, errorMessage string) error
	UpdateCallStatus(ctx context.Context, id int64, callStatus string) error
	MarkCompleted(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
	GetStats(ctx context.Context) (pending, inProgress, completed, failed int64, err error)
}

type callAPIClient interface {
	InitiateCall(ctx context.Context, phoneNumber string) (*domain.CallInitiation, error)
	GetCallStatus(ctx context.Context, callAPIID string) (string, error)
}

type redisClient interface {
	CacheCompletedCall(ctx context.Context, callID int64, callAPIID, callStatus string, completedAt time.Time) error
	GetAllCachedCalls(ctx context.Context) (map[int64]*domain.CompletedCallCache, error)
}

// terminalStatuses maps external call statuses to local lifecycle statuses.
// Only "completed" is recognized today; any other external outcome leaves the
// record in-progress and polled again on the next tick.
var terminalStatuses = map[string]domain.CallStatus{
	"completed": domain.StatusCompleted,
}

type CallService struct {
	repo        callRepository
	callAPI     callAPIClient
	redisClient redisClient
}

func NewCallService(repo callRepository, callAPI callAPIClient, redisClient redisClient) *CallService {
	return &CallService{
		repo:        repo,
		callAPI:     callAPI,
		redisClient: redisClient,
	}
}

// DispatchDueCalls is the dispatcher tick body: promote every due pending
// call into execution, at most once per call.
func (s *CallService) DispatchDueCalls(ctx context.Context) ([]domain.DispatchResult, error) {
	now := time.Now()

	calls, err := s.repo.GetDuePending(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to get due pending calls: %w", err)
	}

	if len(calls) == 0 {
		logger.Debugf("No due calls to dispatch")
		return nil, nil
	}

	logger.Infof("Dispatching %d due calls", len(calls))

	results := make([]domain.DispatchResult, 0, len(calls))

	for _, call := range calls {
		results = append(results, s.dispatchCall(ctx, &call))
	}

	return results, nil
}

func (s *CallService) dispatchCall(ctx context.Context, call *domain.ScheduledCall) domain.DispatchResult {
	result := domain.DispatchResult{CallID: call.ID}

	// Claim before touching the network. A slow overlapping dispatcher run
	// may still hold this call in its snapshot; the conditional update makes
	// sure exactly one run initiates it.
	if err := s.repo.ClaimForDispatch(ctx, call.ID); err != nil {
		if errors.Is(err, domain.ErrAlreadyClaimed) {
			logger.Debugf("Call %d already claimed by another run, skipping", call.ID)
			result.Skipped = true
			return result
		}

		logger.Errorf("Failed to claim call %d: %v", call.ID, err)
		result.Error = err
		return result
	}

	initiation, err := s.callAPI.InitiateCall(ctx, call.PhoneNumber)
	if err != nil {
		logger.Errorf("Failed to initiate call %d: %v", call.ID, err)
		result.Error = err

		if markErr := s.repo.MarkFailed(ctx, call.ID, fmt.Sprintf("Failed to initiate call: %v", err)); markErr != nil {
			logger.Errorf("Failed to mark call %d as failed: %v", call.ID, markErr)
		}

		return result
	}

	if err := s.repo.MarkDispatched(ctx, call.ID, initiation.ID, initiation.Status); err != nil {
		logger.Errorf("Failed to record dispatch of call %d: %v", call.ID, err)
		result.Error = err
		return result
	}

	logger.Infof("Dispatched call %d (callApiId: %s, status: %s)", call.ID, initiation.ID, initiation.Status)

	result.Success = true
	result.CallAPIID = initiation.ID

	return result
}

// PollInProgressCalls is the poller tick body: converge local state with the
// Call API's view of every in-progress call.
func (s *CallService) PollInProgressCalls(ctx context.Context) ([]domain.PollResult, error) {
	calls, err := s.repo.GetInProgress(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get in-progress calls: %w", err)
	}

	if len(calls) == 0 {
		return nil, nil
	}

	logger.Debugf("Polling %d in-progress calls", len(calls))

	results := make([]domain.PollResult, 0, len(calls))

	for _, call := range calls {
		results = append(results, s.pollCall(ctx, &call))
	}

	return results, nil
}

func (s *CallService) pollCall(ctx context.Context, call *domain.ScheduledCall) domain.PollResult {
	result := domain.PollResult{CallID: call.ID}

	// A record without an external handle cannot be polled. This only
	// happens if MarkDispatched failed after a successful initiation.
	if call.CallAPIID == nil || *call.CallAPIID == "" {
		result.Skipped = true
		return result
	}

	callStatus, err := s.callAPI.GetCallStatus(ctx, *call.CallAPIID)
	if err != nil {
		// Leave the record untouched; the next tick retries.
		logger.Errorf("Failed to poll call %d (callApiId: %s): %v", call.ID, *call.CallAPIID, err)
		result.Error = err
		return result
	}

	result.CallStatus = callStatus

	if err := s.repo.UpdateCallStatus(ctx, call.ID, callStatus); err != nil {
		logger.Errorf("Failed to update status of call %d: %v", call.ID, err)
		result.Error = err
		return result
	}

	if localStatus, terminal := terminalStatuses[callStatus]; terminal && localStatus == domain.StatusCompleted {
		if err := s.repo.MarkCompleted(ctx, call.ID); err != nil {
			logger.Errorf("Failed to mark call %d as completed: %v", call.ID, err)
			result.Error = err
			return result
		}

		result.Completed = true
		logger.Infof("Call %d completed (callApiId: %s)", call.ID, *call.CallAPIID)

		if s.redisClient != nil {
			if err := s.redisClient.CacheCompletedCall(ctx, call.ID, *call.CallAPIID, callStatus, time.Now()); err != nil {
				logger.Warnf("Failed to cache completed call %d to Redis: %v", call.ID, err)
			}
		}
	}

	return result
}

// ScheduleCall creates a pending call to be dispatched at scheduledTime.
func (s *CallService) ScheduleCall(ctx context.Context, phoneNumber string, scheduledTime time.Time) (*domain.ScheduledCall, error) {
	return s.repo.Create(ctx, phoneNumber, scheduledTime)
}

// CallNow places the call immediately and stores the record already
// in-progress; a Call API failure surfaces to the caller instead of a record.
func (s *CallService) CallNow(ctx context.Context, phoneNumber string) (*domain.ScheduledCall, error) {
	initiation, err := s.callAPI.InitiateCall(ctx, phoneNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to initiate call: %w", err)
	}

	return s.repo.CreateInProgress(ctx, phoneNumber, time.Now(), initiation.ID, initiation.Status)
}

func (s *CallService) GetCall(ctx context.Context, id int64) (*domain.ScheduledCall, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *CallService) GetAllCalls(ctx context.Context) ([]domain.ScheduledCall, error) {
	return s.repo.GetAll(ctx)
}

func (s *CallService) DeleteCall(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func (s *CallService) GetStats(ctx context.Context) (pending, inProgress, completed, failed int64, err error) {
	return s.repo.GetStats(ctx)
}

func (s *CallService) GetCachedCalls(ctx context.Context) (map[int64]*domain.CompletedCallCache, error) {
	if s.redisClient == nil {
		return nil, fmt.Errorf("redis client not configured")
	}
	return s.redisClient.GetAllCachedCalls(ctx)
}
