package callapi

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/onurcolak/call-scheduler/environments"
	"github.com/onurcolak/call-scheduler/internal/domain"
	"github.com/onurcolak/call-scheduler/pkg/logger"
)

// Client talks to the external Call API that actually places phone calls.
// No transport-level retries: a timed-out initiation may still have placed
// the call, and re-sending it would dial the number twice.
type Client struct {
	httpClient *resty.Client
	baseURL    string
}

type initiateRequest struct {
	PhoneNumber string `json:"phone_number"`
}

type callEnvelope struct {
	Success bool                  `json:"success"`
	Call    domain.CallInitiation `json:"call"`
}

func NewClient(cfg environments.CallAPIConfig) *Client {
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{
		httpClient: client,
		baseURL:    cfg.URL,
	}
}

// InitiateCall asks the Call API to place a call to the given number and
// returns the external handle and initial status.
func (c *Client) InitiateCall(ctx context.Context, phoneNumber string) (*domain.CallInitiation, error) {
	var envelope callEnvelope

	startTime := time.Now()

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(initiateRequest{PhoneNumber: phoneNumber}).
		SetResult(&envelope).
		Post(c.baseURL + "/api/call")

	duration := time.Since(startTime)

	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	logger.Infof("Call API initiate request completed in %v (status: %d)", duration, resp.StatusCode())

	if resp.IsError() {
		return nil, fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode(), resp.String())
	}

	if !envelope.Success {
		return nil, fmt.Errorf("call API reported failure, body: %s", resp.String())
	}

	return &envelope.Call, nil
}

// GetCallStatus fetches the authoritative status of a previously placed call.
func (c *Client) GetCallStatus(ctx context.Context, callAPIID string) (string, error) {
	var envelope callEnvelope

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(&envelope).
		Get(c.baseURL + "/api/call/" + callAPIID)

	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}

	if resp.IsError() {
		return "", fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode(), resp.String())
	}

	if !envelope.Success {
		return "", fmt.Errorf("call API reported failure, body: %s", resp.String())
	}

	return envelope.Call.Status, nil
}

func (c *Client) GetURL() string {
	return c.baseURL
}
