package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/onurcolak/call-scheduler/environments"
	"github.com/onurcolak/call-scheduler/internal/domain"
	"github.com/onurcolak/call-scheduler/pkg/logger"
)

// Client caches completed-call outcomes so the UI can show recent completions
// without scanning the whole table. The service runs fine without it.
type Client struct {
	client valkey.Client
}

const (
	completedCallKeyPrefix = "completed_call:"
	completedCallTTL       = 24 * time.Hour
)

func NewRedisClient(cfg environments.RedisConfig) (*Client, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{fmt.Sprintf("%s:%s", cfg.Host, cfg.Port)},
		Password:    cfg.Password,
		SelectDB:    cfg.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Valkey client: %w", err)
	}

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()

		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Infof("Connected to Redis (via Valkey client)")

	return &Client{client: client}, nil
}

func (c *Client) CacheCompletedCall(ctx context.Context, callID int64, callAPIID, callStatus string, completedAt time.Time) error {
	cache := domain.CompletedCallCache{
		CallAPIID:   callAPIID,
		CallStatus:  callStatus,
		CompletedAt: completedAt,
	}

	data, err := json.Marshal(cache)
	if err != nil {
		return fmt.Errorf("failed to marshal cache data: %w", err)
	}

	key := fmt.Sprintf("%s%d", completedCallKeyPrefix, callID)

	err = c.client.Do(ctx, c.client.B().Set().Key(key).Value(string(data)).Ex(completedCallTTL).Build()).Error()
	if err != nil {
		return fmt.Errorf("failed to cache completed call: %w", err)
	}

	logger.Debugf("Cached completed call %d -> %s in Redis", callID, callAPIID)

	return nil
}

func (c *Client) GetCachedCall(ctx context.Context, callID int64) (*domain.CompletedCallCache, error) {
	key := fmt.Sprintf("%s%d", completedCallKeyPrefix, callID)

	result := c.client.Do(ctx, c.client.B().Get().Key(key).Build())
	if result.Error() != nil {
		if valkey.IsValkeyNil(result.Error()) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cached call: %w", result.Error())
	}

	data, err := result.ToString()
	if err != nil {
		return nil, fmt.Errorf("failed to read cached call: %w", err)
	}

	var cache domain.CompletedCallCache
	if err := json.Unmarshal([]byte(data), &cache); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache data: %w", err)
	}

	return &cache, nil
}

func (c *Client) GetAllCachedCalls(ctx context.Context) (map[int64]*domain.CompletedCallCache, error) {
	pattern := fmt.Sprintf("%s*", completedCallKeyPrefix)

	var keys []string
	var cursor uint64
	for {
		result := c.client.Do(ctx, c.client.B().Scan().Cursor(cursor).Match(pattern).Count(100).Build())
		if result.Error() != nil {
			return nil, fmt.Errorf("failed to scan cache keys: %w", result.Error())
		}

		scanResult, err := result.AsScanEntry()
		if err != nil {
			return nil, fmt.Errorf("failed to parse scan result: %w", err)
		}

		keys = append(keys, scanResult.Elements...)
		cursor = scanResult.Cursor

		if cursor == 0 {
			break
		}
	}

	result := make(map[int64]*domain.CompletedCallCache)

	for _, key := range keys {
		getResult := c.client.Do(ctx, c.client.B().Get().Key(key).Build())
		if getResult.Error() != nil {
			continue
		}

		data, err := getResult.ToString()
		if err != nil {
			continue
		}

		var cache domain.CompletedCallCache
		if err := json.Unmarshal([]byte(data), &cache); err != nil {
			continue
		}

		var callID int64

		if _, err := fmt.Sscanf(key, completedCallKeyPrefix+"%d", &callID); err != nil {
			logger.Warnf("failed to parse call id from redis key %q: %v", key, err)
			continue
		}

		result[callID] = &cache
	}

	return result, nil
}

func (c *Client) Close() error {
	c.client.Close()
	return nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.client.Do(ctx, c.client.B().Ping().Build()).Error()
}
