package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const venueSeatsTTL = 3 * time.Second

type Config struct {
	Addr         string
	Password     string
	DB           int
	UsersHashKey string
}

// Client fronts Redis for the two hot read paths: bearer-token resolution and
// the per-venue seat snapshot. Seat snapshots use a short TTL; the stream
// deltas carry the real-time truth, the snapshot only has to be close.
type Client struct {
	client       *redis.Client
	usersHashKey string
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.Addr == "" {
		cfg.Addr = "localhost:6379"
	}
	if cfg.UsersHashKey == "" {
		cfg.UsersHashKey = "users:auth"
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		DialTimeout:  5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Client{
		client:       rdb,
		usersHashKey: cfg.UsersHashKey,
	}, nil
}

// TokenDigest computes the hash under which a bearer token is stored.
func TokenDigest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// GetUserIDByToken resolves a bearer token from the auth hash. redis.Nil maps
// to (0, nil) so callers fall back to the database.
func (c *Client) GetUserIDByToken(ctx context.Context, token string) (int64, error) {
	userIDStr, err := c.client.HGet(ctx, c.usersHashKey, TokenDigest(token)).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		return 0, fmt.Errorf("cache lookup error: %w", err)
	}

	userID, err := strconv.ParseInt(userIDStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid user ID in cache: %w", err)
	}

	return userID, nil
}

// SetUserToken caches a resolved token digest for later lookups.
func (c *Client) SetUserToken(ctx context.Context, token string, userID int64) error {
	return c.client.HSet(ctx, c.usersHashKey, TokenDigest(token), strconv.FormatInt(userID, 10)).Err()
}

func venueSeatsKey(venueID int64) string {
	return fmt.Sprintf("venue:%d:seats", venueID)
}

// GetVenueSeatsRaw returns the cached JSON snapshot, or nil on a miss.
func (c *Client) GetVenueSeatsRaw(ctx context.Context, venueID int64) ([]byte, error) {
	data, err := c.client.Get(ctx, venueSeatsKey(venueID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("cache lookup error: %w", err)
	}
	return data, nil
}

func (c *Client) SetVenueSeats(ctx context.Context, venueID int64, data []byte) error {
	return c.client.Set(ctx, venueSeatsKey(venueID), data, venueSeatsTTL).Err()
}

func (c *Client) InvalidateVenueSeats(ctx context.Context, venueID int64) error {
	return c.client.Del(ctx, venueSeatsKey(venueID)).Err()
}

func (c *Client) Close() error {
	return c.client.Close()
}
