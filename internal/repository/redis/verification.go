package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

const (
	verifyCachePrefix = "verify:"
	verifyCacheTTL    = 7 * 24 * time.Hour
)

// VerificationResult is the cached judge output for one slide's content
type VerificationResult struct {
	ContentHash string    `json:"content_hash"`
	Score       float64   `json:"score"`
	VerifiedAt  time.Time `json:"verified_at"`
}

// VerificationCache is the content-addressed verification cache: keyed by
// a hash of the slide HTML itself, so unchanged slides are recognized
// without re-verification no matter how the deck around them moved.
type VerificationCache struct {
	client *Client
}

// NewVerificationCache creates a new verification cache
func NewVerificationCache(client *Client) *VerificationCache {
	return &VerificationCache{client: client}
}

// Get retrieves a cached verification for a content hash. A miss returns
// nil, nil.
func (c *VerificationCache) Get(ctx context.Context, contentHash string) (*VerificationResult, error) {
	key := verifyCachePrefix + contentHash

	data, err := c.client.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return nil, nil // Cache miss
	}

	var result VerificationResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal verification: %w", err)
	}

	return &result, nil
}

// Set caches the verification for a content hash
func (c *VerificationCache) Set(ctx context.Context, result *VerificationResult) error {
	key := verifyCachePrefix + result.ContentHash

	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal verification: %w", err)
	}

	return c.client.rdb.Set(ctx, key, data, verifyCacheTTL).Err()
}
