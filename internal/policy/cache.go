package policy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// CandidateCache stores candidate record sets per resource in Redis.
// Only the stored records are cached, never decisions: the evaluator
// still runs on every check. Entries are serialised through
// RecordFields and rebuilt with NewRecord on the way out.
type CandidateCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCandidateCache instantiates the cache helper. A nil client
// disables caching.
func NewCandidateCache(client *redis.Client, ttl time.Duration) *CandidateCache {
	return &CandidateCache{client: client, ttl: ttl}
}

func candidateKey(kind ResourceKind, resourceID string) string {
	return fmt.Sprintf("policy:candidates:%s:%s", kind, resourceID)
}

// Get loads a cached candidate set. The second return reports a hit.
func (c *CandidateCache) Get(ctx context.Context, kind ResourceKind, resourceID string) ([]Record, bool, error) {
	if c == nil || c.client == nil {
		return nil, false, nil
	}
	raw, err := c.client.Get(ctx, candidateKey(kind, resourceID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var fields []RecordFields
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, false, err
	}
	records := make([]Record, 0, len(fields))
	for _, f := range fields {
		rec, err := NewRecord(f)
		if err != nil {
			// A stale entry that no longer validates is treated as a miss.
			return nil, false, nil
		}
		records = append(records, rec)
	}
	return records, true, nil
}

// Set stores a candidate set under the resource key.
func (c *CandidateCache) Set(ctx context.Context, kind ResourceKind, resourceID string, records []Record) error {
	if c == nil || c.client == nil {
		return nil
	}
	fields := make([]RecordFields, len(records))
	for i, rec := range records {
		fields[i] = rec.Fields()
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, candidateKey(kind, resourceID), raw, c.ttl).Err()
}

// Invalidate drops the cached set for one resource.
func (c *CandidateCache) Invalidate(ctx context.Context, kind ResourceKind, resourceID string) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, candidateKey(kind, resourceID)).Err()
}

// InvalidateKind drops every cached set for a resource kind. Used when
// a global record changes, since it affects every instance.
func (c *CandidateCache) InvalidateKind(ctx context.Context, kind ResourceKind) error {
	if c == nil || c.client == nil {
		return nil
	}
	var cursor uint64
	pattern := fmt.Sprintf("policy:candidates:%s:*", kind)
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}
