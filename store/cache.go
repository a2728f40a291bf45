package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	leadgen "github.com/osr-alliance/backend-lib-leadgen"
)

// cacheKeyLeads is the key of one session list, e.g.
// `service:leadgen|session_leads|session_id:6f1c...|kind:score`
const cacheKeyLeads = "service:%s|session_leads|session_id:%v|kind:%v"

// every list key has a write counter next to it; fills are only stored while it is unchanged
const cacheKeyVersionSuffix = "|version"

// errStaleFill means a write landed between reading a list and caching it
var errStaleFill = errors.New("list changed while it was being cached")

type cache struct {
	*redis.Client
	service    string
	versionTTL time.Duration
}

func newCache(conn *redis.Client, service string, versionTTL time.Duration) *cache {
	return &cache{
		Client:     conn,
		service:    service,
		versionTTL: versionTTL,
	}
}

func (c *cache) leadsKey(sessionID string, kind leadgen.ListKind) string {
	return fmt.Sprintf(cacheKeyLeads, c.service, sessionID, kind)
}

func versionKey(key string) string {
	return key + cacheKeyVersionSuffix
}

func (c *cache) get(ctx context.Context, key string, value interface{}) error {
	str, err := c.Get(ctx, key).Result()
	if err != nil {
		// returns err redis.Nil if key does not exist
		return err
	}

	return json.Unmarshal([]byte(str), value)
}

// version returns the write counter of key; 0 when nothing was written yet.
// Read it before loading the value from the database.
func (c *cache) version(ctx context.Context, key string) (int64, error) {
	v, err := c.Get(ctx, versionKey(key)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return v, err
}

// fill stores value as JSON unless key was invalidated after version was read, in which case
// it returns errStaleFill. A ttl <= 0 means the key doesn't expire.
func (c *cache) fill(ctx context.Context, key string, version int64, value interface{}, ttl time.Duration) error {
	str, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if ttl < 0 {
		ttl = 0
	}

	vkey := versionKey(key)
	err = c.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, vkey).Int64()
		if err != nil && err != redis.Nil {
			return err
		}
		if cur != version {
			return errStaleFill
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, str, ttl)
			return nil
		})
		return err
	}, vkey)
	if err == redis.TxFailedErr {
		return errStaleFill
	}
	return err
}

// invalidate drops the cached lists of a session and bumps their write counters so fills that
// started before the write are discarded.
func (c *cache) invalidate(ctx context.Context, sessionID string, kinds ...leadgen.ListKind) error {
	if len(kinds) == 0 {
		kinds = leadgen.ListKinds
	}
	_, err := c.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, k := range kinds {
			key := c.leadsKey(sessionID, k)
			pipe.Del(ctx, key)
			pipe.Incr(ctx, versionKey(key))
			if c.versionTTL > 0 {
				pipe.Expire(ctx, versionKey(key), c.versionTTL)
			}
		}
		return nil
	})
	return err
}
