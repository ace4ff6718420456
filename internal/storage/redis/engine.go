// Package redisad keeps the object store in Redis, one hash per kind.
package redisad

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"hbnb_api/internal/domain"
)

const keyPrefix = "hbnb:"

type Engine struct{ c *redis.Client }

func New(addr, pass string, db int) *Engine {
	return NewFromClient(redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db}))
}

func NewFromClient(c *redis.Client) *Engine { return &Engine{c: c} }

func hashKey(k domain.Kind) string { return keyPrefix + string(k) }

func (r *Engine) Ping(ctx context.Context) error { return r.c.Ping(ctx).Err() }

// Store swaps every hash inside MULTI/EXEC so readers never observe a
// partial write.
func (r *Engine) Store(ctx context.Context, s *domain.Snapshot) error {
	fields := make(map[domain.Kind]map[string]any, len(domain.Kinds))
	for _, e := range s.Entities() {
		b, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", e.Kind(), e.Meta().ID, err)
		}
		if fields[e.Kind()] == nil {
			fields[e.Kind()] = map[string]any{}
		}
		fields[e.Kind()][e.Meta().ID] = b
	}

	keys := make([]string, 0, len(domain.Kinds))
	for _, k := range domain.Kinds {
		keys = append(keys, hashKey(k))
	}
	_, err := r.c.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, keys...)
		for _, k := range domain.Kinds {
			if len(fields[k]) > 0 {
				p.HSet(ctx, hashKey(k), fields[k])
			}
		}
		return nil
	})
	return err
}

func (r *Engine) Load(ctx context.Context) (*domain.Snapshot, error) {
	snap := &domain.Snapshot{}
	for _, k := range domain.Kinds {
		vals, err := r.c.HGetAll(ctx, hashKey(k)).Result()
		if err != nil {
			return nil, err
		}
		for id, raw := range vals {
			e := domain.New(k)
			if err := json.Unmarshal([]byte(raw), e); err != nil {
				return nil, fmt.Errorf("decode %s %s: %w", k, id, err)
			}
			snap.Add(e)
		}
	}
	return snap, nil
}

func (r *Engine) Close() error { return r.c.Close() }
