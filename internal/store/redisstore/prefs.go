// Package redisstore keeps per-user model preferences in Redis. The server
// runs fine without it; a nil *Prefs disables preference reads and writes.
package redisstore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "herochat:model:"
	// GlobalUser keys the process-wide preference used when a request
	// carries no user id.
	GlobalUser = "global"
)

type Prefs struct {
	rdb *redis.Client
}

func New(addr, password string, db int) *Prefs {
	return &Prefs{rdb: redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})}
}

func (p *Prefs) Close() error {
	if p == nil {
		return nil
	}
	return p.rdb.Close()
}

// SetModel records the preferred model id for a user.
func (p *Prefs) SetModel(ctx context.Context, userID, modelID string) error {
	if p == nil {
		return nil
	}
	if userID == "" {
		userID = GlobalUser
	}
	cctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return p.rdb.Set(cctx, keyPrefix+userID, modelID, 0).Err()
}

// GetModel returns the stored preference, or "" when none is set or the
// lookup fails; preference reads are best effort.
func (p *Prefs) GetModel(ctx context.Context, userID string) string {
	if p == nil {
		return ""
	}
	if userID == "" {
		userID = GlobalUser
	}
	cctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	v, err := p.rdb.Get(cctx, keyPrefix+userID).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			return ""
		}
		// fall back to the global preference
		v, err = p.rdb.Get(cctx, keyPrefix+GlobalUser).Result()
		if err != nil {
			return ""
		}
	}
	return v
}
