package internal

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// GroupCache is an optional write-through mirror of group membership
// (group_id -> []addr) for external visibility and debugging. The
// in-process GroupRouter remains the single source of truth consulted by
// the fan-out coordinator; a Redis outage here never affects routing
// correctness, only the mirror's freshness (§9 supplemented features).
type GroupCache struct {
	client  *redis.Client
	ctx     context.Context
	Enabled bool
	mu      sync.Mutex
}

// NewGroupCache connects to Redis if enabled in configuration, returning
// nil when disabled so callers can treat a nil *GroupCache as a no-op.
func NewGroupCache(cfg *Config) *GroupCache {
	if !cfg.Database.RedisEnabled {
		log.Println("⚠️ group cache mirror disabled in configuration")
		return nil
	}

	log.Println("🔌 connecting to group cache mirror at:", cfg.Database.RedisAddr)

	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.Database.RedisAddr,
		DB:   0,
	})

	ctx := context.Background()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("❌ group cache mirror connection failed: %v", err)
		return nil
	}

	log.Println("✅ group cache mirror connected")
	return &GroupCache{
		client:  rdb,
		ctx:     ctx,
		Enabled: true,
	}
}

func groupKey(groupID string) string {
	return "sfu:group:" + groupID
}

// MirrorJoin records addr's membership in groupID, diagnostic only.
func (g *GroupCache) MirrorJoin(groupID, addr string) {
	if g == nil || !g.Enabled {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.client.SAdd(g.ctx, groupKey(groupID), addr).Err(); err != nil {
		log.Printf("❌ group cache mirror join failed: %v", err)
	}
}

// MirrorLeave removes addr from groupID's mirrored membership set.
func (g *GroupCache) MirrorLeave(groupID, addr string) {
	if g == nil || !g.Enabled {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.client.SRem(g.ctx, groupKey(groupID), addr).Err(); err != nil {
		log.Printf("❌ group cache mirror leave failed: %v", err)
	}
}

// Members returns the mirrored membership set for groupID, for debugging
// endpoints. Never consulted by the fan-out hot path.
func (g *GroupCache) Members(groupID string) ([]string, error) {
	if g == nil || !g.Enabled {
		return nil, nil
	}
	return g.client.SMembers(g.ctx, groupKey(groupID)).Result()
}

// CheckHealth periodically pings Redis and logs availability changes.
func (g *GroupCache) CheckHealth(interval time.Duration) {
	if g == nil || !g.Enabled {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		if err := g.client.Ping(g.ctx).Err(); err != nil {
			log.Printf("🚨 group cache mirror health check failed: %v", err)
		}
	}
}

// AllGroupKeys lists every mirrored group key, used by debugging/health
// surfaces that want a coarse view of active groups.
func (g *GroupCache) AllGroupKeys() ([]string, error) {
	if g == nil || !g.Enabled {
		return nil, nil
	}
	keys, err := g.client.Keys(g.ctx, "sfu:group:*").Result()
	if err != nil {
		return nil, fmt.Errorf("list group keys: %w", err)
	}
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, strings.TrimPrefix(k, "sfu:group:"))
	}
	return out, nil
}

// Close gracefully shuts down the Redis connection.
func (g *GroupCache) Close() error {
	if g == nil || !g.Enabled {
		return nil
	}
	log.Println("🔌 closing group cache mirror connection")
	return g.client.Close()
}
