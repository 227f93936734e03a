// Package cache provides a short-TTL redis cache for composed dashboards.
// The cache is optional: when REDIS_ADDR is unset the service composes on
// every request.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/CryptracSolutions/ultaura-insights/internal/platform/envutil"
	"github.com/CryptracSolutions/ultaura-insights/internal/platform/logger"
)

// DefaultTTLSeconds keeps a composed dashboard hot for a minute; override
// with DASHBOARD_CACHE_TTL_SECONDS.
const DefaultTTLSeconds = 60

type DashboardCache struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

func NewDashboardCache(baseLog *logger.Logger) (*DashboardCache, error) {
	addr := envutil.Get("REDIS_ADDR", "")
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &DashboardCache{
		log: baseLog.With("service", "DashboardCache"),
		rdb: rdb,
		ttl: time.Duration(envutil.Int("DASHBOARD_CACHE_TTL_SECONDS", DefaultTTLSeconds)) * time.Second,
	}, nil
}

func dashboardKey(lineID uuid.UUID) string {
	return "insights:dashboard:" + lineID.String()
}

// Get unmarshals a cached dashboard into dest. Returns false on miss or on
// any redis error; a flaky cache must never fail the request.
func (c *DashboardCache) Get(ctx context.Context, lineID uuid.UUID, dest any) bool {
	if c == nil || c.rdb == nil {
		return false
	}
	raw, err := c.rdb.Get(ctx, dashboardKey(lineID)).Bytes()
	if err != nil {
		if err != goredis.Nil {
			c.log.Warn("dashboard cache read failed", "error", err)
		}
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		c.log.Warn("bad cached dashboard payload", "error", err)
		return false
	}
	return true
}

func (c *DashboardCache) Set(ctx context.Context, lineID uuid.UUID, value any) {
	if c == nil || c.rdb == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		c.log.Warn("dashboard cache marshal failed", "error", err)
		return
	}
	if err := c.rdb.Set(ctx, dashboardKey(lineID), raw, c.ttl).Err(); err != nil {
		c.log.Warn("dashboard cache write failed", "error", err)
	}
}

// Invalidate drops the cached dashboard for a line. Settings writes call this
// so a caregiver sees their change on the next load instead of after the TTL.
func (c *DashboardCache) Invalidate(ctx context.Context, lineID uuid.UUID) {
	if c == nil || c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, dashboardKey(lineID)).Err(); err != nil {
		c.log.Warn("dashboard cache invalidate failed", "error", err)
	}
}

func (c *DashboardCache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
