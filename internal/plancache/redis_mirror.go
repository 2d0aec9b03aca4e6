package plancache

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisPlanCacheMirror is the production Mirror: it never ships a
// compiled plan over the wire, only the fact that a (shape_id,
// schema_fingerprint) pair has been compiled somewhere in the fleet
// before. This is the same client and TTL-bucket key shape the
// teacher's storage.RedisGridCache uses for its own cache entries,
// repurposed here as a cheap cross-instance seen-set rather than a
// payload cache.
type RedisPlanCacheMirror struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisPlanCacheMirror wires a mirror against client. An empty
// prefix defaults to "streamgrid:plan-seen:"; ttl bounds how long a
// sighting is remembered, so a plan retired fleet-wide eventually
// reports as a fresh miss again instead of lingering forever.
func NewRedisPlanCacheMirror(client *redis.Client, prefix string, ttl time.Duration) *RedisPlanCacheMirror {
	if prefix == "" {
		prefix = "streamgrid:plan-seen:"
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisPlanCacheMirror{client: client, prefix: prefix, ttl: ttl}
}

func (m *RedisPlanCacheMirror) key(k Key) string {
	return m.prefix + k.ShapeID + ":" + strconv.FormatUint(k.SchemaFingerprint, 16)
}

// Seen reports whether this key has been marked before. Redis errors
// are treated as "not seen" — the mirror is a telemetry optimization,
// never load-bearing for correctness, so a degraded Redis must not
// turn into a failed request.
func (m *RedisPlanCacheMirror) Seen(k Key) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	n, err := m.client.Exists(ctx, m.key(k)).Result()
	if err != nil {
		return false
	}
	return n > 0
}

// MarkSeen records this key with the mirror's TTL. Failures are
// swallowed for the same reason Seen treats errors as "not seen".
func (m *RedisPlanCacheMirror) MarkSeen(k Key) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	m.client.Set(ctx, m.key(k), 1, m.ttl)
}
