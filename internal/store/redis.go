package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig configures the Redis backend
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// NewRedisStore connects to Redis and builds both repositories
func NewRedisStore(ctx context.Context, cfg RedisConfig, cursors *CursorCodec) (*Store, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}
	return &Store{
		Tenants: NewRedisTenantRepository(rdb, cfg.KeyPrefix, cursors),
		Orders:  NewRedisOrderRepository(rdb, cfg.KeyPrefix, cursors),
		close:   rdb.Close,
	}, nil
}

// Records are JSON strings; secondary indexes are sorted sets with every score
// at zero, so members are ordered lexicographically and pages are read with
// ZRANGEBYLEX from an exclusive start member.

// lexPosition is scoped to the index key it was read from
type lexPosition struct {
	Index  string `json:"i"`
	Member string `json:"m"`
}

// createdKey renders t so that lexicographic order equals time order
func createdKey(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000000Z")
}

func indexMember(created time.Time, id string) string {
	return createdKey(created) + "#" + id
}

func zMember(member string) redis.Z {
	return redis.Z{Score: 0, Member: member}
}

// pageMembers reads up to limit members of index after the cursor position
// and returns them together with the next cursor.
func pageMembers(ctx context.Context, rdb redis.Cmdable, cursors *CursorCodec, index string, limit int, cursor string) ([]string, string, error) {
	limit = normalizeLimit(limit)

	start := "-"
	if cursor != "" {
		var pos lexPosition
		if err := cursors.Decode(cursor, &pos); err != nil {
			return nil, "", err
		}
		if err := checkScope(pos.Index, index); err != nil {
			return nil, "", err
		}
		start = "(" + pos.Member
	}

	members, err := rdb.ZRangeByLex(ctx, index, &redis.ZRangeBy{
		Min:    start,
		Max:    "+",
		Offset: 0,
		Count:  int64(limit + 1),
	}).Result()
	if err != nil {
		return nil, "", fmt.Errorf("range %s: %w", index, err)
	}

	if len(members) <= limit {
		return members, "", nil
	}
	members = members[:limit]
	next, err := cursors.Encode(lexPosition{Index: index, Member: members[limit-1]})
	if err != nil {
		return nil, "", err
	}
	return members, next, nil
}

// memberID strips the time prefix of a time-ordered index member
func memberID(member string) string {
	for i := len(member) - 1; i >= 0; i-- {
		if member[i] == '#' {
			return member[i+1:]
		}
	}
	return member
}

// getJSON returns the raw record at key, or nil when absent
func getJSON(ctx context.Context, rdb redis.Cmdable, key string) ([]byte, error) {
	raw, err := rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// mgetJSON returns the raw records at keys in order, skipping missing ones
func mgetJSON(ctx context.Context, rdb redis.Cmdable, keys []string) ([][]byte, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	vals, err := rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	out := make([][]byte, 0, len(vals))
	for _, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		out = append(out, []byte(s))
	}
	return out, nil
}
