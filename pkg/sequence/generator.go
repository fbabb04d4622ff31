package sequence

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

var Module = fx.Module("sequence",
	fx.Provide(NewRedisGenerator),
)

// Generator hands out short monotonically increasing codes for recompute
// cycles, so concurrent sessions' log lines can be correlated to a cycle.
type Generator interface {
	NextCycleCode(ctx context.Context) (string, error)
}

type RedisGenerator struct {
	rdb *redis.Client
}

type Params struct {
	fx.In

	Redis *redis.Client
}

func NewRedisGenerator(p Params) Generator {
	return &RedisGenerator{
		rdb: p.Redis,
	}
}

// NextCycleCode returns a code like CY-250901-00A, unique per day across
// every session sharing the redis instance.
func (g *RedisGenerator) NextCycleCode(ctx context.Context) (string, error) {
	today := time.Now().UTC().Format("060102")
	key := fmt.Sprintf("seq:cycle:%s", today)

	seq, err := g.rdb.Incr(ctx, key).Result()
	if err != nil {
		return "", err
	}

	if seq == 1 {
		expire := time.Until(time.Now().Truncate(24 * time.Hour).Add(24*time.Hour - time.Second))
		_ = g.rdb.Expire(ctx, key, expire).Err()
	}

	encodedSeq := strings.ToUpper(fmt.Sprintf("%03s", strconv.FormatInt(seq, 36)))
	return fmt.Sprintf("CY-%s-%s", today, encodedSeq), nil
}
