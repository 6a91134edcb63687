// This file is part of livecheck.
//
// livecheck is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// livecheck is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with livecheck.  If not, see <https://www.gnu.org/licenses/>.

package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/juju/errors"
	"github.com/redis/go-redis/v9"
)

// DefaultPrefix for redis keys
const DefaultPrefix = "livecheck"

// redisTimeout bounds each notification so a dead server cannot stall the consumer
const redisTimeout = 2 * time.Second

// Redis keeps a current status hash and publishes changes
//
//	HSET <prefix>:status <key> <transition json>
//	PUBLISH <prefix>:transitions <transition json>
//
// initial statuses go into the hash only
type Redis struct {
	Client redis.Cmdable
	Prefix string
}

// NewRedis notifier from a redis url such as redis://localhost:6379/0
func NewRedis(ctx context.Context, rawURL, password string) (*Redis, *redis.Client, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, nil, errors.Annotate(err, "notify.NewRedis")
	}
	if password != "" {
		opt.Password = password
	}

	rdb := redis.NewClient(opt)
	pingCtx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, nil, errors.Annotatef(err, "notify.NewRedis: ping %s", opt.Addr)
	}

	return &Redis{Client: rdb, Prefix: DefaultPrefix}, rdb, nil
}

// StatusKey is the hash holding every stream's latest transition
func (r *Redis) StatusKey() string {
	return r.prefix() + ":status"
}

// Channel transitions are published on
func (r *Redis) Channel() string {
	return r.prefix() + ":transitions"
}

func (r *Redis) prefix() string {
	if r.Prefix == "" {
		return DefaultPrefix
	}
	return r.Prefix
}

// Notify redis
func (r *Redis) Notify(ctx context.Context, t Transition) error {
	if r == nil || r.Client == nil {
		return errors.New("notify.Redis: nil client")
	}

	b, err := json.Marshal(t)
	if err != nil {
		return errors.Annotatef(err, "notify.Redis: %s", t.Key)
	}

	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	pipe := r.Client.Pipeline()
	pipe.HSet(ctx, r.StatusKey(), string(t.Key), string(b))
	if !t.Initial {
		pipe.Publish(ctx, r.Channel(), string(b))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Annotatef(err, "notify.Redis: %s", t.Key)
	}

	return nil
}

// Forget removes streams that are no longer tracked from the hash
func (r *Redis) Forget(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()
	return errors.Trace(r.Client.HDel(ctx, r.StatusKey(), keys...).Err())
}
