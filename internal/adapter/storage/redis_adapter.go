package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/rl1809/marketplace/internal/core/domain"
	"github.com/rl1809/marketplace/internal/port"
)

const (
	idempotencyKeyPrefix = "idempotency:"
	idempotencyKeyTTL    = 24 * time.Hour
)

// KEYS[1] record hash
// ARGV[1] id, ARGV[2] index key prefix, ARGV[3] number of indexed fields,
// then the indexed field names, then field/value pairs.
var updateRecordScript = redis.NewScript(`
local key = KEYS[1]
if redis.call('EXISTS', key) == 0 then
	return 0
end

local id = ARGV[1]
local prefix = ARGV[2]
local n = tonumber(ARGV[3])
local indexed = {}
for i = 1, n do
	indexed[ARGV[3 + i]] = true
end

for i = 4 + n, #ARGV, 2 do
	local field, value = ARGV[i], ARGV[i + 1]
	if indexed[field] then
		local old = redis.call('HGET', key, field)
		if old then
			redis.call('SREM', prefix .. field .. ':' .. old, id)
		end
		redis.call('SADD', prefix .. field .. ':' .. value, id)
	end
	redis.call('HSET', key, field, value)
end

return 1
`)

// KEYS[1] record hash
// ARGV[1] field, ARGV[2] expected, ARGV[3] next
var compareAndSwapScript = redis.NewScript(`
local key = KEYS[1]
if redis.call('EXISTS', key) == 0 then
	return -1
end

local current = tonumber(redis.call('HGET', key, ARGV[1]))
if current ~= tonumber(ARGV[2]) then
	return 0
end

redis.call('HSET', key, ARGV[1], ARGV[3])
return 1
`)

// RedisAdapter stores each record as a hash. It can only look records up
// by one field at a time through per-value index sets, so any further
// conditions of a filter are applied here after the lookup.
type RedisAdapter struct {
	client *redis.Client
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

func (r *RedisAdapter) Get(ctx context.Context, schema port.Schema, id string) (port.Fields, error) {
	raw, err := r.client.HGetAll(ctx, recordKey(schema.Collection, id)).Result()
	if err != nil {
		return nil, unavailable("redis hgetall", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: %s %s", domain.ErrNotFound, schema.Collection, id)
	}
	return decodeHash(schema, id, raw)
}

func (r *RedisAdapter) Find(ctx context.Context, schema port.Schema, filter port.Filter) ([]port.Fields, error) {
	filter, err := schema.NormalizeFilter(filter)
	if err != nil {
		return nil, err
	}

	lookup := idsKey(schema.Collection)
	for _, cond := range filter {
		col, _ := schema.Column(cond.Field)
		if col.Indexed {
			lookup = indexKey(schema.Collection, col.Name, port.FormatValue(col.Kind, cond.Value))
			break
		}
	}

	ids, err := r.client.SMembers(ctx, lookup).Result()
	if err != nil {
		return nil, unavailable("redis smembers", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	pipe := r.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, recordKey(schema.Collection, id))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, unavailable("redis pipeline", err)
	}

	var out []port.Fields
	for i, cmd := range cmds {
		raw := cmd.Val()
		if len(raw) == 0 {
			continue
		}
		rec, err := decodeHash(schema, ids[i], raw)
		if err != nil {
			return nil, err
		}
		if filter.Match(rec) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *RedisAdapter) Insert(ctx context.Context, schema port.Schema, fields port.Fields) (string, error) {
	fields, err := schema.Normalize(fields)
	if err != nil {
		return "", err
	}
	schema.Complete(fields)

	id := uuid.NewString()
	values := encodeHash(schema, fields)

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, recordKey(schema.Collection, id), values)
		pipe.SAdd(ctx, idsKey(schema.Collection), id)
		for _, col := range schema.Indexed() {
			pipe.SAdd(ctx, indexKey(schema.Collection, col.Name, values[col.Name]), id)
		}
		return nil
	})
	if err != nil {
		return "", unavailable("redis insert", err)
	}
	return id, nil
}

func (r *RedisAdapter) Update(ctx context.Context, schema port.Schema, id string, fields port.Fields) error {
	fields, err := schema.Normalize(fields)
	if err != nil {
		return err
	}
	if len(fields) == 0 {
		_, err := r.Get(ctx, schema, id)
		return err
	}

	indexed := schema.Indexed()
	args := make([]any, 0, 3+len(indexed)+2*len(fields))
	args = append(args, id, schema.Collection+":idx:", len(indexed))
	for _, col := range indexed {
		args = append(args, col.Name)
	}
	for name, value := range encodeHash(schema, fields) {
		args = append(args, name, value)
	}

	res, err := updateRecordScript.Run(ctx, r.client, []string{recordKey(schema.Collection, id)}, args...).Int()
	if err != nil {
		return unavailable("redis update", err)
	}
	if res == 0 {
		return fmt.Errorf("%w: %s %s", domain.ErrNotFound, schema.Collection, id)
	}
	return nil
}

func (r *RedisAdapter) CompareAndSwap(ctx context.Context, schema port.Schema, id, field string, expected, next int64) (bool, error) {
	if _, err := schema.CASColumn(field); err != nil {
		return false, err
	}

	res, err := compareAndSwapScript.Run(ctx, r.client, []string{recordKey(schema.Collection, id)}, field, expected, next).Int()
	if err != nil {
		return false, unavailable("redis compare-and-swap", err)
	}
	switch res {
	case -1:
		return false, fmt.Errorf("%w: %s %s", domain.ErrNotFound, schema.Collection, id)
	case 1:
		return true, nil
	}
	return false, nil
}

func (r *RedisAdapter) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return unavailable("redis ping", err)
	}
	return nil
}

func recordKey(collection, id string) string {
	return collection + ":" + id
}

func idsKey(collection string) string {
	return collection + ":ids"
}

func indexKey(collection, field, value string) string {
	return collection + ":idx:" + field + ":" + value
}

func encodeHash(schema port.Schema, fields port.Fields) map[string]string {
	out := make(map[string]string, len(fields))
	for name, value := range fields {
		col, _ := schema.Column(name)
		out[name] = port.FormatValue(col.Kind, value)
	}
	return out
}

func decodeHash(schema port.Schema, id string, raw map[string]string) (port.Fields, error) {
	out := make(port.Fields, len(raw)+1)
	for _, col := range schema.Columns {
		v, err := port.ParseValue(col.Kind, raw[col.Name])
		if err != nil {
			return nil, fmt.Errorf("decode %s.%s: %w", schema.Collection, col.Name, err)
		}
		out[col.Name] = v
	}
	out[port.FieldID] = id
	return out, nil
}

// RedisIdempotency guards repeated requests with SETNX keys that expire
// after a day.
type RedisIdempotency struct {
	client *redis.Client
}

func NewRedisIdempotency(client *redis.Client) *RedisIdempotency {
	return &RedisIdempotency{client: client}
}

func (r *RedisIdempotency) SetIdempotency(ctx context.Context, key string) (bool, error) {
	ok, err := r.client.SetNX(ctx, idempotencyKeyPrefix+key, 1, idempotencyKeyTTL).Result()
	if err != nil {
		return false, unavailable("redis setnx", err)
	}

	return ok, nil
}

func (r *RedisIdempotency) ReleaseIdempotency(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, idempotencyKeyPrefix+key).Err(); err != nil {
		return unavailable("redis del", err)
	}
	return nil
}
