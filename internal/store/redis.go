package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// 乐观锁冲突时的重试次数
const maxTxRetries = 5

// RedisStore Redis 文档存储
//
// 每个集合一个 hash：key 为 "<prefix>:<collection>"，field 为文档 ID，value 为 JSON。
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore 连接 Redis 并创建存储
func NewRedisStore(redisURL, prefix string) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return NewRedisStoreFromClient(client, prefix), nil
}

// NewRedisStoreFromClient 使用已有客户端创建存储
func NewRedisStoreFromClient(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(collection string) string {
	return s.prefix + ":" + collection
}

// Get 按 ID 读取文档
func (s *RedisStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	raw, err := s.client.HGet(ctx, s.key(collection), id).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	data, err := decodeFields(raw)
	if err != nil {
		return nil, fmt.Errorf("document %s/%s: %w", collection, id, err)
	}
	return &Document{ID: id, Data: data}, nil
}

// Query 读取整个集合后在内存中过滤排序
func (s *RedisStore) Query(ctx context.Context, q Query) ([]Document, error) {
	all, err := s.client.HGetAll(ctx, s.key(q.Collection)).Result()
	if err != nil {
		return nil, err
	}

	docs := make([]Document, 0, len(all))
	for id, raw := range all {
		data, err := decodeFields(raw)
		if err != nil {
			return nil, fmt.Errorf("document %s/%s: %w", q.Collection, id, err)
		}
		docs = append(docs, Document{ID: id, Data: data})
	}
	return apply(docs, q)
}

// Add 新增文档
func (s *RedisStore) Add(ctx context.Context, collection string, data map[string]any) (string, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	if err := s.client.HSet(ctx, s.key(collection), id, raw).Err(); err != nil {
		return "", err
	}
	return id, nil
}

// Update 合并更新已存在的文档
func (s *RedisStore) Update(ctx context.Context, collection, id string, data map[string]any) error {
	return s.readModifyWrite(ctx, collection, id, func(existing map[string]any, found bool) (map[string]any, error) {
		if !found {
			return nil, ErrNotFound
		}
		return merge(existing, data), nil
	})
}

// Set 写入文档
func (s *RedisStore) Set(ctx context.Context, collection, id string, data map[string]any, mergeFields bool) error {
	if !mergeFields {
		raw, err := json.Marshal(data)
		if err != nil {
			return err
		}
		return s.client.HSet(ctx, s.key(collection), id, raw).Err()
	}

	return s.readModifyWrite(ctx, collection, id, func(existing map[string]any, _ bool) (map[string]any, error) {
		return merge(existing, data), nil
	})
}

// Delete 删除文档
func (s *RedisStore) Delete(ctx context.Context, collection, id string) error {
	n, err := s.client.HDel(ctx, s.key(collection), id).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Ping 检查连接
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close 关闭连接
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// readModifyWrite 在 WATCH 保护下读取、修改、写回
func (s *RedisStore) readModifyWrite(ctx context.Context, collection, id string, modify func(map[string]any, bool) (map[string]any, error)) error {
	key := s.key(collection)

	txf := func(tx *redis.Tx) error {
		var existing map[string]any
		found := true

		raw, err := tx.HGet(ctx, key, id).Result()
		switch {
		case errors.Is(err, redis.Nil):
			found = false
		case err != nil:
			return err
		default:
			if existing, err = decodeFields(raw); err != nil {
				return err
			}
		}

		updated, err := modify(existing, found)
		if err != nil {
			return err
		}
		encoded, err := json.Marshal(updated)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, id, encoded)
			return nil
		})
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("update %s/%s: too many concurrent writers", collection, id)
}

func decodeFields(raw string) (map[string]any, error) {
	var data map[string]any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, err
	}
	if data == nil {
		data = make(map[string]any)
	}
	return data, nil
}
