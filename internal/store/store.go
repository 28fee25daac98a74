// Package store 文档存储
//
// 按集合（products、orders）保存 JSON 文档，支持按字段过滤、排序、限制条数，
// 以及 get/add/update(merge)/set/delete。内存实现用于开发和测试，Redis 实现用于生产。
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound 文档不存在
var ErrNotFound = errors.New("document not found")

// Store 文档存储接口
type Store interface {
	// Get 按 ID 读取文档
	Get(ctx context.Context, collection, id string) (*Document, error)
	// Query 按条件查询
	Query(ctx context.Context, q Query) ([]Document, error)
	// Add 新增文档，返回生成的 ID
	Add(ctx context.Context, collection string, data map[string]any) (string, error)
	// Update 合并更新已存在的文档
	Update(ctx context.Context, collection, id string, data map[string]any) error
	// Set 写入文档；merge 为 true 时与已有字段合并，不存在则创建
	Set(ctx context.Context, collection, id string, data map[string]any, merge bool) error
	// Delete 删除文档
	Delete(ctx context.Context, collection, id string) error
	// Ping 检查连接
	Ping(ctx context.Context) error
	// Close 关闭连接
	Close() error
}

// Document 文档
type Document struct {
	ID   string         `json:"id"`
	Data map[string]any `json:"data"`
}

// Decode 把文档解码到结构体，"id" 字段填入文档 ID
func (d *Document) Decode(v any) error {
	data := make(map[string]any, len(d.Data)+1)
	for k, val := range d.Data {
		data[k] = val
	}
	data["id"] = d.ID

	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode document %s: %w", d.ID, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode document %s: %w", d.ID, err)
	}
	return nil
}

// ToMap 把结构体转成文档字段（去掉 "id"）
func ToMap(v any) (map[string]any, error) {
	data, err := normalize(v)
	if err != nil {
		return nil, err
	}
	delete(data, "id")
	return data, nil
}

// normalize 经过一次 JSON 往返，保证内存和 Redis 实现看到的值类型一致
func normalize(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode fields: %w", err)
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode fields: %w", err)
	}
	if data == nil {
		data = make(map[string]any)
	}
	return data, nil
}

func merge(dst, src map[string]any) map[string]any {
	if dst == nil {
		dst = make(map[string]any, len(src))
	}
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
