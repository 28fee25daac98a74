package store

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore 内存文档存储
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]map[string]any
}

// NewMemoryStore 创建内存存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]map[string]map[string]any),
	}
}

// Get 按 ID 读取文档
func (s *MemoryStore) Get(_ context.Context, collection, id string) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.collections[collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	cloned, err := normalize(data)
	if err != nil {
		return nil, err
	}
	return &Document{ID: id, Data: cloned}, nil
}

// Query 按条件查询
func (s *MemoryStore) Query(_ context.Context, q Query) ([]Document, error) {
	s.mu.RLock()
	docs := make([]Document, 0, len(s.collections[q.Collection]))
	for id, data := range s.collections[q.Collection] {
		cloned, err := normalize(data)
		if err != nil {
			s.mu.RUnlock()
			return nil, err
		}
		docs = append(docs, Document{ID: id, Data: cloned})
	}
	s.mu.RUnlock()

	return apply(docs, q)
}

// Add 新增文档
func (s *MemoryStore) Add(_ context.Context, collection string, data map[string]any) (string, error) {
	fields, err := normalize(data)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.collection(collection)[id] = fields
	return id, nil
}

// Update 合并更新
func (s *MemoryStore) Update(_ context.Context, collection, id string, data map[string]any) error {
	fields, err := normalize(data)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.collections[collection][id]
	if !ok {
		return ErrNotFound
	}
	s.collections[collection][id] = merge(existing, fields)
	return nil
}

// Set 写入文档
func (s *MemoryStore) Set(_ context.Context, collection, id string, data map[string]any, mergeFields bool) error {
	fields, err := normalize(data)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	docs := s.collection(collection)
	if existing, ok := docs[id]; ok && mergeFields {
		docs[id] = merge(existing, fields)
		return nil
	}
	docs[id] = fields
	return nil
}

// Delete 删除文档
func (s *MemoryStore) Delete(_ context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.collections[collection][id]; !ok {
		return ErrNotFound
	}
	delete(s.collections[collection], id)
	return nil
}

// Ping 内存存储总是可用
func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

// Close 无需释放资源
func (s *MemoryStore) Close() error {
	return nil
}

func (s *MemoryStore) collection(name string) map[string]map[string]any {
	docs, ok := s.collections[name]
	if !ok {
		docs = make(map[string]map[string]any)
		s.collections[name] = docs
	}
	return docs
}
