package store

import (
	"cmp"
	"fmt"
	"reflect"
	"slices"
	"time"
)

// Op 过滤操作符
type Op string

const (
	OpEqual    Op = "=="
	OpNotEqual Op = "!="
)

// Filter 字段过滤条件
type Filter struct {
	Field string
	Op    Op
	Value any
}

// Query 查询条件
type Query struct {
	Collection string
	Filters    []Filter
	OrderBy    string
	Desc       bool
	Limit      int
}

// Collection 创建针对某个集合的查询
func Collection(name string) Query {
	return Query{Collection: name}
}

// Where 追加过滤条件
func (q Query) Where(field string, op Op, value any) Query {
	q.Filters = append(slices.Clone(q.Filters), Filter{Field: field, Op: op, Value: value})
	return q
}

// Order 设置排序字段
func (q Query) Order(field string, desc bool) Query {
	q.OrderBy = field
	q.Desc = desc
	return q
}

// Take 限制返回条数，0 表示不限制
func (q Query) Take(n int) Query {
	q.Limit = n
	return q
}

// apply 在内存中执行过滤、排序、截断
func apply(docs []Document, q Query) ([]Document, error) {
	filters := make([]Filter, len(q.Filters))
	for i, f := range q.Filters {
		value, err := normalizeValue(f.Value)
		if err != nil {
			return nil, err
		}
		filters[i] = Filter{Field: f.Field, Op: f.Op, Value: value}
	}

	result := make([]Document, 0, len(docs))
	for _, doc := range docs {
		ok, err := matches(doc, filters)
		if err != nil {
			return nil, err
		}
		if ok {
			result = append(result, doc)
		}
	}

	slices.SortStableFunc(result, func(a, b Document) int {
		if q.OrderBy != "" {
			c := compareValues(a.Data[q.OrderBy], b.Data[q.OrderBy])
			if q.Desc {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return cmp.Compare(a.ID, b.ID)
	})

	if q.Limit > 0 && len(result) > q.Limit {
		result = result[:q.Limit]
	}
	return result, nil
}

func matches(doc Document, filters []Filter) (bool, error) {
	for _, f := range filters {
		equal := reflect.DeepEqual(doc.Data[f.Field], f.Value)
		switch f.Op {
		case OpEqual:
			if !equal {
				return false, nil
			}
		case OpNotEqual:
			if equal {
				return false, nil
			}
		default:
			return false, fmt.Errorf("unsupported operator %q", f.Op)
		}
	}
	return true, nil
}

// normalizeValue 过滤值也走一次 JSON，和文档字段类型保持一致
func normalizeValue(v any) (any, error) {
	data, err := normalize(map[string]any{"v": v})
	if err != nil {
		return nil, err
	}
	return data["v"], nil
}

// compareValues 数字按大小、RFC 3339 时间按先后、其他按字符串比较；缺失字段最小
func compareValues(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}

	switch av := a.(type) {
	case float64:
		if bv, ok := b.(float64); ok {
			return cmp.Compare(av, bv)
		}
	case bool:
		if bv, ok := b.(bool); ok {
			switch {
			case av == bv:
				return 0
			case !av:
				return -1
			default:
				return 1
			}
		}
	case string:
		if bv, ok := b.(string); ok {
			at, aerr := time.Parse(time.RFC3339Nano, av)
			bt, berr := time.Parse(time.RFC3339Nano, bv)
			if aerr == nil && berr == nil {
				return at.Compare(bt)
			}
			return cmp.Compare(av, bv)
		}
	}
	return cmp.Compare(fmt.Sprint(a), fmt.Sprint(b))
}
