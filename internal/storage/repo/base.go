package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// ScopeFunc 筛选作用域方法
type ScopeFunc func(*gorm.DB) *gorm.DB

// Pagination 分页参数
type Pagination struct {
	Page  int
	Limit int
}

// Offset 计算偏移量
func (p *Pagination) Offset() int {
	if p.Limit <= 0 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// Order 排序参数
type Order struct {
	Field string
	Sort  string
}

// BaseRepository 基础DAO层
type BaseRepository[T any] struct {
	Db *gorm.DB
}

// NewBaseRepository 创建基础DAO层
func NewBaseRepository[T any](db *gorm.DB) *BaseRepository[T] {
	return &BaseRepository[T]{
		Db: db,
	}
}

// Create 创建记录
func (r *BaseRepository[T]) Create(ctx context.Context, item *T) error {
	return r.Db.WithContext(ctx).Create(item).Error
}

// Save 保存记录（存在则更新）
func (r *BaseRepository[T]) Save(ctx context.Context, item *T) error {
	return r.Db.WithContext(ctx).Save(item).Error
}

// Updates 更新记录
func (r *BaseRepository[T]) Updates(ctx context.Context, item *T, updateData map[string]any) error {
	return r.Db.WithContext(ctx).Model(item).Updates(updateData).Error
}

// Delete 删除记录
func (r *BaseRepository[T]) Delete(ctx context.Context, id any) error {
	return r.Db.WithContext(ctx).Delete(new(T), id).Error
}

// FindOne 根据主键查询记录，未找到时返回 nil
func (r *BaseRepository[T]) FindOne(ctx context.Context, id any) (*T, error) {
	item := new(T)
	err := r.Db.WithContext(ctx).First(item, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return item, nil
}

// FindAll 查询所有记录
func (r *BaseRepository[T]) FindAll(ctx context.Context, pagination *Pagination, orders []Order, scopes ...ScopeFunc) ([]T, error) {
	list := make([]T, 0)
	query := r.Db.WithContext(ctx).Model(new(T))

	for _, scope := range scopes {
		if scope != nil {
			query = query.Scopes(scope)
		}
	}

	if pagination != nil {
		query = query.Limit(pagination.Limit).Offset(pagination.Offset())
	}

	for _, order := range orders {
		query = query.Order(order.Field + " " + order.Sort)
	}

	if err := query.Find(&list).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return list, nil
}

// Count 统计记录数量
func (r *BaseRepository[T]) Count(ctx context.Context, scopes ...ScopeFunc) (int64, error) {
	var count int64
	query := r.Db.WithContext(ctx).Model(new(T))

	for _, scope := range scopes {
		if scope != nil {
			query = query.Scopes(scope)
		}
	}

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
