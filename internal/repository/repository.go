package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db     *gorm.DB
	User   UserRepository
	Course CourseRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:     db,
		User:   NewUserRepo(db),
		Course: NewCourseRepo(db),
	}
}

// BeginTx 开启事务
func (r *Repository) BeginTx(ctx context.Context) (*gorm.DB, error) {
	tx := r.db.WithContext(ctx).Begin()
	return tx, tx.Error
}

// WithTx 返回绑定到事务的 Repository 副本
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{
		db:     tx,
		User:   NewUserRepo(tx),
		Course: NewCourseRepo(tx),
	}
}

// Transaction 在事务中执行 fn，fn 返回错误时回滚
func (r *Repository) Transaction(ctx context.Context, fn func(txRepo *Repository) error) error {
	if r.db == nil {
		// 未绑定数据库（单元测试中以 mock 组装）时直接执行
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTx(tx))
	})
}
