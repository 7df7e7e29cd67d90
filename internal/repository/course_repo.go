package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Dreamstarlake/EduNexus/internal/model"
)

// CourseRepository 课程数据访问接口
// 所有按 ID 的读写都附带 user_id 条件，跨用户访问等同于不存在
type CourseRepository interface {
	ListByUser(ctx context.Context, userID string) ([]model.Course, error)
	GetByIDAndUser(ctx context.Context, id, userID string) (*model.Course, error)
	Create(ctx context.Context, course *model.Course) error
	BatchCreate(ctx context.Context, courses []model.Course) error
	// UpdateByIDAndUser 写入 fields 中的列，返回影响行数
	UpdateByIDAndUser(ctx context.Context, id, userID string, fields map[string]interface{}) (int64, error)
	DeleteByIDAndUser(ctx context.Context, id, userID string) (int64, error)
}

type courseRepo struct {
	db *gorm.DB
}

// NewCourseRepo 创建 CourseRepository 实例
func NewCourseRepo(db *gorm.DB) CourseRepository {
	return &courseRepo{db: db}
}

func (r *courseRepo) ListByUser(ctx context.Context, userID string) ([]model.Course, error) {
	var courses []model.Course
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("seq ASC").
		Find(&courses).Error
	return courses, err
}

func (r *courseRepo) GetByIDAndUser(ctx context.Context, id, userID string) (*model.Course, error) {
	var course model.Course
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&course).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *courseRepo) Create(ctx context.Context, course *model.Course) error {
	return r.db.WithContext(ctx).Create(course).Error
}

func (r *courseRepo) BatchCreate(ctx context.Context, courses []model.Course) error {
	if len(courses) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&courses).Error
}

func (r *courseRepo) UpdateByIDAndUser(ctx context.Context, id, userID string, fields map[string]interface{}) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Course{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(fields)
	return result.RowsAffected, result.Error
}

func (r *courseRepo) DeleteByIDAndUser(ctx context.Context, id, userID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&model.Course{})
	return result.RowsAffected, result.Error
}
