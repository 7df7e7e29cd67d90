package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/Dreamstarlake/EduNexus/internal/model"
	"github.com/Dreamstarlake/EduNexus/internal/repository"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User // key: id 与 "name:"+username
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if _, ok := m.users["name:"+user.Username]; ok {
		return gorm.ErrDuplicatedKey
	}
	m.users[user.ID] = user
	m.users["name:"+user.Username] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	if u, ok := m.users["name:"+username]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Mock CourseRepository ──

// mockCourseRepo 以切片保存插入顺序
type mockCourseRepo struct {
	courses []model.Course
	failErr error // 非 nil 时所有操作返回该错误
}

func newMockCourseRepo() *mockCourseRepo {
	return &mockCourseRepo{}
}

func (m *mockCourseRepo) ListByUser(_ context.Context, userID string) ([]model.Course, error) {
	if m.failErr != nil {
		return nil, m.failErr
	}
	var out []model.Course
	for _, c := range m.courses {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockCourseRepo) GetByIDAndUser(_ context.Context, id, userID string) (*model.Course, error) {
	if m.failErr != nil {
		return nil, m.failErr
	}
	for i := range m.courses {
		if m.courses[i].ID == id && m.courses[i].UserID == userID {
			c := m.courses[i]
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCourseRepo) Create(_ context.Context, course *model.Course) error {
	if m.failErr != nil {
		return m.failErr
	}
	for _, c := range m.courses {
		if c.UserID == course.UserID && c.ID == course.ID {
			return gorm.ErrDuplicatedKey
		}
	}
	course.Seq = int64(len(m.courses) + 1)
	m.courses = append(m.courses, *course)
	return nil
}

func (m *mockCourseRepo) BatchCreate(ctx context.Context, courses []model.Course) error {
	for i := range courses {
		if err := m.Create(ctx, &courses[i]); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockCourseRepo) UpdateByIDAndUser(_ context.Context, id, userID string, fields map[string]interface{}) (int64, error) {
	if m.failErr != nil {
		return 0, m.failErr
	}
	for i := range m.courses {
		c := &m.courses[i]
		if c.ID != id || c.UserID != userID {
			continue
		}
		for k, v := range fields {
			switch k {
			case "name":
				c.Name = v.(string)
			case "start_time":
				c.StartTime = v.(string)
			case "end_time":
				c.EndTime = v.(string)
			case "day_of_week":
				c.DayOfWeek = v.(int)
			case "color":
				c.Color = v.(string)
			case "instructor":
				c.Instructor = v.(string)
			case "location":
				c.Location = v.(string)
			case "updated_at":
				c.UpdatedAt = v.(time.Time)
			}
		}
		return 1, nil
	}
	return 0, nil
}

func (m *mockCourseRepo) DeleteByIDAndUser(_ context.Context, id, userID string) (int64, error) {
	if m.failErr != nil {
		return 0, m.failErr
	}
	for i, c := range m.courses {
		if c.ID == id && c.UserID == userID {
			m.courses = append(m.courses[:i], m.courses[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

// ── Mock TokenBlacklist ──

type mockBlacklist struct {
	mu      sync.Mutex
	entries map[string]time.Duration
	failErr error
}

func newMockBlacklist() *mockBlacklist {
	return &mockBlacklist{entries: make(map[string]time.Duration)}
}

func (m *mockBlacklist) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}
	m.entries[jti] = ttl
	return nil
}

func (m *mockBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[jti]
	return ok, nil
}

// ── 组装 ──

var errMockDB = errors.New("mock db failure")

func newMockRepository() (*repository.Repository, *mockUserRepo, *mockCourseRepo) {
	users := newMockUserRepo()
	courses := newMockCourseRepo()
	return &repository.Repository{User: users, Course: courses}, users, courses
}
