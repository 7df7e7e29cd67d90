package client

import (
	"sync"

	"github.com/Dreamstarlake/EduNexus/internal/dto"
)

// Store 当前用户课程的内存快照。
// 只做整体替换，不做增量修补；顺序即服务端返回顺序。
type Store struct {
	mu      sync.RWMutex
	courses []dto.Course
}

// NewStore 创建空快照
func NewStore() *Store {
	return &Store{}
}

// Replace 以服务端列表整体替换
func (s *Store) Replace(courses []dto.Course) {
	cp := make([]dto.Course, len(courses))
	copy(cp, courses)

	s.mu.Lock()
	s.courses = cp
	s.mu.Unlock()
}

// Clear 清空
func (s *Store) Clear() {
	s.mu.Lock()
	s.courses = nil
	s.mu.Unlock()
}

// Snapshot 返回副本，调用方可自由修改
func (s *Store) Snapshot() []dto.Course {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]dto.Course, len(s.courses))
	copy(out, s.courses)
	return out
}

// Len 课程数量
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.courses)
}

// Find 按 ID 查找
func (s *Store) Find(id string) (dto.Course, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.courses {
		if c.ID == id {
			return c, true
		}
	}
	return dto.Course{}, false
}
