package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Dreamstarlake/EduNexus/internal/calendar"
	"github.com/Dreamstarlake/EduNexus/internal/dto"
	"github.com/Dreamstarlake/EduNexus/internal/model"
	"github.com/Dreamstarlake/EduNexus/internal/repository"
	pkgerrors "github.com/Dreamstarlake/EduNexus/pkg/errors"
)

// ── 课程模块业务错误 ──

var (
	ErrCourseNotFound   = errors.New("Course not found or not authorized")
	ErrCourseExists     = errors.New("Course with this id already exists")
	ErrInvalidClock     = errors.New("Start and end time must be in HH:MM format")
	ErrInvalidTimeRange = errors.New("End time must be after start time")
	ErrInvalidDay       = errors.New("Day of week must be between 0 and 6")
	ErrEmptyName        = errors.New("Name is required")
	ErrFieldTooLong     = errors.New("Course field exceeds maximum length")
	ErrICSInvalid       = errors.New("Invalid iCalendar file")
	ErrICSEmpty         = errors.New("No importable events found in calendar")
)

// ValidationError 创建请求缺少必填字段，Problems 按字段顺序排列
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Problems, ", ")
}

// CourseService 课程业务接口
//
// 所有操作以 userID 为作用域：他人的课程对调用方不可见，
// 更新/删除他人课程与课程不存在返回同一错误。
type CourseService interface {
	List(ctx context.Context, userID string) ([]dto.Course, error)
	Create(ctx context.Context, userID string, req *dto.CreateCourseRequest) (*dto.Course, error)
	// Update 部分更新，nil 字段保留原值；返回合并后的课程与影响行数
	Update(ctx context.Context, userID, courseID string, req *dto.UpdateCourseRequest) (*dto.Course, int64, error)
	Delete(ctx context.Context, userID, courseID string) (int64, error)
	// ImportICS 将日历中的 VEVENT 批量导入为课程（单事务）
	ImportICS(ctx context.Context, userID string, r io.Reader) (*dto.ImportResult, error)
	// ExportICS 导出为每周重复的 iCalendar，锚定在 now 所在周
	ExportICS(ctx context.Context, userID string, now time.Time) ([]byte, error)
}

type courseService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewCourseService 创建 CourseService 实例
func NewCourseService(repo *repository.Repository, logger *zap.Logger) CourseService {
	return &courseService{repo: repo, logger: logger}
}

func (s *courseService) List(ctx context.Context, userID string) ([]dto.Course, error) {
	courses, err := s.repo.Course.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("查询课程列表失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return model.CoursesToDTO(courses), nil
}

func (s *courseService) Create(ctx context.Context, userID string, req *dto.CreateCourseRequest) (*dto.Course, error) {
	// 1. 必填项
	var problems []string
	if strings.TrimSpace(req.Name) == "" {
		problems = append(problems, "Name is required")
	}
	if req.StartTime == "" {
		problems = append(problems, "Start time is required")
	}
	if req.EndTime == "" {
		problems = append(problems, "End time is required")
	}
	if req.DayOfWeek == nil {
		problems = append(problems, "Day of week is required")
	}
	if strings.TrimSpace(req.ID) == "" {
		problems = append(problems, "Client-generated ID is required")
	}
	if len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}

	// 2. 取值校验
	if err := validateSchedule(req.Name, req.StartTime, req.EndTime, *req.DayOfWeek); err != nil {
		return nil, err
	}

	color := req.Color
	if color == "" {
		color = dto.DefaultCourseColor
	}

	course := &model.Course{
		ID:         strings.TrimSpace(req.ID),
		UserID:     userID,
		Name:       strings.TrimSpace(req.Name),
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		DayOfWeek:  *req.DayOfWeek,
		Color:      color,
		Instructor: req.Instructor,
		Location:   req.Location,
	}

	if err := s.repo.Course.Create(ctx, course); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || pkgerrors.IsUniqueViolation(err) {
			return nil, ErrCourseExists
		}
		s.logger.Error("创建课程失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	out := course.ToDTO()
	return &out, nil
}

func (s *courseService) Update(ctx context.Context, userID, courseID string, req *dto.UpdateCourseRequest) (*dto.Course, int64, error) {
	existing, err := s.repo.Course.GetByIDAndUser(ctx, courseID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, ErrCourseNotFound
		}
		s.logger.Error("查询课程失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, 0, err
	}

	// COALESCE：仅覆盖请求中出现的字段
	fields := map[string]interface{}{"updated_at": time.Now().UTC()}
	merged := *existing
	if req.Name != nil {
		merged.Name = strings.TrimSpace(*req.Name)
		fields["name"] = merged.Name
	}
	if req.StartTime != nil {
		merged.StartTime = *req.StartTime
		fields["start_time"] = merged.StartTime
	}
	if req.EndTime != nil {
		merged.EndTime = *req.EndTime
		fields["end_time"] = merged.EndTime
	}
	if req.DayOfWeek != nil {
		merged.DayOfWeek = *req.DayOfWeek
		fields["day_of_week"] = merged.DayOfWeek
	}
	if req.Color != nil {
		merged.Color = *req.Color
		if merged.Color == "" {
			merged.Color = dto.DefaultCourseColor
		}
		fields["color"] = merged.Color
	}
	if req.Instructor != nil {
		merged.Instructor = *req.Instructor
		fields["instructor"] = merged.Instructor
	}
	if req.Location != nil {
		merged.Location = *req.Location
		fields["location"] = merged.Location
	}

	// 合并后的结果整体校验，避免只改结束时间造成倒挂
	if err := validateSchedule(merged.Name, merged.StartTime, merged.EndTime, merged.DayOfWeek); err != nil {
		return nil, 0, err
	}

	changes, err := s.repo.Course.UpdateByIDAndUser(ctx, courseID, userID, fields)
	if err != nil {
		s.logger.Error("更新课程失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, 0, err
	}
	if changes == 0 {
		return nil, 0, ErrCourseNotFound
	}

	out := merged.ToDTO()
	return &out, changes, nil
}

func (s *courseService) Delete(ctx context.Context, userID, courseID string) (int64, error) {
	changes, err := s.repo.Course.DeleteByIDAndUser(ctx, courseID, userID)
	if err != nil {
		s.logger.Error("删除课程失败", zap.String("course_id", courseID), zap.Error(err))
		return 0, err
	}
	if changes == 0 {
		return 0, ErrCourseNotFound
	}
	return changes, nil
}

func (s *courseService) ImportICS(ctx context.Context, userID string, r io.Reader) (*dto.ImportResult, error) {
	parsed, skipped, err := ParseICS(r, time.Local)
	if err != nil {
		return nil, ErrICSInvalid
	}
	if len(parsed) == 0 {
		return nil, ErrICSEmpty
	}

	// 与手动创建同一套校验，不合格的课程计入 skipped
	rows := make([]model.Course, 0, len(parsed))
	for _, c := range parsed {
		if err := validateSchedule(c.Name, c.StartTime, c.EndTime, c.DayOfWeek); err != nil {
			skipped++
			continue
		}
		if err := validateLengths(c); err != nil {
			skipped++
			continue
		}
		rows = append(rows, model.Course{
			ID:         c.ID,
			UserID:     userID,
			Name:       c.Name,
			StartTime:  c.StartTime,
			EndTime:    c.EndTime,
			DayOfWeek:  c.DayOfWeek,
			Color:      c.DisplayColor(),
			Instructor: c.Instructor,
			Location:   c.Location,
		})
	}

	if len(rows) == 0 {
		return nil, ErrICSEmpty
	}

	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		return txRepo.Course.BatchCreate(ctx, rows)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || pkgerrors.IsUniqueViolation(err) {
			return nil, ErrCourseExists
		}
		s.logger.Error("导入课程失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("ICS 导入完成",
		zap.String("user_id", userID),
		zap.Int("imported", len(rows)),
		zap.Int("skipped", skipped),
	)

	return &dto.ImportResult{Courses: model.CoursesToDTO(rows), Skipped: skipped}, nil
}

func (s *courseService) ExportICS(ctx context.Context, userID string, now time.Time) ([]byte, error) {
	courses, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	return []byte(BuildICS(courses, now)), nil
}

// validateLengths 校验各文本字段不超过列宽
func validateLengths(c dto.Course) error {
	if utf8.RuneCountInString(c.Name) > dto.MaxCourseNameLen ||
		utf8.RuneCountInString(c.Color) > dto.MaxCourseColorLen ||
		utf8.RuneCountInString(c.Instructor) > dto.MaxCourseInstructorLen ||
		utf8.RuneCountInString(c.Location) > dto.MaxCourseLocationLen {
		return ErrFieldTooLong
	}
	return nil
}

// validateSchedule 校验名称、时钟格式、时间先后与星期范围
func validateSchedule(name, start, end string, day int) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	if !calendar.ValidClock(start) || !calendar.ValidClock(end) {
		return ErrInvalidClock
	}
	if calendar.TimeToMinutes(end) <= calendar.TimeToMinutes(start) {
		return ErrInvalidTimeRange
	}
	if day < 0 || day > 6 {
		return ErrInvalidDay
	}
	return nil
}
