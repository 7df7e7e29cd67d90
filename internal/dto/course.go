package dto

// ── 课程模块 DTO ──

// DefaultCourseColor 未设置颜色时的显示色
const DefaultCourseColor = "#4A90E2"

// 字段长度上限，与 courses 表列宽一致（按字符计）
const (
	MaxCourseNameLen       = 200
	MaxCourseColorLen      = 32
	MaxCourseInstructorLen = 100
	MaxCourseLocationLen   = 100
)

// Course 课程（线上传输结构，服务端与客户端共用）
type Course struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	StartTime  string `json:"startTime"` // "09:00"
	EndTime    string `json:"endTime"`   // "10:30"
	DayOfWeek  int    `json:"dayOfWeek"` // 0=Sunday … 6=Saturday
	Color      string `json:"color,omitempty"`
	Instructor string `json:"instructor,omitempty"`
	Location   string `json:"location,omitempty"`
	UserID     string `json:"userId,omitempty"`
}

// DisplayColor 渲染用颜色，空值回退为默认色
func (c Course) DisplayColor() string {
	if c.Color == "" {
		return DefaultCourseColor
	}
	return c.Color
}

// CreateCourseRequest 创建课程请求。ID 由客户端生成，userId 一律忽略。
// 必填项在 service 层逐项校验，以便汇总返回全部缺失字段。
type CreateCourseRequest struct {
	ID         string `json:"id"         binding:"max=64"`
	Name       string `json:"name"       binding:"max=200"`
	StartTime  string `json:"startTime"`
	EndTime    string `json:"endTime"`
	DayOfWeek  *int   `json:"dayOfWeek"`
	Color      string `json:"color"      binding:"max=32"`
	Instructor string `json:"instructor" binding:"max=100"`
	Location   string `json:"location"   binding:"max=100"`
}

// UpdateCourseRequest 部分更新请求：nil 字段保持原值（COALESCE 语义）
type UpdateCourseRequest struct {
	Name       *string `json:"name"       binding:"omitempty,max=200"`
	StartTime  *string `json:"startTime"`
	EndTime    *string `json:"endTime"`
	DayOfWeek  *int    `json:"dayOfWeek"`
	Color      *string `json:"color"      binding:"omitempty,max=32"`
	Instructor *string `json:"instructor" binding:"omitempty,max=100"`
	Location   *string `json:"location"   binding:"omitempty,max=100"`
}

// ImportResult ICS 导入结果
type ImportResult struct {
	Courses []Course `json:"courses"`
	Skipped int      `json:"skipped"`
}
