package model

import "github.com/Dreamstarlake/EduNexus/internal/dto"

// Course 课程表，对应 courses
// Seq 为自增插入序号，列表按其升序返回；ID 由客户端生成，在同一用户内唯一
type Course struct {
	Seq        int64  `gorm:"column:seq;primaryKey;autoIncrement"          json:"-"`
	ID         string `gorm:"column:id;type:varchar(64);not null;uniqueIndex:uk_courses_user_id,priority:2" json:"id"`
	UserID     string `gorm:"type:varchar(36);not null;uniqueIndex:uk_courses_user_id,priority:1;index:idx_courses_user" json:"userId"`
	Name       string `gorm:"type:varchar(200);not null"                   json:"name"`
	StartTime  string `gorm:"type:char(5);not null"                        json:"startTime"`
	EndTime    string `gorm:"type:char(5);not null"                        json:"endTime"`
	DayOfWeek  int    `gorm:"type:smallint;not null"                       json:"dayOfWeek"` // 0=周日
	Color      string `gorm:"type:varchar(32);not null;default:'#4A90E2'"  json:"color"`
	Instructor string `gorm:"type:varchar(100);not null;default:''"        json:"instructor"`
	Location   string `gorm:"type:varchar(100);not null;default:''"        json:"location"`
	BaseModel
}

// TableName 指定表名
func (Course) TableName() string { return "courses" }

// ToDTO 转换为线上传输结构
func (c *Course) ToDTO() dto.Course {
	return dto.Course{
		ID:         c.ID,
		Name:       c.Name,
		StartTime:  c.StartTime,
		EndTime:    c.EndTime,
		DayOfWeek:  c.DayOfWeek,
		Color:      c.Color,
		Instructor: c.Instructor,
		Location:   c.Location,
		UserID:     c.UserID,
	}
}

// CoursesToDTO 批量转换，空结果返回空切片而非 nil
func CoursesToDTO(courses []Course) []dto.Course {
	out := make([]dto.Course, 0, len(courses))
	for i := range courses {
		out = append(out, courses[i].ToDTO())
	}
	return out
}
