package calendar

import (
	"time"

	"github.com/Dreamstarlake/EduNexus/internal/dto"
)

// DayNames 周视图列头，Sunday 为第 0 列
var DayNames = [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// CourseBlock 周视图中一个已定位的课程块
type CourseBlock struct {
	Course        dto.Course
	TopPercent    float64
	HeightPercent float64
	// ZIndex 越晚开始越靠上层：floor(startMinutes/10)+1
	ZIndex int
	Color  string
	Label  string // "09:00 - 10:30"
}

// DayColumn 周视图的一列（一天）
type DayColumn struct {
	Index   int
	Name    string
	Date    time.Time
	IsToday bool
	Blocks  []CourseBlock
}

// WeekView 周视图布局
type WeekView struct {
	Header  string
	Start   time.Time
	End     time.Time
	Window  DayWindow
	Columns [7]DayColumn
	// Empty 为 true 时界面应提示 "No courses scheduled yet. Add a course!"
	Empty bool
}

// BuildWeek 由课程快照与周偏移生成周视图。
//
// 纯函数：不修改 courses。块在列内保持 courses 的原始顺序；
// 重叠课程仅靠 ZIndex 叠放，不做并排拆分。
// 仅当 weekOffset == 0 时高亮今天所在列。
func BuildWeek(courses []dto.Course, weekOffset int, now time.Time, window DayWindow) WeekView {
	start, end := WeekRange(now, weekOffset)
	total := window.TotalHours()

	v := WeekView{
		Header: WeekHeader(start, end),
		Start:  start,
		End:    end,
		Window: window,
		Empty:  len(courses) == 0,
	}

	today := int(now.Weekday())
	for i := range v.Columns {
		v.Columns[i] = DayColumn{
			Index:   i,
			Name:    DayNames[i],
			Date:    start.AddDate(0, 0, i),
			IsToday: weekOffset == 0 && i == today,
		}
	}

	for _, c := range courses {
		if c.DayOfWeek < 0 || c.DayOfWeek > 6 {
			continue
		}
		col := &v.Columns[c.DayOfWeek]
		col.Blocks = append(col.Blocks, CourseBlock{
			Course:        c,
			TopPercent:    TimeToPercent(c.StartTime, window.StartHour, total),
			HeightPercent: DurationToPercent(c.StartTime, c.EndTime, total),
			ZIndex:        StackOrder(c.StartTime),
			Color:         c.DisplayColor(),
			Label:         c.StartTime + " - " + c.EndTime,
		})
	}

	return v
}

// StackOrder 重叠课程的叠放层级，开始越晚层级越高
func StackOrder(startTime string) int {
	return TimeToMinutes(startTime)/10 + 1
}

// WeekRange 返回偏移 offset 周后的周日 00:00 与周六 00:00（本地时间）
func WeekRange(now time.Time, offset int) (time.Time, time.Time) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	start := today.AddDate(0, 0, -int(today.Weekday())+offset*7)
	return start, start.AddDate(0, 0, 6)
}
