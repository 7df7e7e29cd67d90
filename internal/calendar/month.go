package calendar

import (
	"time"

	"github.com/Dreamstarlake/EduNexus/internal/dto"
)

const (
	// MonthGridCells 固定 6 周 × 7 天，保证网格高度不随月份变化
	MonthGridCells = 42
	// DefaultMaxDots 单元格最多显示的课程圆点数
	DefaultMaxDots = 3
)

// CourseDot 月视图单元格中的课程指示点
type CourseDot struct {
	CourseID string
	Name     string
	Color    string
}

// DayCell 月视图单元格
type DayCell struct {
	Year    int
	Month   time.Month
	Day     int
	Weekday time.Weekday
	// InMonth 为 false 表示上月末尾或下月开头的补位日期
	InMonth bool
	IsToday bool
	Dots    []CourseDot
	// Overflow 超出 maxDots 的课程数，界面显示为 "+N"
	Overflow int
}

// MonthView 月视图布局
type MonthView struct {
	Header string
	Year   int
	Month  time.Month
	Cells  [MonthGridCells]DayCell
}

// BuildMonth 生成 year/month 的 42 格月视图。
//
// 课程没有具体日期，圆点按 dayOfWeek 与单元格星期匹配得出，
// 因此每周重复的课程会出现在所显示月份的每个对应星期。
// 圆点只标注本月单元格；今天的判定只看真实日期，与浏览游标无关。
func BuildMonth(courses []dto.Course, year int, month time.Month, now time.Time, maxDots int) MonthView {
	year, month = ShiftMonth(year, month, 0)
	if maxDots <= 0 {
		maxDots = DefaultMaxDots
	}

	v := MonthView{
		Header: MonthHeader(year, month),
		Year:   year,
		Month:  month,
	}

	byWeekday := groupByWeekday(courses)
	ty, tm, td := now.Date()

	lead := int(FirstWeekdayOfMonth(year, month))
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < MonthGridCells; i++ {
		d := first.AddDate(0, 0, i-lead)
		cell := DayCell{
			Year:    d.Year(),
			Month:   d.Month(),
			Day:     d.Day(),
			Weekday: d.Weekday(),
			InMonth: d.Month() == month && d.Year() == year,
		}
		cell.IsToday = cell.Year == ty && cell.Month == tm && cell.Day == td

		if cell.InMonth {
			matches := byWeekday[cell.Weekday]
			for j, c := range matches {
				if j == maxDots {
					cell.Overflow = len(matches) - maxDots
					break
				}
				cell.Dots = append(cell.Dots, CourseDot{CourseID: c.ID, Name: c.Name, Color: c.DisplayColor()})
			}
		}
		v.Cells[i] = cell
	}

	return v
}

// groupByWeekday 按 dayOfWeek 分组，组内保持原始顺序
func groupByWeekday(courses []dto.Course) map[time.Weekday][]dto.Course {
	m := make(map[time.Weekday][]dto.Course, 7)
	for _, c := range courses {
		if c.DayOfWeek < 0 || c.DayOfWeek > 6 {
			continue
		}
		wd := time.Weekday(c.DayOfWeek)
		m[wd] = append(m[wd], c)
	}
	return m
}
