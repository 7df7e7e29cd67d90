package calendar

import (
	"strconv"
	"strings"
	"time"
)

// ── 时间轴窗口 ──

const (
	// DefaultDayStartHour 周视图可见窗口起点（07:00）
	DefaultDayStartHour = 7
	// DefaultDayEndHour 周视图可见窗口终点（22:00）
	DefaultDayEndHour = 22
	// MinVisualMinutes 课程块最小可视时长，保证零时长/非法时段仍可点击
	MinVisualMinutes = 15
)

// DayWindow 周视图时间轴可见范围（整点）
type DayWindow struct {
	StartHour int
	EndHour   int
}

// DefaultDayWindow 默认窗口 07:00–22:00，共 15 小时
var DefaultDayWindow = DayWindow{StartHour: DefaultDayStartHour, EndHour: DefaultDayEndHour}

// TotalHours 窗口总时长（小时），窗口反转时返回 0
func (w DayWindow) TotalHours() int {
	if w.EndHour <= w.StartHour {
		return 0
	}
	return w.EndHour - w.StartHour
}

// ── 时钟字符串 ──

// TimeToMinutes 将 "HH:MM" 解析为当日分钟数。
// 宽松解析：空串或缺少冒号返回 0，不报错。
func TimeToMinutes(s string) int {
	hh, mm, ok := strings.Cut(s, ":")
	if !ok {
		return 0
	}
	h, err := strconv.Atoi(strings.TrimSpace(hh))
	if err != nil {
		return 0
	}
	m, err := strconv.Atoi(strings.TrimSpace(mm))
	if err != nil {
		return 0
	}
	return h*60 + m
}

// ValidClock 严格校验 24 小时制 "HH:MM"（两位补零）
func ValidClock(s string) bool {
	if len(s) != 5 || s[2] != ':' {
		return false
	}
	_, err := time.Parse("15:04", s)
	return err == nil
}

// TimeToPercent 将时钟时间映射为窗口内的百分比位置 [0,100]。
// 窗口之前为 0，到达或超过窗口终点为 100；窗口长度为 0 时返回 0。
func TimeToPercent(t string, dayStartHour, dayTotalHours int) float64 {
	if dayTotalHours <= 0 {
		return 0
	}
	total := dayTotalHours * 60
	fromStart := TimeToMinutes(t) - dayStartHour*60
	if fromStart <= 0 {
		return 0
	}
	if fromStart >= total {
		return 100
	}
	return float64(fromStart) / float64(total) * 100
}

// DurationToPercent 计算课程块高度占窗口的百分比。
// 时长不为正时按 MinVisualMinutes 处理。
func DurationToPercent(start, end string, dayTotalHours int) float64 {
	if dayTotalHours <= 0 {
		return 0
	}
	d := TimeToMinutes(end) - TimeToMinutes(start)
	if d < MinVisualMinutes {
		d = MinVisualMinutes
	}
	return float64(d) / float64(dayTotalHours*60) * 100
}

// ── 公历运算 ──

// DaysInMonth 返回指定年月的天数。month 越界（0、13）由 time.Date 归一化。
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// FirstWeekdayOfMonth 返回当月 1 日是星期几（Sunday=0）
func FirstWeekdayOfMonth(year int, month time.Month) time.Weekday {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Weekday()
}

// ShiftMonth 按月偏移并处理跨年，返回归一化后的年月
func ShiftMonth(year int, month time.Month, delta int) (int, time.Month) {
	t := time.Date(year, month+time.Month(delta), 1, 0, 0, 0, 0, time.UTC)
	return t.Year(), t.Month()
}
