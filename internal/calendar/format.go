package calendar

import (
	"fmt"
	"time"
)

// WeekHeader 周视图标题：
//   - 同月:   "Oct 11 - 17, 2026"
//   - 跨月:   "Sep 27 - Oct 3, 2026"
//   - 跨年:   "Dec 27, 2026 - Jan 2, 2027"
func WeekHeader(start, end time.Time) string {
	switch {
	case start.Year() != end.Year():
		return fmt.Sprintf("%s - %s", start.Format("Jan 2, 2006"), end.Format("Jan 2, 2006"))
	case start.Month() != end.Month():
		return fmt.Sprintf("%s - %s, %d", start.Format("Jan 2"), end.Format("Jan 2"), start.Year())
	default:
		return fmt.Sprintf("%s - %d, %d", start.Format("Jan 2"), end.Day(), start.Year())
	}
}

// MonthHeader 月视图标题，如 "October 2026"
func MonthHeader(year int, month time.Month) string {
	return fmt.Sprintf("%s %d", month.String(), year)
}
