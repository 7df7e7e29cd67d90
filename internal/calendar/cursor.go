package calendar

import "time"

// ViewKind 当前激活的视图
type ViewKind string

const (
	ViewWeek  ViewKind = "week"
	ViewMonth ViewKind = "month"
)

// Cursor 视图游标：周偏移与月份游标相互独立，互不共享。
type Cursor struct {
	Active     ViewKind
	WeekOffset int
	Year       int
	Month      time.Month
}

// NewCursor 初始为周视图、本周、当月
func NewCursor(now time.Time) *Cursor {
	return &Cursor{
		Active: ViewWeek,
		Year:   now.Year(),
		Month:  now.Month(),
	}
}

// SwitchTo 切换视图。
// 进入月视图时无条件重置为 now 所在月份；进入周视图保留原偏移。
func (c *Cursor) SwitchTo(view ViewKind, now time.Time) {
	if view == ViewMonth {
		c.Active = ViewMonth
		c.Year, c.Month = now.Year(), now.Month()
		return
	}
	c.Active = ViewWeek
}

func (c *Cursor) NextWeek() { c.WeekOffset++ }
func (c *Cursor) PrevWeek() { c.WeekOffset-- }
func (c *Cursor) ThisWeek() { c.WeekOffset = 0 }

// NextMonth 下一个月，12 月之后进入下一年 1 月
func (c *Cursor) NextMonth() { c.Year, c.Month = ShiftMonth(c.Year, c.Month, 1) }

// PrevMonth 上一个月，1 月之前回到上一年 12 月
func (c *Cursor) PrevMonth() { c.Year, c.Month = ShiftMonth(c.Year, c.Month, -1) }
