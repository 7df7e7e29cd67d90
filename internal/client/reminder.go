package client

import (
	"sync"
	"time"

	"github.com/Dreamstarlake/EduNexus/internal/calendar"
	"github.com/Dreamstarlake/EduNexus/internal/dto"
)

// DefaultReminderLead 提醒提前量
const DefaultReminderLead = 5 * time.Minute

// Notifier 本地通知出口
type Notifier interface {
	// Permitted 是否已获得通知权限；未授权时不安排任何提醒
	Permitted() bool
	Notify(title, body string)
}

// Timer 可取消的定时任务，*time.Timer 即满足
type Timer interface {
	Stop() bool
}

// Reminders 当天课程的一次性提醒。
//
// 定时器归属于当前会话：登出或会话失效时调用 CancelAll。
// 只安排当天，不在午夜重新扫描。
type Reminders struct {
	mu       sync.Mutex
	lead     time.Duration
	notifier Notifier
	after    func(time.Duration, func()) Timer
	timers   []Timer
}

// NewReminders 创建提醒调度器；lead<=0 时使用默认 5 分钟
func NewReminders(notifier Notifier, lead time.Duration) *Reminders {
	if lead <= 0 {
		lead = DefaultReminderLead
	}
	return &Reminders{
		lead:     lead,
		notifier: notifier,
		after: func(d time.Duration, f func()) Timer {
			return time.AfterFunc(d, f)
		},
	}
}

// ScheduleToday 为 now 当天的课程安排提醒，返回安排数量。
// 会先取消此前安排的提醒，重复调用不会重复提醒。
func (r *Reminders) ScheduleToday(courses []dto.Course, now time.Time) int {
	r.CancelAll()
	if r.notifier == nil || !r.notifier.Permitted() {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	today := int(now.Weekday())
	for _, c := range courses {
		if c.DayOfWeek != today {
			continue
		}
		m := calendar.TimeToMinutes(c.StartTime)
		start := time.Date(now.Year(), now.Month(), now.Day(), m/60, m%60, 0, 0, now.Location())
		fireAt := start.Add(-r.lead)
		if !fireAt.After(now) {
			continue
		}

		title, body := reminderText(c)
		r.timers = append(r.timers, r.after(fireAt.Sub(now), func() {
			r.notifier.Notify(title, body)
		}))
	}
	return len(r.timers)
}

// Pending 已安排且未取消的提醒数
func (r *Reminders) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.timers)
}

// CancelAll 取消全部已安排的提醒
func (r *Reminders) CancelAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range r.timers {
		t.Stop()
	}
	r.timers = nil
}

func reminderText(c dto.Course) (string, string) {
	where := c.Location
	if where == "" {
		where = "class"
	}
	return "Upcoming Class: " + c.Name, "Starts at " + c.StartTime + " in " + where + "."
}
