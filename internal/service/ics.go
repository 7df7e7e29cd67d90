package service

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"github.com/Dreamstarlake/EduNexus/internal/calendar"
	"github.com/Dreamstarlake/EduNexus/internal/dto"
)

// ── ICS 编解码 ──────────────────────────────────────────────
//
// 导入：每个 VEVENT 按 DTSTART 的星期（或 RRULE 的 BYDAY）生成课程，
// 同 name+day+start+end 的事件合并为一门课。跨天、无标题、
// 时间倒挂的事件计入 skipped。
//
// 导出：每门课一个 VEVENT，锚定在当前周对应的日期，RRULE 为每周重复。
// ─────────────────────────────────────────────────────────────

const (
	icsMaxFileSize = 5 * 1024 * 1024 // 5MB
	icsProductID   = "-//EduNexus//Course Planner//EN"
	icsUIDSuffix   = "@edunexus"

	icsPropColor      = ics.ComponentProperty("COLOR")
	icsPropInstructor = ics.ComponentProperty("X-EDUNEXUS-INSTRUCTOR")
)

// errICSTooLarge 上传内容超过 icsMaxFileSize
var errICSTooLarge = errors.New("ICS 文件超过大小上限")

var icsWeekdays = [7]string{"SU", "MO", "TU", "WE", "TH", "FR", "SA"}

// RFC 5545 TEXT 转义还原
var icsTextUnescaper = strings.NewReplacer(`\,`, ",", `\;`, ";", `\n`, "\n", `\N`, "\n", `\\`, `\`)

// parsedCourseEvent ICS 解析中间结构
type parsedCourseEvent struct {
	Name       string
	Days       []int // 0=Sunday … 6=Saturday
	StartTime  string
	EndTime    string
	Color      string
	Instructor string
	Location   string
}

// ParseICS 解析 ICS 内容为课程列表，返回跳过的事件数
// 课程 ID 以 UUIDv7 新生成，不复用日历 UID
func ParseICS(r io.Reader, loc *time.Location) ([]dto.Course, int, error) {
	// 多读 1 字节判断是否超限，超限整体拒绝而不是截断导入
	data, err := io.ReadAll(io.LimitReader(r, icsMaxFileSize+1))
	if err != nil {
		return nil, 0, fmt.Errorf("读取 ICS 失败: %w", err)
	}
	if len(data) > icsMaxFileSize {
		return nil, 0, errICSTooLarge
	}

	cal, err := ics.ParseCalendar(bytes.NewReader(data))
	if err != nil {
		return nil, 0, fmt.Errorf("ICS 格式解析失败: %w", err)
	}

	skipped := 0
	var events []parsedCourseEvent
	for _, comp := range cal.Events() {
		evt, ok := parseVEvent(comp, loc)
		if !ok {
			skipped++
			continue
		}
		events = append(events, evt)
	}

	return mergeEvents(events), skipped, nil
}

// parseVEvent 解析单个 VEVENT 组件
func parseVEvent(evt *ics.VEvent, loc *time.Location) (parsedCourseEvent, bool) {
	summary := evt.GetProperty(ics.ComponentPropertySummary)
	if summary == nil || strings.TrimSpace(summary.Value) == "" {
		return parsedCourseEvent{}, false
	}

	dtStart, err := parseICSDateTime(evt, ics.ComponentPropertyDtStart, loc)
	if err != nil {
		return parsedCourseEvent{}, false
	}
	dtEnd, err := parseICSDateTime(evt, ics.ComponentPropertyDtEnd, loc)
	if err != nil {
		// 无 DTEND 时尝试 DURATION
		d, ok := parseICSDuration(evt)
		if !ok {
			return parsedCourseEvent{}, false
		}
		dtEnd = dtStart.Add(d)
	}

	// 课程不跨天
	if dtEnd.YearDay() != dtStart.YearDay() || dtEnd.Year() != dtStart.Year() || !dtEnd.After(dtStart) {
		return parsedCourseEvent{}, false
	}

	// 按分钟截断后仍需 end > start，不足一分钟的事件跳过
	startClock, endClock := dtStart.Format("15:04"), dtEnd.Format("15:04")
	if endClock <= startClock {
		return parsedCourseEvent{}, false
	}

	days := []int{int(dtStart.Weekday())}
	if rr := evt.GetProperty(ics.ComponentPropertyRrule); rr != nil {
		if byDay := parseRRule(rr.Value).byDay; len(byDay) > 0 {
			days = byDay
		}
	}

	return parsedCourseEvent{
		Name:       strings.TrimSpace(icsTextUnescaper.Replace(summary.Value)),
		Days:       days,
		StartTime:  startClock,
		EndTime:    endClock,
		Color:      propValue(evt, icsPropColor),
		Instructor: propValue(evt, icsPropInstructor),
		Location:   propValue(evt, ics.ComponentPropertyLocation),
	}, true
}

// rruleParams RRULE 解析结果；课程按周重复，这里只关心 FREQ 与 BYDAY
type rruleParams struct {
	freq  string
	byDay []int
}

// parseRRule 解析 RRULE 字符串（如 FREQ=WEEKLY;BYDAY=MO,WE）
func parseRRule(value string) rruleParams {
	var r rruleParams
	for _, part := range strings.Split(value, ";") {
		k, v, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		switch strings.ToUpper(k) {
		case "FREQ":
			r.freq = strings.ToUpper(v)
		case "BYDAY":
			for _, d := range strings.Split(v, ",") {
				d = strings.ToUpper(strings.TrimSpace(d))
				// 去掉序数前缀，如 1MO / -1FR
				if len(d) > 2 {
					d = d[len(d)-2:]
				}
				for i, w := range icsWeekdays {
					if w == d {
						r.byDay = append(r.byDay, i)
					}
				}
			}
		}
	}
	if r.freq != "" && r.freq != "WEEKLY" {
		r.byDay = nil
	}
	return r
}

// mergeEvents 按 name+day+start+end 去重展开，保持首次出现顺序
func mergeEvents(events []parsedCourseEvent) []dto.Course {
	type key struct {
		Name      string
		DayOfWeek int
		StartTime string
		EndTime   string
	}
	seen := make(map[key]bool)
	var result []dto.Course

	for _, e := range events {
		for _, day := range e.Days {
			k := key{Name: e.Name, DayOfWeek: day, StartTime: e.StartTime, EndTime: e.EndTime}
			if seen[k] {
				continue
			}
			seen[k] = true
			result = append(result, dto.Course{
				ID:         uuid.Must(uuid.NewV7()).String(),
				Name:       e.Name,
				StartTime:  e.StartTime,
				EndTime:    e.EndTime,
				DayOfWeek:  day,
				Color:      e.Color,
				Instructor: e.Instructor,
				Location:   e.Location,
			})
		}
	}
	return result
}

// BuildICS 将课程导出为 iCalendar 文本
func BuildICS(courses []dto.Course, now time.Time) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(icsProductID)

	weekStart, _ := calendar.WeekRange(now, 0)
	for _, c := range courses {
		if c.DayOfWeek < 0 || c.DayOfWeek > 6 {
			continue
		}
		day := weekStart.AddDate(0, 0, c.DayOfWeek)
		start := atClock(day, c.StartTime)
		end := atClock(day, c.EndTime)

		event := cal.AddEvent(c.ID + icsUIDSuffix)
		event.SetDtStampTime(now)
		event.SetStartAt(start)
		event.SetEndAt(end)
		event.SetSummary(c.Name)
		event.SetProperty(ics.ComponentPropertyRrule, "FREQ=WEEKLY;BYDAY="+icsWeekdays[c.DayOfWeek])
		event.SetProperty(icsPropColor, c.DisplayColor())
		if c.Location != "" {
			event.SetLocation(c.Location)
		}
		if c.Instructor != "" {
			event.SetProperty(icsPropInstructor, c.Instructor)
			event.SetDescription("Instructor: " + c.Instructor)
		}
	}

	return cal.Serialize()
}

// ── 辅助函数 ──

func atClock(day time.Time, clock string) time.Time {
	m := calendar.TimeToMinutes(clock)
	return time.Date(day.Year(), day.Month(), day.Day(), m/60, m%60, 0, 0, day.Location())
}

func propValue(evt *ics.VEvent, name ics.ComponentProperty) string {
	if p := evt.GetProperty(name); p != nil {
		return strings.TrimSpace(icsTextUnescaper.Replace(p.Value))
	}
	return ""
}

// parseICSDuration 仅支持 PT#H#M#S 形式
func parseICSDuration(evt *ics.VEvent) (time.Duration, bool) {
	p := evt.GetProperty(ics.ComponentPropertyDuration)
	if p == nil || !strings.HasPrefix(p.Value, "PT") {
		return 0, false
	}
	d, err := time.ParseDuration(strings.ToLower(strings.TrimPrefix(p.Value, "PT")))
	if err != nil || d <= 0 {
		return 0, false
	}
	return d, true
}

// parseICSDateTime 从 VEVENT 中解析日期时间属性
func parseICSDateTime(evt *ics.VEvent, propName ics.ComponentProperty, loc *time.Location) (time.Time, error) {
	prop := evt.GetProperty(propName)
	if prop == nil {
		return time.Time{}, fmt.Errorf("missing property %s", propName)
	}
	val := prop.Value

	// 检查 TZID 参数
	tzid := ""
	for k, v := range prop.ICalParameters {
		if strings.ToUpper(k) == "TZID" && len(v) > 0 {
			tzid = v[0]
		}
	}

	for _, layout := range []string{"20060102T150405Z", "20060102T150405", "20060102"} {
		t, err := time.Parse(layout, val)
		if err != nil {
			continue
		}
		if strings.HasSuffix(layout, "Z") {
			return t.In(loc), nil
		}
		if tzid != "" {
			if tzLoc, err := time.LoadLocation(tzid); err == nil {
				return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, tzLoc).In(loc), nil
			}
		}
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc), nil
	}

	return time.Time{}, fmt.Errorf("无法解析日期: %s", val)
}
