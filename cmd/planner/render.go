package main

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Dreamstarlake/EduNexus/internal/calendar"
	"github.com/Dreamstarlake/EduNexus/internal/client"
	"github.com/Dreamstarlake/EduNexus/internal/dto"
)

const (
	columnWidth = 16
	// rowsPerHour 周视图每小时占用的终端行数
	rowsPerHour = 2
	cellWidth   = 12
	emptyNotice = "No courses scheduled yet. Add a course!"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4")).Padding(0, 1)
	dayStyle    = lipgloss.NewStyle().Bold(true).Width(columnWidth).Align(lipgloss.Center)
	todayStyle  = dayStyle.Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#7D56F4"))
	hourStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262")).Width(6)
	columnStyle = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, true, false, false).BorderForeground(lipgloss.Color("#3C3C3C"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
	cellStyle   = lipgloss.NewStyle().Width(cellWidth).Height(3).Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#3C3C3C"))

	noticeStyles = map[client.NoticeKind]lipgloss.Style{
		client.NoticeInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("#5DADE2")),
		client.NoticeSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true),
		client.NoticeError:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87")).Bold(true),
	}
)

// renderView 按当前视图类型输出
func renderView(v client.View) string {
	var b strings.Builder
	status := "not logged in"
	if v.LoggedIn {
		status = "logged in as " + v.Username
	}
	b.WriteString(headerStyle.Render(v.Header) + mutedStyle.Render(status) + "\n")

	switch {
	case v.Week != nil:
		b.WriteString(renderWeek(*v.Week))
	case v.Month != nil:
		b.WriteString(renderMonth(*v.Month))
	}
	if v.Notice != nil {
		b.WriteString("\n" + renderNotice(*v.Notice))
	}
	return b.String()
}

func renderNotice(n client.Notice) string {
	style, ok := noticeStyles[n.Kind]
	if !ok {
		style = noticeStyles[client.NoticeInfo]
	}
	return style.Render(n.Text)
}

// ── 周视图 ──

// renderWeek 将百分比定位换算为终端行，重叠时 ZIndex 高者覆盖
func renderWeek(w calendar.WeekView) string {
	rows := w.Window.TotalHours() * rowsPerHour

	cols := make([]string, 0, 8)
	cols = append(cols, hourGutter(w.Window, rows))
	for _, col := range w.Columns {
		cols = append(cols, columnStyle.Render(renderColumn(col, rows)))
	}
	out := lipgloss.JoinHorizontal(lipgloss.Top, cols...)
	if w.Empty {
		out += "\n" + mutedStyle.Render(emptyNotice)
	}
	return out
}

func hourGutter(win calendar.DayWindow, rows int) string {
	lines := []string{"", ""}
	for r := 0; r < rows; r++ {
		label := ""
		if r%rowsPerHour == 0 {
			label = fmt.Sprintf("%02d:00", win.StartHour+r/rowsPerHour)
		}
		lines = append(lines, hourStyle.Render(label))
	}
	return strings.Join(lines, "\n")
}

func renderColumn(col calendar.DayColumn, rows int) string {
	head := dayStyle
	if col.IsToday {
		head = todayStyle
	}
	lines := make([]string, rows)
	for i := range lines {
		lines[i] = strings.Repeat(" ", columnWidth)
	}

	blocks := append([]calendar.CourseBlock(nil), col.Blocks...)
	sort.SliceStable(blocks, func(i, j int) bool { return blocks[i].ZIndex < blocks[j].ZIndex })
	for _, b := range blocks {
		top, height := blockRows(b, rows)
		style := lipgloss.NewStyle().
			Width(columnWidth).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color(b.Color))
		body := []string{b.Course.Name, b.Label, b.Course.Location}
		for i := 0; i < height && top >= 0 && top+i < rows; i++ {
			text := ""
			if i < len(body) {
				text = truncate(body[i], columnWidth)
			}
			lines[top+i] = style.Render(text)
		}
	}

	return head.Render(col.Name[:3]) + "\n" +
		mutedStyle.Width(columnWidth).Align(lipgloss.Center).Render(col.Date.Format("01/02")) + "\n" +
		strings.Join(lines, "\n")
}

// blockRows 百分比 → 起始行与行数；窗口外的部分被裁掉，至少占一行
func blockRows(b calendar.CourseBlock, rows int) (int, int) {
	top := int(math.Round(b.TopPercent * float64(rows) / 100))
	height := int(math.Round(b.HeightPercent * float64(rows) / 100))
	if height < 1 {
		height = 1
	}
	if top < 0 {
		height += top
		top = 0
	}
	if top >= rows {
		top, height = rows-1, 1
	}
	if height < 1 {
		height = 1
	}
	return top, height
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// ── 月视图 ──

func renderMonth(m calendar.MonthView) string {
	var rows []string
	heads := make([]string, 7)
	for i, name := range calendar.DayNames {
		heads[i] = lipgloss.NewStyle().Width(cellWidth + 2).Align(lipgloss.Center).Bold(true).Render(name[:3])
	}
	rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, heads...))

	for week := 0; week < 6; week++ {
		cells := make([]string, 7)
		for d := 0; d < 7; d++ {
			cells[d] = renderCell(m.Cells[week*7+d])
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func renderCell(c calendar.DayCell) string {
	num := fmt.Sprintf("%d", c.Day)
	style := cellStyle
	switch {
	case c.IsToday:
		num = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#7D56F4")).Render(num)
		style = style.BorderForeground(lipgloss.Color("#7D56F4"))
	case !c.InMonth:
		num = mutedStyle.Render(num)
	}

	dots := make([]string, 0, len(c.Dots)+1)
	for _, d := range c.Dots {
		dots = append(dots, lipgloss.NewStyle().Foreground(lipgloss.Color(d.Color)).Render("●"))
	}
	if c.Overflow > 0 {
		dots = append(dots, mutedStyle.Render(fmt.Sprintf("+%d", c.Overflow)))
	}
	return style.Render(num + "\n" + strings.Join(dots, " "))
}

// ── 列表 ──

func renderList(courses []dto.Course) string {
	if len(courses) == 0 {
		return mutedStyle.Render(emptyNotice)
	}
	var b strings.Builder
	for _, c := range courses {
		swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(c.DisplayColor())).Render("■")
		fmt.Fprintf(&b, "%s %s  %s  %s-%s  %s", swatch, calendar.DayNames[dayIndex(c.DayOfWeek)][:3], c.ID, c.StartTime, c.EndTime, c.Name)
		if c.Instructor != "" {
			b.WriteString(mutedStyle.Render("  " + c.Instructor))
		}
		if c.Location != "" {
			b.WriteString(mutedStyle.Render(" @ " + c.Location))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func dayIndex(d int) int {
	if d < 0 || d > 6 {
		return 0
	}
	return d
}
