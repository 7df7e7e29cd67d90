package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/Dreamstarlake/EduNexus/internal/calendar"
	"github.com/Dreamstarlake/EduNexus/internal/dto"
	"github.com/Dreamstarlake/EduNexus/internal/model"
	"github.com/Dreamstarlake/EduNexus/internal/repository"
)

// ── 导出模块业务错误 ──

var ErrExportGenerateFail = errors.New("Failed to generate spreadsheet")

// ExportService 导出业务接口
//
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
//   - Sheet "Week"：列为周日~周六，行为可见时间窗口内的整点，单元格列出该小时内进行的课程
//   - Sheet "Courses"：课程明细，顺序与列表接口一致
type ExportService interface {
	ExportWeek(ctx context.Context, userID string, weekOffset int, now time.Time) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	window calendar.DayWindow
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, window: calendar.DefaultDayWindow, logger: logger}
}

const (
	weekSheet    = "Week"
	coursesSheet = "Courses"
)

// ═══════════════════════════════════════════════════════════
// ExportWeek 导出周视图为 Excel
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportWeek(ctx context.Context, userID string, weekOffset int, now time.Time) (*bytes.Buffer, string, error) {
	// 1. 查询课程快照
	rows, err := s.repo.Course.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("查询课程列表失败", zap.String("user_id", userID), zap.Error(err))
		return nil, "", err
	}
	courses := model.CoursesToDTO(rows)

	// 2. 复用周视图布局
	view := calendar.BuildWeek(courses, weekOffset, now, s.window)

	// 3. 生成 Excel
	f := excelize.NewFile()
	defer f.Close()

	idx, _ := f.NewSheet(weekSheet)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	wrapStyle, _ := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	})

	// 标题行
	f.SetCellValue(weekSheet, "A1", view.Header)
	f.MergeCell(weekSheet, "A1", cell(colName(7), 1))
	f.SetCellStyle(weekSheet, "A1", "A1", headerStyle)

	// 表头：时间 | Sunday 10/11 | ...
	f.SetColWidth(weekSheet, "A", "A", 8)
	f.SetCellValue(weekSheet, cell("A", 2), "Time")
	for i, col := range view.Columns {
		name := colName(1 + i)
		f.SetColWidth(weekSheet, name, name, 22)
		f.SetCellValue(weekSheet, cell(name, 2), fmt.Sprintf("%s %s", col.Name, col.Date.Format("01/02")))
	}
	f.SetCellStyle(weekSheet, cell("A", 2), cell(colName(7), 2), headerStyle)

	// 数据行：每个整点一行
	row := 3
	for h := s.window.StartHour; h < s.window.EndHour; h++ {
		f.SetCellValue(weekSheet, cell("A", row), fmt.Sprintf("%02d:00", h))
		for i, col := range view.Columns {
			if text := blocksInHour(col.Blocks, h); text != "" {
				ref := cell(colName(1+i), row)
				f.SetCellValue(weekSheet, ref, text)
				f.SetCellStyle(weekSheet, ref, ref, wrapStyle)
			}
		}
		row++
	}

	// 课程明细
	if err := writeCourseSheet(f, courses); err != nil {
		s.logger.Error("写入课程明细失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	// 写入 buffer
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("courses_%s.xlsx", view.Start.Format("2006-01-02"))
	return buf, filename, nil
}

func writeCourseSheet(f *excelize.File, courses []dto.Course) error {
	if _, err := f.NewSheet(coursesSheet); err != nil {
		return err
	}
	headers := []string{"Name", "Day", "Start", "End", "Instructor", "Location", "Color"}
	for i, h := range headers {
		f.SetCellValue(coursesSheet, cell(colName(i), 1), h)
	}
	for r, c := range courses {
		day := ""
		if c.DayOfWeek >= 0 && c.DayOfWeek <= 6 {
			day = calendar.DayNames[c.DayOfWeek]
		}
		values := []interface{}{c.Name, day, c.StartTime, c.EndTime, c.Instructor, c.Location, c.DisplayColor()}
		for i, v := range values {
			if err := f.SetCellValue(coursesSheet, cell(colName(i), r+2), v); err != nil {
				return err
			}
		}
	}
	return nil
}

// blocksInHour 列出与 [h:00, h+1:00) 相交的课程，按列内顺序以换行分隔
func blocksInHour(blocks []calendar.CourseBlock, h int) string {
	from, to := h*60, (h+1)*60
	var lines []string
	for _, b := range blocks {
		start := calendar.TimeToMinutes(b.Course.StartTime)
		end := calendar.TimeToMinutes(b.Course.EndTime)
		if end <= start {
			end = start + calendar.MinVisualMinutes
		}
		if start < to && end > from {
			lines = append(lines, fmt.Sprintf("%s (%s)", b.Course.Name, b.Label))
		}
	}
	return strings.Join(lines, "\n")
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
