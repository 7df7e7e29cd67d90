package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Dreamstarlake/EduNexus/internal/api/middleware"
	"github.com/Dreamstarlake/EduNexus/internal/dto"
	"github.com/Dreamstarlake/EduNexus/internal/service"
	"github.com/Dreamstarlake/EduNexus/pkg/response"
)

// CourseHandler 课程模块 HTTP 处理器
type CourseHandler struct {
	courseSvc service.CourseService
	now       func() time.Time
}

// NewCourseHandler 创建 CourseHandler
func NewCourseHandler(courseSvc service.CourseService, now func() time.Time) *CourseHandler {
	return &CourseHandler{courseSvc: courseSvc, now: now}
}

// ListCourses 当前用户的课程列表（插入顺序）
// GET /api/courses
func (h *CourseHandler) ListCourses(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	courses, err := h.courseSvc.List(c.Request.Context(), userID)
	if err != nil {
		h.handleCourseError(c, err, "")
		return
	}

	response.OK(c, courses)
}

// CreateCourse 创建课程
// POST /api/courses
func (h *CourseHandler) CreateCourse(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	course, err := h.courseSvc.Create(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleCourseError(c, err, "")
		return
	}

	response.Created(c, course)
}

// UpdateCourse 部分更新课程
// PUT /api/courses/:id
func (h *CourseHandler) UpdateCourse(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	course, changes, err := h.courseSvc.Update(c.Request.Context(), userID, c.Param("id"), &req)
	if err != nil {
		h.handleCourseError(c, err, "Course not found or not authorized to update.")
		return
	}

	response.WithChanges(c, http.StatusOK, "success", course, changes)
}

// DeleteCourse 删除课程
// DELETE /api/courses/:id
func (h *CourseHandler) DeleteCourse(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	changes, err := h.courseSvc.Delete(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.handleCourseError(c, err, "Course not found or not authorized to delete.")
		return
	}

	response.WithChanges(c, http.StatusOK, "deleted", nil, changes)
}

// ImportICS 上传 ICS 文件导入课程
// POST /api/courses/import  (multipart: file)
func (h *CourseHandler) ImportICS(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		if middleware.IsBodyTooLarge(err) {
			response.Error(c, http.StatusRequestEntityTooLarge, 10005, "Request body too large")
			return
		}
		response.BadRequest(c, 10001, "An .ics file is required in field \"file\"")
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.BadRequest(c, 10001, "Unable to read uploaded file")
		return
	}
	defer f.Close()

	result, err := h.courseSvc.ImportICS(c.Request.Context(), userID, f)
	if err != nil {
		h.handleCourseError(c, err, "")
		return
	}

	response.WithChanges(c, http.StatusCreated, "imported", result, int64(len(result.Courses)))
}

// ExportICS 导出 iCalendar
// GET /api/courses/export.ics
func (h *CourseHandler) ExportICS(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	data, err := h.courseSvc.ExportICS(c.Request.Context(), userID, h.now())
	if err != nil {
		h.handleCourseError(c, err, "")
		return
	}

	c.Header("Content-Disposition", `attachment; filename="courses.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", data)
}

func (h *CourseHandler) handleCourseError(c *gin.Context, err error, notFoundMsg string) {
	var vErr *service.ValidationError
	switch {
	case errors.As(err, &vErr):
		response.BadRequest(c, 12001, vErr.Error())
	case errors.Is(err, service.ErrEmptyName),
		errors.Is(err, service.ErrInvalidClock),
		errors.Is(err, service.ErrInvalidTimeRange),
		errors.Is(err, service.ErrInvalidDay),
		errors.Is(err, service.ErrFieldTooLong):
		response.BadRequest(c, 12002, err.Error())
	case errors.Is(err, service.ErrCourseNotFound):
		if notFoundMsg == "" {
			notFoundMsg = err.Error()
		}
		response.NotFound(c, 12003, notFoundMsg)
	case errors.Is(err, service.ErrCourseExists):
		response.Conflict(c, 12004, err.Error())
	case errors.Is(err, service.ErrICSInvalid), errors.Is(err, service.ErrICSEmpty):
		response.BadRequest(c, 12005, err.Error())
	default:
		_ = c.Error(err)
		response.InternalError(c)
	}
}

// bindError 请求体解析失败：超限返回 413，其余 400
func bindError(c *gin.Context, err error) {
	if middleware.IsBodyTooLarge(err) {
		response.Error(c, http.StatusRequestEntityTooLarge, 10005, "Request body too large")
		return
	}
	_ = c.Error(err)
	response.BadRequest(c, 10001, "Invalid request body")
}
