package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Dreamstarlake/EduNexus/internal/service"
	"github.com/Dreamstarlake/EduNexus/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
	now       func() time.Time
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService, now func() time.Time) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc, now: now}
}

// ExportWeek 导出周视图
// GET /api/courses/export.xlsx?week=0
func (h *ExportHandler) ExportWeek(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	offset := 0
	if w := c.Query("week"); w != "" {
		n, err := strconv.Atoi(w)
		if err != nil {
			response.BadRequest(c, 10001, "week must be an integer offset")
			return
		}
		offset = n
	}

	buf, filename, err := h.exportSvc.ExportWeek(c.Request.Context(), userID, offset, h.now())
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	// 设置下载响应头
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportGenerateFail):
		response.Error(c, http.StatusInternalServerError, 16101, err.Error())
	default:
		_ = c.Error(err)
		response.InternalError(c)
	}
}
