package handler

import (
	"time"

	"github.com/Dreamstarlake/EduNexus/internal/service"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth   *AuthHandler
	Course *CourseHandler
	Export *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:   NewAuthHandler(svc.Auth),
		Course: NewCourseHandler(svc.Course, time.Now),
		Export: NewExportHandler(svc.Export, time.Now),
	}
}
