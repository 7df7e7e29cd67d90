package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response 统一响应结构
//
// 与前端约定：成功时 data/changes 承载结果；失败时 error 为可直接展示的文案，
// code 为业务错误码（0 表示成功）。
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Changes *int64      `json:"changes,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ── 成功响应 ──

// OK 200 成功响应
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Created 201 创建成功
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// WithChanges 携带影响行数的成功响应（更新、删除、导入）
func WithChanges(c *gin.Context, httpStatus int, message string, data interface{}, changes int64) {
	c.JSON(httpStatus, Response{
		Code:    0,
		Message: message,
		Data:    data,
		Changes: &changes,
	})
}

// JSON 直接输出自定义结构（登录、注册等沿用历史字段的接口）
func JSON(c *gin.Context, httpStatus int, v interface{}) {
	c.JSON(httpStatus, v)
}

// ── 错误响应 ──

// Error 通用错误响应
func Error(c *gin.Context, httpStatus int, code int, message string) {
	c.JSON(httpStatus, Response{
		Code:  code,
		Error: message,
	})
}

// ── 常见快捷方式 ──

// BadRequest 400
func BadRequest(c *gin.Context, code int, message string) {
	Error(c, http.StatusBadRequest, code, message)
}

// Unauthorized 401
func Unauthorized(c *gin.Context, code int, message string) {
	Error(c, http.StatusUnauthorized, code, message)
}

// NotFound 404
func NotFound(c *gin.Context, code int, message string) {
	Error(c, http.StatusNotFound, code, message)
}

// Conflict 409
func Conflict(c *gin.Context, code int, message string) {
	Error(c, http.StatusConflict, code, message)
}

// InternalError 500
func InternalError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, 50000, "Internal server error")
}
