package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Dreamstarlake/EduNexus/internal/api/middleware"
	"github.com/Dreamstarlake/EduNexus/internal/dto"
	"github.com/Dreamstarlake/EduNexus/internal/service"
	"github.com/Dreamstarlake/EduNexus/pkg/response"
)

// AuthHandler 认证模块 HTTP 处理器
type AuthHandler struct {
	authSvc service.AuthService
}

// NewAuthHandler 创建 AuthHandler
func NewAuthHandler(authSvc service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// Register 用户注册
// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, service.ErrMissingCredentials.Error())
		return
	}

	result, err := h.authSvc.Register(c.Request.Context(), &req)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.JSON(c, http.StatusCreated, result)
}

// Login 用户登录
// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, service.ErrMissingCredentials.Error())
		return
	}

	result, err := h.authSvc.Login(c.Request.Context(), &req)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.JSON(c, http.StatusOK, result)
}

// Logout 用户登出，吊销当前凭证
// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	jti, exp := tokenInfo(c)
	if err := h.authSvc.Logout(c.Request.Context(), jti, exp); err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, nil)
}

// Me 当前登录用户
// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	response.OK(c, dto.UserResponse{ID: userID, Username: c.GetString(middleware.CtxUsername)})
}

func (h *AuthHandler) handleAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrMissingCredentials):
		response.BadRequest(c, 11001, err.Error())
	case errors.Is(err, service.ErrPasswordTooShort):
		response.BadRequest(c, 11002, err.Error())
	case errors.Is(err, service.ErrUsernameTaken):
		response.BadRequest(c, 11003, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		response.BadRequest(c, 11004, err.Error())
	default:
		response.InternalError(c)
	}
}
