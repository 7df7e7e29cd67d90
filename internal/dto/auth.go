package dto

// ── 认证模块 DTO ──

// MinPasswordLength 密码最小长度，服务端与客户端共用
const MinPasswordLength = 6

// RegisterRequest 注册请求
type RegisterRequest struct {
	Username string `json:"username" binding:"required,max=50"`
	Password string `json:"password" binding:"required,max=72"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterResponse 注册成功响应
type RegisterResponse struct {
	Message string `json:"message"`
	UserID  string `json:"userId"`
}

// TokenResponse 登录成功响应
type TokenResponse struct {
	Token     string `json:"token"`
	Message   string `json:"message"`
	ExpiresIn int    `json:"expires_in"` // 秒
}

// UserResponse 用户信息响应（脱敏）
type UserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}
