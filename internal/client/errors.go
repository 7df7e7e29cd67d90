package client

import (
	"errors"
	"fmt"
)

// ── 客户端错误分类 ──
//
//   - *ValidationError: 本地预校验失败，未发出任何请求
//   - ErrUnauthorized:  401，会话已被拆除
//   - *RemoteError:     其余非 2xx 响应
//   - *NetworkError:    传输层失败（服务不可达、超时、响应无法解析）

// ErrUnauthorized 会话失效或凭证无效
var ErrUnauthorized = errors.New("Unauthorized: Session expired or token invalid.")

// SessionExpiredMessage 401 时展示给用户的提示
const SessionExpiredMessage = "Your session has expired or is invalid. Please log in again."

// ValidationError 本地校验错误
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// RemoteError 服务端返回的业务错误
type RemoteError struct {
	Status  int
	Code    int
	Message string
}

func (e *RemoteError) Error() string { return e.Message }

// NetworkError 传输层错误
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *NetworkError) Unwrap() error { return e.Err }

func validationf(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}
