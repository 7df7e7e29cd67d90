package client

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Dreamstarlake/EduNexus/pkg/jwt"
)

// Session 持有登录凭证。凭证存在与否是唯一的登录态信号。
//
// path 非空时凭证持久化到该文件（0600），进程重启后可恢复；
// 为空时仅保存在内存中。
type Session struct {
	mu       sync.RWMutex
	path     string
	token    string
	username string
}

// NewSession 创建会话并尝试从 path 恢复凭证
func NewSession(path string) (*Session, error) {
	s := &Session{path: path}
	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("读取凭证文件失败: %w", err)
	}
	if token := strings.TrimSpace(string(data)); token != "" {
		s.token = token
		s.username = usernameOf(token)
	}
	return s, nil
}

// Token 当前凭证，未登录时为空串
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Username 从凭证中读出的用户名（仅用于展示，不做签名校验）
func (s *Session) Username() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.username
}

// LoggedIn 是否持有凭证
func (s *Session) LoggedIn() bool {
	return s.Token() != ""
}

// Set 保存新凭证
func (s *Session) Set(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = token
	s.username = usernameOf(token)
	if s.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("创建凭证目录失败: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(token), 0o600); err != nil {
		return fmt.Errorf("写入凭证文件失败: %w", err)
	}
	return nil
}

// Clear 丢弃凭证，返回此前是否处于登录态
func (s *Session) Clear() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	had := s.token != ""
	s.token, s.username = "", ""
	if s.path != "" {
		_ = os.Remove(s.path)
	}
	return had
}

func usernameOf(token string) string {
	claims, err := jwt.DecodeUnverified(token)
	if err != nil {
		return ""
	}
	return claims.Username
}
