package errors

import (
	"errors"
	"strings"
)

// ErrDuplicateKey 主键或唯一索引冲突
var ErrDuplicateKey = errors.New("duplicate key")

// IsUniqueViolation 判断驱动错误是否为唯一约束冲突（PostgreSQL 23505）
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDuplicateKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLSTATE 23505") || strings.Contains(msg, "duplicate key value")
}
