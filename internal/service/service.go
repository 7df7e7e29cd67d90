package service

import (
	"go.uber.org/zap"

	"github.com/Dreamstarlake/EduNexus/config"
	"github.com/Dreamstarlake/EduNexus/internal/repository"
	"github.com/Dreamstarlake/EduNexus/pkg/jwt"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth   AuthService
	Course CourseService
	Export ExportService
}

// NewService 创建 Service 聚合
// blacklist 可为 nil（Redis 不可用时登出仅由客户端丢弃凭证）
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	blacklist TokenBlacklist,
	logger *zap.Logger,
) *Service {
	return &Service{
		Auth:   NewAuthService(cfg, repo, jwtMgr, blacklist, logger),
		Course: NewCourseService(repo, logger),
		Export: NewExportService(repo, logger),
	}
}
