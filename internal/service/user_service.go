package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/roomnest-next/internal/authz"
	"github.com/roomnest-next/internal/cache"
	"github.com/roomnest-next/internal/constants"
	"github.com/roomnest-next/internal/logger"
	"github.com/roomnest-next/internal/models"
	"github.com/roomnest-next/internal/repository"
)

// UserService 用户管理服务
type UserService struct {
	userRepo repository.UserRepository
	authz    *authz.Service
	audit    *SecurityAuditService
}

// NewUserService 创建用户管理服务
func NewUserService(userRepo repository.UserRepository, authzSvc *authz.Service, audit *SecurityAuditService) *UserService {
	return &UserService{
		userRepo: userRepo,
		authz:    authzSvc,
		audit:    audit,
	}
}

// List 查询用户列表
func (s *UserService) List(filter repository.UserListFilter) ([]models.User, int64, error) {
	return s.userRepo.List(filter)
}

// Get 按主键获取用户
func (s *UserService) Get(id uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDBUnavailable, err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// CreateWhitelisted 创建白名单用户
// 白名单即登录资格：没有密码，只有邮箱与角色。
func (s *UserService) CreateWhitelisted(email, displayName string, actorID uint) (*models.User, error) {
	normalized, err := NormalizeEmail(email)
	if err != nil {
		return nil, ErrInvalidEmail
	}
	existing, err := s.userRepo.GetByEmail(normalized)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDBUnavailable, err)
	}
	if existing != nil {
		return existing, nil
	}
	user := &models.User{
		Email:       normalized,
		DisplayName: strings.TrimSpace(displayName),
		Role:        constants.UserRoleWhitelisted,
		Status:      constants.UserStatusActive,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDBUnavailable, err)
	}
	s.recordAdminAction(actorID, fmt.Sprintf("user_create:%d email:%s", user.ID, RedactEmail(normalized)))
	return user, nil
}

// SetRole 变更用户角色
func (s *UserService) SetRole(id uint, role string, actorID uint) error {
	switch role {
	case constants.UserRoleVisitor, constants.UserRoleWhitelisted, constants.UserRoleAdmin:
	default:
		return ErrStatusTransition
	}
	if _, err := s.Get(id); err != nil {
		return err
	}
	if err := s.userRepo.UpdateRole(id, role); err != nil {
		return fmt.Errorf("%w: %v", ErrDBUnavailable, err)
	}
	s.invalidateAuthState(id)
	s.recordAdminAction(actorID, fmt.Sprintf("user_role:%d role:%s", id, role))
	return nil
}

// SetStatus 变更账号状态
// 停用后缓存快照同步失效，旧会话立刻失去访问资格。
func (s *UserService) SetStatus(id uint, status string, actorID uint) error {
	switch status {
	case constants.UserStatusActive, constants.UserStatusDisabled:
	default:
		return ErrStatusTransition
	}
	if _, err := s.Get(id); err != nil {
		return err
	}
	if err := s.userRepo.UpdateStatus(id, status); err != nil {
		return fmt.Errorf("%w: %v", ErrDBUnavailable, err)
	}
	s.invalidateAuthState(id)
	s.recordAdminAction(actorID, fmt.Sprintf("user_status:%d status:%s", id, status))
	return nil
}

// SetAuthzRoles 设置用户的细分权限角色
func (s *UserService) SetAuthzRoles(id uint, roles []string, actorID uint) error {
	if s.authz == nil {
		return nil
	}
	if _, err := s.Get(id); err != nil {
		return err
	}
	if err := s.authz.SetUserRoles(id, roles); err != nil {
		return err
	}
	s.recordAdminAction(actorID, fmt.Sprintf("user_authz_roles:%d roles:%s", id, strings.Join(roles, ",")))
	return nil
}

// GetAuthzRoles 查询用户的细分权限角色
func (s *UserService) GetAuthzRoles(id uint) ([]string, error) {
	if s.authz == nil {
		return nil, nil
	}
	return s.authz.GetUserRoles(id)
}

// UpdateProfile 更新个人资料
func (s *UserService) UpdateProfile(id uint, displayName, locale string) (*models.User, error) {
	if _, err := s.Get(id); err != nil {
		return nil, err
	}
	if err := s.userRepo.UpdateProfile(id, strings.TrimSpace(displayName), strings.TrimSpace(locale)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDBUnavailable, err)
	}
	s.invalidateAuthState(id)
	return s.Get(id)
}

func (s *UserService) invalidateAuthState(userID uint) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := cache.DelUserAuthState(ctx, userID); err != nil {
		logger.Warnw("auth_state_invalidate_failed", "user_id", userID, "error", err)
	}
}

func (s *UserService) recordAdminAction(actorID uint, detail string) {
	if s.audit == nil {
		return
	}
	var actor *uint
	if actorID > 0 {
		actor = &actorID
	}
	s.audit.Record(AuditEventInput{
		EventType: constants.AuditEventAdminAction,
		Outcome:   constants.AuditOutcomeOK,
		ActorID:   actor,
		Detail:    detail,
	})
}
