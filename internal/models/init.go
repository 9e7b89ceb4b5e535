package models

import (
	"strings"

	"github.com/roomnest-next/internal/constants"
	"github.com/roomnest-next/internal/logger"
)

// InitDefaultAdmin 初始化默认管理员账号
// 登录走邮箱验证码，无密码；这里只保证管理员邮箱存在且角色正确。
func InitDefaultAdmin(email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		email = "admin@example.com"
	}

	var count int64
	DB.Model(&User{}).Where("role = ?", constants.UserRoleAdmin).Count(&count)
	if count > 0 {
		// 已有管理员时确保默认邮箱仍是管理员角色
		if err := DB.Model(&User{}).Where("email = ?", email).
			Update("role", constants.UserRoleAdmin).Error; err != nil {
			logger.Warnw("ensure_default_admin_role_failed", "error", err)
		}
		return nil
	}

	admin := User{
		Email:       email,
		DisplayName: "Administrator",
		Role:        constants.UserRoleAdmin,
		Status:      constants.UserStatusActive,
	}
	if err := DB.Where("email = ?", email).FirstOrCreate(&admin).Error; err != nil {
		return err
	}
	if admin.Role != constants.UserRoleAdmin {
		if err := DB.Model(&admin).Update("role", constants.UserRoleAdmin).Error; err != nil {
			return err
		}
	}

	logger.Warnw("default_admin_ensured", "email", email)
	return nil
}
