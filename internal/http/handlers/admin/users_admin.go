package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/roomnest-next/internal/http/response"
	"github.com/roomnest-next/internal/repository"
	"github.com/roomnest-next/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateWhitelistedUserRequest 创建白名单用户请求
type CreateWhitelistedUserRequest struct {
	Email       string `json:"email" binding:"required"`
	DisplayName string `json:"display_name"`
}

// SetUserRoleRequest 变更用户角色请求
type SetUserRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// SetUserStatusRequest 变更账号状态请求
type SetUserStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// SetUserAuthzRolesRequest 设置细分权限角色请求
type SetUserAuthzRolesRequest struct {
	Roles []string `json:"roles"`
}

// GetAdminUsers 后台查询用户列表
func (h *Handler) GetAdminUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	createdFrom, err := parseTimeNullable(c.Query("created_from"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	createdTo, err := parseTimeNullable(c.Query("created_to"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	users, total, err := h.UserService.List(repository.UserListFilter{
		Page:        page,
		PageSize:    pageSize,
		Keyword:     strings.TrimSpace(c.Query("keyword")),
		Role:        strings.TrimSpace(c.Query("role")),
		Status:      strings.TrimSpace(c.Query("status")),
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}

	response.SuccessWithPage(c, users, response.NewPagination(page, pageSize, total))
}

// GetAdminUser 后台获取用户详情
func (h *Handler) GetAdminUser(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.user_id_invalid", nil)
		return
	}

	user, err := h.UserService.Get(uint(id))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			respondError(c, response.CodeNotFound, "error.user_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}

	roles, err := h.UserService.GetAuthzRoles(user.ID)
	if err != nil {
		requestLog(c).Warnw("authz_roles_fetch_failed", "user_id", user.ID, "error", err)
	}

	response.Success(c, gin.H{
		"user":        user,
		"authz_roles": roles,
	})
}

// CreateWhitelistedUser 创建白名单用户
// 邮箱已存在时幂等返回现有用户。
func (h *Handler) CreateWhitelistedUser(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}

	var req CreateWhitelistedUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	user, err := h.UserService.CreateWhitelisted(req.Email, req.DisplayName, adminID)
	if err != nil {
		if errors.Is(err, service.ErrInvalidEmail) {
			respondError(c, response.CodeBadRequest, "error.email_invalid", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}

	response.Success(c, user)
}

// SetUserRole 变更用户角色
func (h *Handler) SetUserRole(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.user_id_invalid", nil)
		return
	}

	var req SetUserRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	if err := h.UserService.SetRole(uint(id), strings.TrimSpace(req.Role), adminID); err != nil {
		respondUserMutationError(c, err)
		return
	}

	response.Success(c, gin.H{"id": id, "role": strings.TrimSpace(req.Role)})
}

// SetUserStatus 变更账号状态
func (h *Handler) SetUserStatus(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.user_id_invalid", nil)
		return
	}

	var req SetUserStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	if err := h.UserService.SetStatus(uint(id), strings.TrimSpace(req.Status), adminID); err != nil {
		respondUserMutationError(c, err)
		return
	}

	response.Success(c, gin.H{"id": id, "status": strings.TrimSpace(req.Status)})
}

// SetUserAuthzRoles 设置细分权限角色
func (h *Handler) SetUserAuthzRoles(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.user_id_invalid", nil)
		return
	}

	var req SetUserAuthzRolesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	if err := h.UserService.SetAuthzRoles(uint(id), req.Roles, adminID); err != nil {
		respondUserMutationError(c, err)
		return
	}

	response.Success(c, gin.H{"id": id, "roles": req.Roles})
}

func respondUserMutationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		respondError(c, response.CodeNotFound, "error.user_not_found", nil)
	case errors.Is(err, service.ErrStatusTransition):
		respondError(c, response.CodeBadRequest, "error.status_transition", nil)
	default:
		respondError(c, response.CodeInternal, "error.internal", err)
	}
}
