package router

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roomnest-next/internal/authz"
	"github.com/roomnest-next/internal/cache"
	"github.com/roomnest-next/internal/config"
	adminhandlers "github.com/roomnest-next/internal/http/handlers/admin"
	publichandlers "github.com/roomnest-next/internal/http/handlers/public"
	"github.com/roomnest-next/internal/http/response"
	"github.com/roomnest-next/internal/logger"
	"github.com/roomnest-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按前台/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "rn"
	}
	redisClient := cache.Client()
	// 边缘限流阈值放宽到持久化限流桶的三倍：
	// Redis 只挡突发洪水，计数型拒绝仍由服务层产生并记审计。
	otpRequestRule := edgeRateLimitRule(
		fmt.Sprintf("%s:rate:otp_request", redisPrefix), cfg.Auth.Limits.RequestPerIP)
	otpVerifyRule := edgeRateLimitRule(
		fmt.Sprintf("%s:rate:otp_verify", redisPrefix), cfg.Auth.Limits.VerifyPerIP)

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 公开接口
		public := apiV1.Group("/public")
		{
			public.GET("/listings", publicHandler.GetListings)
			public.GET("/listings/:id", publicHandler.GetListing)
			public.GET("/listings/:id/reviews", publicHandler.GetListingReviews)
			public.GET("/captcha/image", publicHandler.GetImageCaptcha)
		}

		// 登录认证接口
		auth := apiV1.Group("/auth")
		{
			auth.POST("/otp/request", RateLimitMiddleware(redisClient, otpRequestRule, KeyByIPAndJSONField("email")), publicHandler.RequestLoginOtp)
			auth.POST("/otp/verify", RateLimitMiddleware(redisClient, otpVerifyRule, KeyByIPAndJSONField("email")), publicHandler.VerifyLoginOtp)
			auth.GET("/otp/magic", RateLimitMiddleware(redisClient, otpVerifyRule, KeyByIP), publicHandler.VerifyMagicLinkLogin)
			auth.POST("/logout", publicHandler.Logout)
		}

		// 用户接口（需会话鉴权）
		user := apiV1.Group("")
		user.Use(SessionAuthMiddleware(c.SessionService, c.UserRepo))
		{
			user.GET("/me", publicHandler.GetCurrentUser)
			user.PUT("/me/profile", publicHandler.UpdateMyProfile)
			user.GET("/me/reviews", publicHandler.GetMyReviews)
			user.POST("/reviews", publicHandler.SubmitReview)
			user.GET("/me/contact-edits", publicHandler.GetMyContactEdits)
			user.POST("/contact-edits", publicHandler.SubmitContactEdit)
		}

		// 管理员接口
		admin := apiV1.Group("/admin")
		admin.Use(SessionAuthMiddleware(c.SessionService, c.UserRepo), AdminGuardMiddleware(c.AuthzService))
		{
			// 工作台
			admin.GET("/dashboard", adminHandler.GetDashboard)

			// 房源管理
			admin.GET("/listings", adminHandler.GetAdminListings)
			admin.GET("/listings/:id", adminHandler.GetAdminListing)
			admin.POST("/listings", adminHandler.CreateListing)
			admin.PUT("/listings/:id", adminHandler.UpdateListing)
			admin.PATCH("/listings/:id/status", adminHandler.SetListingStatus)

			// 点评审核
			admin.GET("/reviews", adminHandler.GetAdminReviews)
			admin.POST("/reviews/:id/moderate", adminHandler.ModerateReview)

			// 联系方式修改审核
			admin.GET("/contact-edits", adminHandler.GetAdminContactEdits)
			admin.POST("/contact-edits/:id/moderate", adminHandler.ModerateContactEdit)

			// 用户管理
			admin.GET("/users", adminHandler.GetAdminUsers)
			admin.GET("/users/:id", adminHandler.GetAdminUser)
			admin.POST("/users", adminHandler.CreateWhitelistedUser)
			admin.PUT("/users/:id/role", adminHandler.SetUserRole)
			admin.PUT("/users/:id/status", adminHandler.SetUserStatus)
			admin.PUT("/users/:id/authz-roles", adminHandler.SetUserAuthzRoles)

			// 安全审计与遥测
			admin.GET("/security/audit-events", adminHandler.GetSecurityAuditEvents)
			admin.GET("/security/telemetry", adminHandler.GetSecurityTelemetry)

			// 权限对象清单（供角色策略配置页使用）
			admin.GET("/authz/permissions/catalog", func(ctx *gin.Context) {
				response.Success(ctx, buildAdminPermissionCatalog(r))
			})
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}

func edgeRateLimitRule(prefix string, window config.LimitWindow) RateLimitRule {
	return RateLimitRule{
		Prefix:        prefix,
		WindowSeconds: window.WindowMinutes * 60,
		MaxRequests:   window.MaxHits * 3,
		MessageKey:    "error.rate_limited",
	}
}

type adminPermissionCatalogItem struct {
	Module     string `json:"module"`
	Method     string `json:"method"`
	Object     string `json:"object"`
	Permission string `json:"permission"`
}

func buildAdminPermissionCatalog(engine *gin.Engine) []adminPermissionCatalogItem {
	if engine == nil {
		return []adminPermissionCatalogItem{}
	}

	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]adminPermissionCatalogItem, 0, len(routes))

	for _, item := range routes {
		method := strings.ToUpper(strings.TrimSpace(item.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		if !strings.HasPrefix(item.Path, "/api/v1/admin/") {
			continue
		}
		object := authz.NormalizeObject(item.Path)
		permission := method + ":" + object
		if _, exists := seen[permission]; exists {
			continue
		}
		seen[permission] = struct{}{}
		items = append(items, adminPermissionCatalogItem{
			Module:     deriveAdminPermissionModule(object),
			Method:     method,
			Object:     object,
			Permission: permission,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Module == items[j].Module {
			if items[i].Object == items[j].Object {
				return items[i].Method < items[j].Method
			}
			return items[i].Object < items[j].Object
		}
		return items[i].Module < items[j].Module
	})

	return items
}

func deriveAdminPermissionModule(object string) string {
	normalized := strings.TrimPrefix(strings.TrimSpace(object), "/")
	if normalized == "" {
		return "system"
	}
	segments := strings.Split(normalized, "/")
	if len(segments) <= 1 {
		return segments[0]
	}
	if segments[0] != "admin" {
		return segments[0]
	}
	return segments[1]
}
