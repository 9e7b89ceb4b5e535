package provider

import (
	"github.com/roomnest-next/internal/authz"
	"github.com/roomnest-next/internal/cache"
	"github.com/roomnest-next/internal/config"
	"github.com/roomnest-next/internal/logger"
	"github.com/roomnest-next/internal/models"
	"github.com/roomnest-next/internal/netfp"
	"github.com/roomnest-next/internal/queue"
	"github.com/roomnest-next/internal/repository"
	"github.com/roomnest-next/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client
	Network     *netfp.Resolver

	// Repositories
	UserRepo          repository.UserRepository
	ListingRepo       repository.ListingRepository
	ReviewRepo        repository.ReviewRepository
	ContactEditRepo   repository.ContactEditRequestRepository
	OtpRecordRepo     repository.OtpRecordRepository
	RateLimitRepo     repository.RateLimitRepository
	SecurityAuditRepo repository.SecurityAuditRepository

	// Services
	AuthzService       *authz.Service
	EmailService       *service.EmailService
	CaptchaService     *service.CaptchaService
	RateLimiter        *service.RateLimiter
	AuditService       *service.SecurityAuditService
	TelemetryService   *service.SecurityTelemetryService
	AuthOtpService     *service.AuthOtpService
	SessionService     *service.SessionService
	ListingService     *service.ListingService
	ReviewService      *service.ReviewService
	ContactEditService *service.ContactEditService
	UserService        *service.UserService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
		Network:     netfp.NewResolver(cfg.Network.TrustedHeader, cfg.Network.TrustedHops, cfg.Server.Mode == "release"),
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.UserRepo = repository.NewUserRepository(db)
	c.ListingRepo = repository.NewListingRepository(db)
	c.ReviewRepo = repository.NewReviewRepository(db)
	c.ContactEditRepo = repository.NewContactEditRequestRepository(db)
	c.OtpRecordRepo = repository.NewOtpRecordRepository(db)
	c.RateLimitRepo = repository.NewRateLimitRepository(db)
	c.SecurityAuditRepo = repository.NewSecurityAuditRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	c.EmailService = service.NewEmailService(&c.Config.Email, c.Config.Auth.Otp.MailTimeoutSecs)
	c.CaptchaService = service.NewCaptchaService(c.Config.Captcha)
	c.RateLimiter = service.NewRateLimiter(c.RateLimitRepo)
	c.AuditService = service.NewSecurityAuditService(c.SecurityAuditRepo, c.QueueClient)
	c.TelemetryService = service.NewSecurityTelemetryService(c.SecurityAuditRepo, c.RateLimitRepo)
	c.AuthOtpService = service.NewAuthOtpService(
		c.Config, c.UserRepo, c.OtpRecordRepo, c.RateLimiter, c.EmailService, c.AuditService)
	c.SessionService = service.NewSessionService(&c.Config.Auth.Session)
	c.ListingService = service.NewListingService(c.ListingRepo, c.ReviewRepo)
	c.ReviewService = service.NewReviewService(
		c.ReviewRepo, c.ListingRepo, c.ListingService, c.QueueClient, c.AuditService)
	c.ContactEditService = service.NewContactEditService(
		c.ContactEditRepo, c.ListingRepo, c.QueueClient, c.AuditService)
	c.UserService = service.NewUserService(c.UserRepo, c.AuthzService, c.AuditService)
}
