package constants

// 用户角色常量
const (
	UserRoleVisitor     = "visitor"
	UserRoleWhitelisted = "whitelisted"
	UserRoleAdmin       = "admin"
)

// 用户状态常量
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// 房源状态常量
const (
	ListingStatusPublished = "published"
	ListingStatusHidden    = "hidden"
)

// 点评状态常量
const (
	ReviewStatusPending  = "pending"
	ReviewStatusApproved = "approved"
	ReviewStatusRejected = "rejected"
)

// 联系方式修改申请状态常量
const (
	ContactEditStatusPending  = "pending"
	ContactEditStatusApproved = "approved"
	ContactEditStatusRejected = "rejected"
)

// 联系方式修改申请可修改字段
const (
	ContactEditFieldEmail = "contact_email"
	ContactEditFieldPhone = "contact_phone"
)

// 安全审计事件类型常量
// 说明：事件类型与结果枚举是遥测消费方的契约，不可随意变更。
const (
	AuditEventOtpRequest       = "auth.otp.request"
	AuditEventOtpVerify        = "auth.otp.verify"
	AuditEventModerationReview = "moderation.review"
	AuditEventAdminAction      = "admin.action"
)

// 安全审计事件结果常量
const (
	AuditOutcomeOK                  = "ok"
	AuditOutcomeInvalidRequest      = "invalid_request"
	AuditOutcomeInvalidEmail        = "invalid_email"
	AuditOutcomeInvalidCode         = "invalid_code"
	AuditOutcomeInvalidOrExpired    = "invalid_or_expired"
	AuditOutcomeRateLimited         = "rate_limited"
	AuditOutcomeNotAllowed          = "not_allowed"
	AuditOutcomeDBUnavailable       = "db_unavailable"
	AuditOutcomeDeliveryUnavailable = "delivery_unavailable"
	AuditOutcomeDeliveryFailed      = "delivery_failed"
)

// 限流桶作用域常量（scope = 动作 + 维度）
const (
	RateScopeOtpRequestEmail  = "otp_request:email"
	RateScopeOtpRequestIP     = "otp_request:ip"
	RateScopeOtpRequestSubnet = "otp_request:subnet"
	RateScopeOtpVerifyEmail   = "otp_verify:email"
	RateScopeOtpVerifyIP      = "otp_verify:ip"
	RateScopeOtpVerifySubnet  = "otp_verify:subnet"
	RateScopeOtpVerifyEmail1h = "otp_verify_1h:email"
	RateScopeOtpVerifyIP1h    = "otp_verify_1h:ip"
)

// 网络指纹未知哨兵值
const NetworkKeyUnknown = "unknown"

// 验证码场景常量
const (
	CaptchaSceneOtpRequest = "otp_request"
)

// 队列常量
const (
	QueueDefault  = "default"
	QueueCritical = "critical"
)

// 异步任务类型常量
const (
	TaskSecurityAuditAppend = "security:audit_append"
	TaskModerationNotify    = "moderation:notify_email"
	TaskAuthRetentionSweep  = "auth:retention_sweep"
)

// 会话 Cookie 常量
const (
	SessionCookieName        = "rn_session"
	MagicLinkStateCookieName = "rn_magic_state"
)
