package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/roomnest-next/internal/constants"
	"github.com/roomnest-next/internal/repository"
)

const (
	telemetryShortWindow = 15 * time.Minute
	telemetryLongWindow  = time.Hour
	telemetryTopWindow   = 24 * time.Hour
	telemetryTopLimit    = 10
	telemetryRecentLimit = 20

	alertVerifyFailureThreshold = 25
	alertRateLimitedThreshold   = 20
	alertHotBucketThreshold     = 1000
)

// 告警级别
const (
	AlertSeverityCritical = "critical"
	AlertSeverityWarning  = "warning"
	AlertSeverityInfo     = "info"
)

// TelemetryWindowStats 单窗口统计
type TelemetryWindowStats struct {
	WindowMinutes int                            `json:"window_minutes"`
	Requests      []repository.OutcomeCountEntry `json:"requests"`
	Verifies      []repository.OutcomeCountEntry `json:"verifies"`
}

// TelemetryAlert 遥测告警条目
type TelemetryAlert struct {
	Severity  string `json:"severity"`
	Kind      string `json:"kind"`
	Message   string `json:"message"`
	Value     int64  `json:"value"`
	Threshold int64  `json:"threshold"`
}

// TelemetryBucketEntry 脱敏后的热点桶条目
type TelemetryBucketEntry struct {
	Scope string `json:"scope"`
	Key   string `json:"key"`
	Hits  int64  `json:"hits"`
}

// TelemetryRecentEvent 脱敏后的近期审计事件
type TelemetryRecentEvent struct {
	EventType string    `json:"event_type"`
	Outcome   string    `json:"outcome"`
	Email     string    `json:"email"`
	IPKey     string    `json:"ip_key"`
	CreatedAt time.Time `json:"created_at"`
}

// TelemetryActivityStats 审核与管理动作活跃度
type TelemetryActivityStats struct {
	WindowMinutes    int   `json:"window_minutes"`
	ModerationCount  int64 `json:"moderation_count"`
	AdminActionCount int64 `json:"admin_action_count"`
}

// SecurityTelemetrySnapshot 安全遥测快照
type SecurityTelemetrySnapshot struct {
	GeneratedAt  time.Time              `json:"generated_at"`
	Windows      []TelemetryWindowStats `json:"windows"`
	TopBuckets   []TelemetryBucketEntry `json:"top_buckets"`
	RecentEvents []TelemetryRecentEvent `json:"recent_events"`
	Activity     TelemetryActivityStats `json:"activity"`
	Alerts       []TelemetryAlert       `json:"alerts"`
}

// SecurityTelemetryService 安全遥测服务
// 输出给管理后台的聚合视图：邮箱一律脱敏，永远不回显完整地址。
type SecurityTelemetryService struct {
	auditRepo repository.SecurityAuditRepository
	rateRepo  repository.RateLimitRepository
	now       func() time.Time
}

// NewSecurityTelemetryService 创建安全遥测服务
func NewSecurityTelemetryService(auditRepo repository.SecurityAuditRepository, rateRepo repository.RateLimitRepository) *SecurityTelemetryService {
	return &SecurityTelemetryService{
		auditRepo: auditRepo,
		rateRepo:  rateRepo,
		now:       time.Now,
	}
}

// Snapshot 生成遥测快照
func (s *SecurityTelemetryService) Snapshot() (*SecurityTelemetrySnapshot, error) {
	if s == nil || s.auditRepo == nil || s.rateRepo == nil {
		return nil, ErrDBUnavailable
	}
	now := s.now().UTC()

	windows := make([]TelemetryWindowStats, 0, 2)
	for _, window := range []time.Duration{telemetryShortWindow, telemetryLongWindow} {
		since := now.Add(-window)
		requests, err := s.auditRepo.CountGroupedByOutcome(constants.AuditEventOtpRequest, since)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDBUnavailable, err)
		}
		verifies, err := s.auditRepo.CountGroupedByOutcome(constants.AuditEventOtpVerify, since)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDBUnavailable, err)
		}
		windows = append(windows, TelemetryWindowStats{
			WindowMinutes: int(window.Minutes()),
			Requests:      requests,
			Verifies:      verifies,
		})
	}

	rawBuckets, err := s.rateRepo.TopBuckets(now.Add(-telemetryTopWindow), telemetryTopLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDBUnavailable, err)
	}
	buckets := make([]TelemetryBucketEntry, 0, len(rawBuckets))
	for _, entry := range rawBuckets {
		buckets = append(buckets, TelemetryBucketEntry{
			Scope: entry.Scope,
			Key:   redactBucketKey(entry.Scope, entry.Key),
			Hits:  entry.Hits,
		})
	}

	rawRecent, err := s.auditRepo.Recent(telemetryRecentLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDBUnavailable, err)
	}
	recent := make([]TelemetryRecentEvent, 0, len(rawRecent))
	for _, event := range rawRecent {
		recent = append(recent, TelemetryRecentEvent{
			EventType: event.EventType,
			Outcome:   event.Outcome,
			Email:     RedactEmail(event.EmailNorm),
			IPKey:     event.IPKey,
			CreatedAt: event.CreatedAt,
		})
	}

	hourAgo := now.Add(-telemetryLongWindow)
	moderationCount, err := s.auditRepo.CountSince(constants.AuditEventModerationReview, "", hourAgo)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDBUnavailable, err)
	}
	adminActionCount, err := s.auditRepo.CountSince(constants.AuditEventAdminAction, "", hourAgo)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDBUnavailable, err)
	}

	alerts := s.buildAlerts(windows[0], rawBuckets)

	return &SecurityTelemetrySnapshot{
		GeneratedAt:  now,
		Windows:      windows,
		TopBuckets:   buckets,
		RecentEvents: recent,
		Activity: TelemetryActivityStats{
			WindowMinutes:    int(telemetryLongWindow.Minutes()),
			ModerationCount:  moderationCount,
			AdminActionCount: adminActionCount,
		},
		Alerts: alerts,
	}, nil
}

// buildAlerts 基于 15 分钟窗口与 24 小时热点生成告警
// 没有任何告警时输出单条 info，消费方不用区分空列表。
func (s *SecurityTelemetryService) buildAlerts(short TelemetryWindowStats, buckets []repository.BucketTopEntry) []TelemetryAlert {
	alerts := make([]TelemetryAlert, 0, 4)

	verifyFailures := sumFailureCounts(short.Verifies)
	if verifyFailures >= alertVerifyFailureThreshold {
		alerts = append(alerts, TelemetryAlert{
			Severity:  AlertSeverityCritical,
			Kind:      "verify_failure_spike",
			Message:   fmt.Sprintf("%d failed verify attempts in the last 15 minutes", verifyFailures),
			Value:     verifyFailures,
			Threshold: alertVerifyFailureThreshold,
		})
	}

	rateLimited := countForOutcome(short.Requests, constants.AuditOutcomeRateLimited)
	if rateLimited >= alertRateLimitedThreshold {
		alerts = append(alerts, TelemetryAlert{
			Severity:  AlertSeverityWarning,
			Kind:      "request_rate_limited_spike",
			Message:   fmt.Sprintf("%d rate limited otp requests in the last 15 minutes", rateLimited),
			Value:     rateLimited,
			Threshold: alertRateLimitedThreshold,
		})
	}

	for _, bucket := range buckets {
		if bucket.Hits >= alertHotBucketThreshold {
			alerts = append(alerts, TelemetryAlert{
				Severity:  AlertSeverityWarning,
				Kind:      "hot_rate_bucket",
				Message:   fmt.Sprintf("bucket %s/%s hit %d times in 24h", bucket.Scope, redactBucketKey(bucket.Scope, bucket.Key), bucket.Hits),
				Value:     bucket.Hits,
				Threshold: alertHotBucketThreshold,
			})
		}
	}

	if len(alerts) == 0 {
		alerts = append(alerts, TelemetryAlert{
			Severity: AlertSeverityInfo,
			Kind:     "none",
			Message:  "no active alerts",
		})
	}
	return alerts
}

func sumFailureCounts(entries []repository.OutcomeCountEntry) int64 {
	var total int64
	for _, entry := range entries {
		switch entry.Outcome {
		case constants.AuditOutcomeInvalidOrExpired,
			constants.AuditOutcomeInvalidCode,
			constants.AuditOutcomeInvalidEmail,
			constants.AuditOutcomeNotAllowed:
			total += entry.Count
		}
	}
	return total
}

func countForOutcome(entries []repository.OutcomeCountEntry, outcome string) int64 {
	for _, entry := range entries {
		if entry.Outcome == outcome {
			return entry.Count
		}
	}
	return 0
}

func redactBucketKey(scope, key string) string {
	if strings.HasSuffix(scope, ":email") {
		return RedactEmail(key)
	}
	return key
}

// RedactEmail 邮箱脱敏
// 保留首字符与域名：student@example.com -> s***@example.com。
func RedactEmail(email string) string {
	email = strings.TrimSpace(email)
	if email == "" {
		return ""
	}
	at := strings.LastIndexByte(email, '@')
	if at <= 0 {
		return "***"
	}
	return email[:1] + "***@" + email[at+1:]
}
