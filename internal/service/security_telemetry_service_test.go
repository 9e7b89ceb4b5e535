package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/roomnest-next/internal/constants"
	"github.com/roomnest-next/internal/models"
	"github.com/roomnest-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupTelemetryServiceTest(t *testing.T) (*SecurityTelemetryService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:telemetry_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.SecurityAuditEvent{},
		&models.RateLimitBucket{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	svc := NewSecurityTelemetryService(
		repository.NewSecurityAuditRepository(db),
		repository.NewRateLimitRepository(db),
	)
	return svc, db
}

func seedAuditEvents(t *testing.T, db *gorm.DB, eventType, outcome string, count int, age time.Duration) {
	t.Helper()
	at := time.Now().UTC().Add(-age)
	events := make([]models.SecurityAuditEvent, 0, count)
	for i := 0; i < count; i++ {
		events = append(events, models.SecurityAuditEvent{
			EventType: eventType,
			Outcome:   outcome,
			CreatedAt: at,
		})
	}
	if err := db.Create(&events).Error; err != nil {
		t.Fatalf("seed audit events failed: %v", err)
	}
}

func TestTelemetrySnapshotNoAlerts(t *testing.T) {
	svc, db := setupTelemetryServiceTest(t)
	seedAuditEvents(t, db, constants.AuditEventOtpVerify, constants.AuditOutcomeOK, 3, time.Minute)

	snapshot, err := svc.Snapshot()
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	if len(snapshot.Windows) != 2 {
		t.Fatalf("windows len want 2 got %d", len(snapshot.Windows))
	}
	if snapshot.Windows[0].WindowMinutes != 15 || snapshot.Windows[1].WindowMinutes != 60 {
		t.Fatalf("window minutes want 15/60 got %d/%d",
			snapshot.Windows[0].WindowMinutes, snapshot.Windows[1].WindowMinutes)
	}
	if len(snapshot.Alerts) != 1 {
		t.Fatalf("alerts len want 1 got %d", len(snapshot.Alerts))
	}
	alert := snapshot.Alerts[0]
	if alert.Severity != AlertSeverityInfo || alert.Message != "no active alerts" {
		t.Fatalf("alert want info/no active alerts got %s/%s", alert.Severity, alert.Message)
	}
}

func TestTelemetrySnapshotVerifyFailureAlert(t *testing.T) {
	svc, db := setupTelemetryServiceTest(t)
	seedAuditEvents(t, db, constants.AuditEventOtpVerify, constants.AuditOutcomeInvalidOrExpired, 25, time.Minute)
	// 旧事件不参与 15 分钟窗口
	seedAuditEvents(t, db, constants.AuditEventOtpVerify, constants.AuditOutcomeInvalidOrExpired, 10, 2*time.Hour)

	snapshot, err := svc.Snapshot()
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	if len(snapshot.Alerts) != 1 {
		t.Fatalf("alerts len want 1 got %d", len(snapshot.Alerts))
	}
	alert := snapshot.Alerts[0]
	if alert.Severity != AlertSeverityCritical || alert.Kind != "verify_failure_spike" {
		t.Fatalf("alert want critical/verify_failure_spike got %s/%s", alert.Severity, alert.Kind)
	}
	if alert.Value != 25 {
		t.Fatalf("alert value want 25 got %d", alert.Value)
	}
}

func TestTelemetrySnapshotRateLimitedAlert(t *testing.T) {
	svc, db := setupTelemetryServiceTest(t)
	seedAuditEvents(t, db, constants.AuditEventOtpRequest, constants.AuditOutcomeRateLimited, 20, time.Minute)

	snapshot, err := svc.Snapshot()
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	if len(snapshot.Alerts) != 1 {
		t.Fatalf("alerts len want 1 got %d", len(snapshot.Alerts))
	}
	alert := snapshot.Alerts[0]
	if alert.Severity != AlertSeverityWarning || alert.Kind != "request_rate_limited_spike" {
		t.Fatalf("alert want warning/request_rate_limited_spike got %s/%s", alert.Severity, alert.Kind)
	}
}

func TestTelemetrySnapshotHotBucketAlertAndEmailRedaction(t *testing.T) {
	svc, db := setupTelemetryServiceTest(t)

	bucket := models.RateLimitBucket{
		Scope:       constants.RateScopeOtpRequestEmail,
		Key:         "student@example.com",
		WindowStart: time.Now().UTC().Truncate(time.Hour),
		Hits:        1500,
	}
	if err := db.Create(&bucket).Error; err != nil {
		t.Fatalf("seed bucket failed: %v", err)
	}

	snapshot, err := svc.Snapshot()
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	if len(snapshot.TopBuckets) != 1 {
		t.Fatalf("top buckets len want 1 got %d", len(snapshot.TopBuckets))
	}
	if snapshot.TopBuckets[0].Key != "s***@example.com" {
		t.Fatalf("redacted key want s***@example.com got %s", snapshot.TopBuckets[0].Key)
	}

	found := false
	for _, alert := range snapshot.Alerts {
		if alert.Kind == "hot_rate_bucket" {
			found = true
			if alert.Severity != AlertSeverityWarning {
				t.Fatalf("hot bucket severity want warning got %s", alert.Severity)
			}
		}
	}
	if !found {
		t.Fatal("hot_rate_bucket alert want present")
	}
}

func TestTelemetrySnapshotRecentEventsRedacted(t *testing.T) {
	svc, db := setupTelemetryServiceTest(t)

	events := []models.SecurityAuditEvent{
		{EventType: constants.AuditEventOtpRequest, Outcome: constants.AuditOutcomeOK, EmailNorm: "student@example.com", IPKey: "203.0.113.9", CreatedAt: time.Now().UTC().Add(-2 * time.Minute)},
		{EventType: constants.AuditEventOtpVerify, Outcome: constants.AuditOutcomeInvalidOrExpired, EmailNorm: "attacker@evil.example", IPKey: "198.51.100.7", CreatedAt: time.Now().UTC().Add(-time.Minute)},
	}
	if err := db.Create(&events).Error; err != nil {
		t.Fatalf("seed audit events failed: %v", err)
	}

	snapshot, err := svc.Snapshot()
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	if len(snapshot.RecentEvents) != 2 {
		t.Fatalf("recent events len want 2 got %d", len(snapshot.RecentEvents))
	}
	// 倒序：最新事件在前
	first := snapshot.RecentEvents[0]
	if first.EventType != constants.AuditEventOtpVerify || first.Outcome != constants.AuditOutcomeInvalidOrExpired {
		t.Fatalf("first recent event want verify/invalid_or_expired got %s/%s", first.EventType, first.Outcome)
	}
	if first.Email != "a***@evil.example" {
		t.Fatalf("recent event email want a***@evil.example got %s", first.Email)
	}
	if snapshot.RecentEvents[1].Email != "s***@example.com" {
		t.Fatalf("recent event email want s***@example.com got %s", snapshot.RecentEvents[1].Email)
	}
	for _, event := range snapshot.RecentEvents {
		if event.Email == "student@example.com" || event.Email == "attacker@evil.example" {
			t.Fatalf("recent event leaks full email: %s", event.Email)
		}
	}
}

func TestTelemetrySnapshotModerationAndAdminActivity(t *testing.T) {
	svc, db := setupTelemetryServiceTest(t)
	seedAuditEvents(t, db, constants.AuditEventModerationReview, "approved", 4, 10*time.Minute)
	seedAuditEvents(t, db, constants.AuditEventAdminAction, "user_role_updated", 2, 30*time.Minute)
	// 一小时窗口以外的动作不计入
	seedAuditEvents(t, db, constants.AuditEventModerationReview, "rejected", 3, 2*time.Hour)

	snapshot, err := svc.Snapshot()
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	if snapshot.Activity.WindowMinutes != 60 {
		t.Fatalf("activity window want 60 got %d", snapshot.Activity.WindowMinutes)
	}
	if snapshot.Activity.ModerationCount != 4 {
		t.Fatalf("moderation count want 4 got %d", snapshot.Activity.ModerationCount)
	}
	if snapshot.Activity.AdminActionCount != 2 {
		t.Fatalf("admin action count want 2 got %d", snapshot.Activity.AdminActionCount)
	}
}

func TestRedactEmail(t *testing.T) {
	cases := map[string]string{
		"student@example.com": "s***@example.com",
		"a@b.io":              "a***@b.io",
		"no-at-sign":          "***",
		"":                    "",
	}
	for input, want := range cases {
		if got := RedactEmail(input); got != want {
			t.Fatalf("redact %q want %q got %q", input, want, got)
		}
	}
}
