package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/roomnest-next/internal/constants"
	"github.com/roomnest-next/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupSecurityAuditRepositoryTest(t *testing.T) (*GormSecurityAuditRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:audit_repo_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.SecurityAuditEvent{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return NewSecurityAuditRepository(db), db
}

func TestSecurityAuditRepositoryCountSince(t *testing.T) {
	repo, db := setupSecurityAuditRepositoryTest(t)
	now := time.Now().UTC()

	events := []models.SecurityAuditEvent{
		{EventType: constants.AuditEventOtpVerify, Outcome: constants.AuditOutcomeInvalidOrExpired, CreatedAt: now.Add(-5 * time.Minute)},
		{EventType: constants.AuditEventOtpVerify, Outcome: constants.AuditOutcomeInvalidOrExpired, CreatedAt: now.Add(-10 * time.Minute)},
		{EventType: constants.AuditEventOtpVerify, Outcome: constants.AuditOutcomeInvalidOrExpired, CreatedAt: now.Add(-2 * time.Hour)},
		{EventType: constants.AuditEventOtpVerify, Outcome: constants.AuditOutcomeOK, CreatedAt: now.Add(-5 * time.Minute)},
		{EventType: constants.AuditEventOtpRequest, Outcome: constants.AuditOutcomeInvalidOrExpired, CreatedAt: now.Add(-5 * time.Minute)},
	}
	if err := db.Create(&events).Error; err != nil {
		t.Fatalf("create events failed: %v", err)
	}

	count, err := repo.CountSince(constants.AuditEventOtpVerify, constants.AuditOutcomeInvalidOrExpired, now.Add(-15*time.Minute))
	if err != nil {
		t.Fatalf("count since failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("count want 2 got %d", count)
	}
}

func TestSecurityAuditRepositoryCountGroupedByOutcome(t *testing.T) {
	repo, db := setupSecurityAuditRepositoryTest(t)
	now := time.Now().UTC()

	events := []models.SecurityAuditEvent{
		{EventType: constants.AuditEventOtpRequest, Outcome: constants.AuditOutcomeOK, CreatedAt: now.Add(-time.Minute)},
		{EventType: constants.AuditEventOtpRequest, Outcome: constants.AuditOutcomeOK, CreatedAt: now.Add(-time.Minute)},
		{EventType: constants.AuditEventOtpRequest, Outcome: constants.AuditOutcomeRateLimited, CreatedAt: now.Add(-time.Minute)},
	}
	if err := db.Create(&events).Error; err != nil {
		t.Fatalf("create events failed: %v", err)
	}

	entries, err := repo.CountGroupedByOutcome(constants.AuditEventOtpRequest, now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("count grouped failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries len want 2 got %d", len(entries))
	}
	if entries[0].Outcome != constants.AuditOutcomeOK || entries[0].Count != 2 {
		t.Fatalf("top entry want ok/2 got %s/%d", entries[0].Outcome, entries[0].Count)
	}
}

func TestSecurityAuditRepositoryListFilters(t *testing.T) {
	repo, db := setupSecurityAuditRepositoryTest(t)
	now := time.Now().UTC()

	events := []models.SecurityAuditEvent{
		{EventType: constants.AuditEventOtpVerify, Outcome: constants.AuditOutcomeOK, EmailNorm: "a@example.com", IPKey: "203.0.113.9", CreatedAt: now},
		{EventType: constants.AuditEventOtpVerify, Outcome: constants.AuditOutcomeNotAllowed, EmailNorm: "b@example.com", IPKey: "203.0.113.9", CreatedAt: now},
		{EventType: constants.AuditEventOtpRequest, Outcome: constants.AuditOutcomeOK, EmailNorm: "a@example.com", IPKey: "198.51.100.7", CreatedAt: now},
	}
	if err := db.Create(&events).Error; err != nil {
		t.Fatalf("create events failed: %v", err)
	}

	list, total, err := repo.List(AuditEventListFilter{
		Page:      1,
		PageSize:  10,
		EventType: constants.AuditEventOtpVerify,
		IPKey:     "203.0.113.9",
	})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 2 || len(list) != 2 {
		t.Fatalf("list want 2/2 got %d/%d", total, len(list))
	}
}
