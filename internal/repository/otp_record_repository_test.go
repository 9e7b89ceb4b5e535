package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/roomnest-next/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupOtpRecordRepositoryTest(t *testing.T) (*GormOtpRecordRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:otp_repo_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.OtpRecord{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return NewOtpRecordRepository(db), db
}

func TestOtpRecordRepositoryCreateSupersedingInvalidatesPrevious(t *testing.T) {
	repo, _ := setupOtpRecordRepositoryTest(t)
	now := time.Now().UTC()

	first := models.OtpRecord{
		EmailNorm:      "student@example.com",
		CodeHash:       "hash-1",
		MagicLinkState: "state-1",
		MaxAttempts:    5,
		ExpiresAt:      now.Add(10 * time.Minute),
	}
	if err := repo.CreateSuperseding(&first); err != nil {
		t.Fatalf("create first failed: %v", err)
	}

	second := models.OtpRecord{
		EmailNorm:      "student@example.com",
		CodeHash:       "hash-2",
		MagicLinkState: "state-2",
		MaxAttempts:    5,
		ExpiresAt:      now.Add(10 * time.Minute),
	}
	if err := repo.CreateSuperseding(&second); err != nil {
		t.Fatalf("create second failed: %v", err)
	}

	active, err := repo.GetActiveByEmail("student@example.com", now)
	if err != nil {
		t.Fatalf("get active failed: %v", err)
	}
	if active == nil {
		t.Fatal("active record want non-nil")
	}
	if active.CodeHash != "hash-2" {
		t.Fatalf("active code hash want hash-2 got %s", active.CodeHash)
	}

	var old models.OtpRecord
	if err := repo.db.First(&old, first.ID).Error; err != nil {
		t.Fatalf("load first record failed: %v", err)
	}
	if old.SupersededAt == nil {
		t.Fatal("first record superseded_at want non-nil")
	}
}

func TestOtpRecordRepositoryGetActiveByEmailSkipsExpiredAndConsumed(t *testing.T) {
	repo, db := setupOtpRecordRepositoryTest(t)
	now := time.Now().UTC()

	expired := models.OtpRecord{
		EmailNorm:   "expired@example.com",
		CodeHash:    "hash",
		MaxAttempts: 5,
		ExpiresAt:   now.Add(-time.Minute),
	}
	if err := db.Create(&expired).Error; err != nil {
		t.Fatalf("create expired failed: %v", err)
	}
	got, err := repo.GetActiveByEmail("expired@example.com", now)
	if err != nil {
		t.Fatalf("get active failed: %v", err)
	}
	if got != nil {
		t.Fatalf("expired record want nil got id=%d", got.ID)
	}

	consumedAt := now.Add(-time.Minute)
	consumed := models.OtpRecord{
		EmailNorm:   "consumed@example.com",
		CodeHash:    "hash",
		MaxAttempts: 5,
		ExpiresAt:   now.Add(10 * time.Minute),
		ConsumedAt:  &consumedAt,
	}
	if err := db.Create(&consumed).Error; err != nil {
		t.Fatalf("create consumed failed: %v", err)
	}
	got, err = repo.GetActiveByEmail("consumed@example.com", now)
	if err != nil {
		t.Fatalf("get active failed: %v", err)
	}
	if got != nil {
		t.Fatalf("consumed record want nil got id=%d", got.ID)
	}
}

func TestOtpRecordRepositoryIncrementAttempts(t *testing.T) {
	repo, _ := setupOtpRecordRepositoryTest(t)
	now := time.Now().UTC()

	record := models.OtpRecord{
		EmailNorm:   "attempts@example.com",
		CodeHash:    "hash",
		MaxAttempts: 5,
		ExpiresAt:   now.Add(10 * time.Minute),
	}
	if err := repo.CreateSuperseding(&record); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	for want := 1; want <= 3; want++ {
		got, err := repo.IncrementAttempts(record.ID)
		if err != nil {
			t.Fatalf("increment attempts failed: %v", err)
		}
		if got != want {
			t.Fatalf("attempts want %d got %d", want, got)
		}
	}
}

func TestOtpRecordRepositoryMarkConsumedOnlyOnce(t *testing.T) {
	repo, _ := setupOtpRecordRepositoryTest(t)
	now := time.Now().UTC()

	record := models.OtpRecord{
		EmailNorm:   "once@example.com",
		CodeHash:    "hash",
		MaxAttempts: 5,
		ExpiresAt:   now.Add(10 * time.Minute),
	}
	if err := repo.CreateSuperseding(&record); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := repo.MarkConsumed(record.ID, now); err != nil {
		t.Fatalf("first consume failed: %v", err)
	}
	if err := repo.MarkConsumed(record.ID, now); err == nil {
		t.Fatal("second consume want error got nil")
	}
}
