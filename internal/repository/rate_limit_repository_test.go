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

func setupRateLimitRepositoryTest(t *testing.T) *GormRateLimitRepository {
	t.Helper()
	dsn := fmt.Sprintf("file:rate_repo_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.RateLimitBucket{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return NewRateLimitRepository(db)
}

func TestRateLimitRepositoryHitIncrementsSameBucket(t *testing.T) {
	repo := setupRateLimitRepositoryTest(t)
	window := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	for want := int64(1); want <= 4; want++ {
		got, err := repo.Hit(constants.RateScopeOtpRequestIP, "203.0.113.9", window)
		if err != nil {
			t.Fatalf("hit failed: %v", err)
		}
		if got != want {
			t.Fatalf("hits want %d got %d", want, got)
		}
	}
}

func TestRateLimitRepositoryHitSeparatesScopeKeyWindow(t *testing.T) {
	repo := setupRateLimitRepositoryTest(t)
	window := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	if _, err := repo.Hit(constants.RateScopeOtpRequestIP, "203.0.113.9", window); err != nil {
		t.Fatalf("hit failed: %v", err)
	}

	got, err := repo.Hit(constants.RateScopeOtpRequestEmail, "203.0.113.9", window)
	if err != nil {
		t.Fatalf("hit other scope failed: %v", err)
	}
	if got != 1 {
		t.Fatalf("other scope hits want 1 got %d", got)
	}

	got, err = repo.Hit(constants.RateScopeOtpRequestIP, "198.51.100.7", window)
	if err != nil {
		t.Fatalf("hit other key failed: %v", err)
	}
	if got != 1 {
		t.Fatalf("other key hits want 1 got %d", got)
	}

	got, err = repo.Hit(constants.RateScopeOtpRequestIP, "203.0.113.9", window.Add(10*time.Minute))
	if err != nil {
		t.Fatalf("hit other window failed: %v", err)
	}
	if got != 1 {
		t.Fatalf("other window hits want 1 got %d", got)
	}
}

func TestRateLimitRepositoryTopBuckets(t *testing.T) {
	repo := setupRateLimitRepositoryTest(t)
	window := time.Now().UTC().Truncate(time.Hour)

	for i := 0; i < 5; i++ {
		if _, err := repo.Hit(constants.RateScopeOtpVerifyIP, "203.0.113.9", window); err != nil {
			t.Fatalf("hit failed: %v", err)
		}
	}
	for i := 0; i < 2; i++ {
		if _, err := repo.Hit(constants.RateScopeOtpVerifyIP, "198.51.100.7", window); err != nil {
			t.Fatalf("hit failed: %v", err)
		}
	}

	entries, err := repo.TopBuckets(window.Add(-time.Hour), 10)
	if err != nil {
		t.Fatalf("top buckets failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries len want 2 got %d", len(entries))
	}
	if entries[0].Key != "203.0.113.9" || entries[0].Hits != 5 {
		t.Fatalf("top entry want 203.0.113.9/5 got %s/%d", entries[0].Key, entries[0].Hits)
	}
}

func TestRateLimitRepositoryDeleteWindowsBefore(t *testing.T) {
	repo := setupRateLimitRepositoryTest(t)
	old := time.Now().UTC().Add(-48 * time.Hour)
	recent := time.Now().UTC()

	if _, err := repo.Hit(constants.RateScopeOtpRequestIP, "203.0.113.9", old); err != nil {
		t.Fatalf("hit old failed: %v", err)
	}
	if _, err := repo.Hit(constants.RateScopeOtpRequestIP, "203.0.113.9", recent); err != nil {
		t.Fatalf("hit recent failed: %v", err)
	}

	deleted, err := repo.DeleteWindowsBefore(time.Now().UTC().Add(-24 * time.Hour))
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("deleted want 1 got %d", deleted)
	}
}
